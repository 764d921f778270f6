package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Log       LogConfig
	KIS       KISConfig
	Naver     NaverConfig
	Catalog   CatalogConfig
	Auth      AuthConfig
	Refresh   RefreshConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// KISConfig holds the brokerage OpenAPI credentials. An empty key or secret
// leaves the service in scrape-only mode.
type KISConfig struct {
	AppKey     string
	AppSecret  string
	Production bool
	BaseURL    string // overrides the production/simulation endpoint when set
	Timeout    time.Duration
	// TokenEncryptionKey is a fernet key. When set, issued tokens are persisted
	// encrypted so a restart does not burn the daily issuance.
	TokenEncryptionKey string
}

// HasCredentials reports whether both the app key and secret are set.
func (c KISConfig) HasCredentials() bool {
	return c.AppKey != "" && c.AppSecret != ""
}

// NaverConfig holds the finance page scraper configuration
type NaverConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CatalogConfig holds the listed-issue catalog configuration
type CatalogConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// AuthConfig holds bearer token verification settings. Without a secret every
// request runs as DefaultOwner.
type AuthConfig struct {
	JWTSecret    string
	DefaultOwner string
}

// RefreshConfig holds the market-aware refresh cadence
type RefreshConfig struct {
	OpenInterval   time.Duration
	ClosedInterval time.Duration
}

// ReconcileConfig holds reconciliation settings
type ReconcileConfig struct {
	// Concurrency bounds per-holding fan-out; 0 means unlimited.
	Concurrency int
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	timeout, err := getDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	openInterval, err := getDuration("REFRESH_OPEN_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, err
	}
	closedInterval, err := getDuration("REFRESH_CLOSED_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	concurrency, err := strconv.Atoi(getEnv("RECONCILE_CONCURRENCY", "0"))
	if err != nil || concurrency < 0 {
		return nil, fmt.Errorf("invalid RECONCILE_CONCURRENCY: must be a non-negative integer")
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/yield_bank.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnv("LOG_PRETTY", "false") == "true",
		},
		KIS: KISConfig{
			AppKey:             os.Getenv("KIS_APP_KEY"),
			AppSecret:          os.Getenv("KIS_APP_SECRET"),
			Production:         os.Getenv("KIS_PRODUCTION") == "true",
			BaseURL:            os.Getenv("KIS_BASE_URL"),
			Timeout:            timeout,
			TokenEncryptionKey: os.Getenv("TOKEN_ENCRYPTION_KEY"),
		},
		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			Timeout: timeout,
		},
		Catalog: CatalogConfig{
			APIKey:  os.Getenv("DATA_GO_KR_API_KEY"),
			BaseURL: getEnv("CATALOG_BASE_URL", "https://apis.data.go.kr"),
			Timeout: timeout,
		},
		Auth: AuthConfig{
			JWTSecret:    os.Getenv("SUPABASE_JWT_SECRET"),
			DefaultOwner: getEnv("DEFAULT_OWNER_ID", "local"),
		},
		Refresh: RefreshConfig{
			OpenInterval:   openInterval,
			ClosedInterval: closedInterval,
		},
		Reconcile: ReconcileConfig{
			Concurrency: concurrency,
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, value)
	}
	return d, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
