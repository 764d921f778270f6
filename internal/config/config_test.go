package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("KIS_APP_KEY", "")
		t.Setenv("KIS_APP_SECRET", "")
		t.Setenv("REQUEST_TIMEOUT", "")
		t.Setenv("SERVER_HOST", "")
		t.Setenv("SERVER_PORT", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}

		if cfg.Server.Addr != "localhost:5001" {
			t.Errorf("Expected addr localhost:5001, got %s", cfg.Server.Addr)
		}
		if cfg.KIS.Timeout != 30*time.Second {
			t.Errorf("Expected 30s timeout, got %v", cfg.KIS.Timeout)
		}
		if cfg.KIS.HasCredentials() {
			t.Error("Expected no credentials")
		}
	})

	t.Run("reads provider settings", func(t *testing.T) {
		t.Setenv("KIS_APP_KEY", "key")
		t.Setenv("KIS_APP_SECRET", "secret")
		t.Setenv("KIS_PRODUCTION", "true")
		t.Setenv("REFRESH_OPEN_INTERVAL", "3s")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}

		if !cfg.KIS.HasCredentials() || !cfg.KIS.Production {
			t.Errorf("Expected production credentials, got %+v", cfg.KIS)
		}
		if cfg.Refresh.OpenInterval != 3*time.Second {
			t.Errorf("Expected 3s open interval, got %v", cfg.Refresh.OpenInterval)
		}
		if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
			t.Errorf("Unexpected origins: %v", cfg.CORS.AllowedOrigins)
		}
	})

	t.Run("rejects bad durations", func(t *testing.T) {
		t.Setenv("REQUEST_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Error("Expected error for invalid REQUEST_TIMEOUT")
		}
	})

	t.Run("rejects negative concurrency", func(t *testing.T) {
		t.Setenv("RECONCILE_CONCURRENCY", "-1")
		if _, err := Load(); err == nil {
			t.Error("Expected error for negative RECONCILE_CONCURRENCY")
		}
	})
}
