// Package kis is the Korea Investment & Securities OpenAPI quote source.
package kis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

// OpenAPI endpoints.
const (
	ProductionURL = "https://openapi.koreainvestment.com:9443"
	SimulationURL = "https://openapivts.koreainvestment.com:29443"
)

const (
	// SourceName identifies this adapter in logs and resolutions.
	SourceName = "kis"

	inquirePricePath = "/uapi/domestic-stock/v1/quotations/inquire-price"
	inquirePriceTrID = "FHKST01010100"
	// marketDivision selects the stock segment for price lookups.
	marketDivision = "J"
)

// Config configures a Client.
type Config struct {
	AppKey     string
	AppSecret  string
	Production bool
	// BaseURL overrides the endpoint picked by Production.
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Now        func() time.Time
}

// Endpoint returns the base URL requests are sent to.
func (c Config) Endpoint() string {
	switch {
	case c.BaseURL != "":
		return c.BaseURL
	case c.Production:
		return ProductionURL
	default:
		return SimulationURL
	}
}

// Client fetches quotes from the OpenAPI price lookup.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appKey     string
	appSecret  string
	timeout    time.Duration
	now        func() time.Time
	tokens     *TokenProvider
}

// NewClient creates a Client. The token cache decides whether issued tokens
// survive a restart.
func NewClient(cfg Config, cache TokenCache, log zerolog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	endpoint := cfg.Endpoint()

	return &Client{
		httpClient: httpClient,
		baseURL:    endpoint,
		appKey:     cfg.AppKey,
		appSecret:  cfg.AppSecret,
		timeout:    timeout,
		now:        now,
		tokens:     NewTokenProvider(httpClient, endpoint, cfg.AppKey, cfg.AppSecret, cache, timeout, now, log),
	}
}

// Name implements quote.Source.
func (c *Client) Name() string { return SourceName }

// HasCredentials reports whether an app key and secret are configured.
func (c *Client) HasCredentials() bool {
	return c.appKey != "" && c.appSecret != ""
}

// Tokens exposes the token provider, used to warm the cache before the open.
func (c *Client) Tokens() *TokenProvider { return c.tokens }

// FetchQuote returns the current quote for a 6 character symbol.
//
// Returns:
//   - model.Quote: quote with a non-zero price
//   - error: apperrors.ErrMissingCredentials before any network call when
//     the client is unconfigured, *apperrors.TokenError,
//     *apperrors.QuoteFetchError or *apperrors.ParseError otherwise
func (c *Client) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	if !c.HasCredentials() {
		return model.Quote{}, apperrors.ErrMissingCredentials
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return model.Quote{}, err
	}

	body, err := c.InquirePrice(ctx, token, symbol)
	if err != nil {
		return model.Quote{}, err
	}

	return ParseQuote(symbol, body, c.now())
}

// InquirePrice performs the raw price lookup and returns the response body.
func (c *Client) InquirePrice(ctx context.Context, token, symbol string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("fid_cond_mrkt_div_code", marketDivision)
	params.Set("fid_input_iscd", symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+inquirePricePath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &apperrors.QuoteFetchError{Source: SourceName, Symbol: symbol, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", c.appKey)
	req.Header.Set("appsecret", c.appSecret)
	req.Header.Set("tr_id", inquirePriceTrID)
	req.Header.Set("tr_cont", "N")
	req.Header.Set("custtype", "P")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.QuoteFetchError{Source: SourceName, Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.QuoteFetchError{Source: SourceName, Symbol: symbol, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.QuoteFetchError{Source: SourceName, Symbol: symbol, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
