package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
)

// rateLimitCode is returned when a token is requested more than once a minute.
const rateLimitCode = "EGW00133"

// TokenCache stores at most one access token per (endpoint, day).
type TokenCache interface {
	Get(ctx context.Context, endpoint, day string) (string, bool, error)
	Set(ctx context.Context, endpoint, day, token string) error
	// Latest returns the newest token for endpoint regardless of its day.
	Latest(ctx context.Context, endpoint string) (string, bool, error)
}

// MemoryTokenCache keeps the latest token per endpoint in process memory.
type MemoryTokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
}

type cachedToken struct {
	day   string
	token string
}

// NewMemoryTokenCache returns an empty cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]cachedToken)}
}

func (c *MemoryTokenCache) Get(_ context.Context, endpoint, day string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[endpoint]
	if !ok || t.day != day {
		return "", false, nil
	}
	return t.token, true, nil
}

func (c *MemoryTokenCache) Set(_ context.Context, endpoint, day, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[endpoint] = cachedToken{day: day, token: token}
	return nil
}

func (c *MemoryTokenCache) Latest(_ context.Context, endpoint string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[endpoint]
	return t.token, ok, nil
}

// TokenProvider hands out the day's access token for one endpoint, issuing a
// new one at most once per day. Concurrent misses share a single request.
type TokenProvider struct {
	httpClient *http.Client
	endpoint   string
	appKey     string
	appSecret  string
	cache      TokenCache
	timeout    time.Duration
	now        func() time.Time
	log        zerolog.Logger
	group      singleflight.Group
}

// NewTokenProvider creates a TokenProvider for the given endpoint.
//
// Parameters:
//   - httpClient: client used for the issuance request
//   - endpoint: base URL of the OpenAPI, also the cache key
//   - appKey, appSecret: application credentials
//   - cache: where issued tokens live between calls
//   - timeout: bound on a single issuance request
//   - now: clock deciding the calendar day
func NewTokenProvider(httpClient *http.Client, endpoint, appKey, appSecret string, cache TokenCache, timeout time.Duration, now func() time.Time, log zerolog.Logger) *TokenProvider {
	if now == nil {
		now = time.Now
	}
	return &TokenProvider{
		httpClient: httpClient,
		endpoint:   endpoint,
		appKey:     appKey,
		appSecret:  appSecret,
		cache:      cache,
		timeout:    timeout,
		now:        now,
		log:        log,
	}
}

// AccessToken returns today's token for the endpoint.
//
// A cached token for today is returned without any network call. Otherwise a
// token is issued and cached. When the issuer rejects the request because a
// token was issued less than a minute ago, the newest cached token is
// returned even if it belongs to an earlier day.
//
// Returns:
//   - string: the bearer token
//   - error: *apperrors.TokenError when issuance fails with no fallback, or
//     ctx.Err() when the caller gives up first
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	day := market.Today(p.now())

	token, ok, err := p.cache.Get(ctx, p.endpoint, day)
	if err != nil {
		p.log.Warn().Err(err).Msg("token cache read failed")
	} else if ok {
		return token, nil
	}

	// The fill is shared, so it must outlive whichever caller started it.
	fillCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(p.endpoint, func() (any, error) {
		return p.fill(fillCtx, day)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *TokenProvider) fill(ctx context.Context, day string) (string, error) {
	// Another fill may have finished between our cache miss and now.
	if token, ok, err := p.cache.Get(ctx, p.endpoint, day); err == nil && ok {
		return token, nil
	}

	issueCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.issue(issueCtx)
	if errors.Is(err, apperrors.ErrTokenRateLimited) {
		latest, ok, lerr := p.cache.Latest(ctx, p.endpoint)
		if lerr == nil && ok {
			p.log.Warn().Str("endpoint", p.endpoint).Msg("token issuance rate limited, reusing cached token")
			return latest, nil
		}
		return "", err
	}
	if err != nil {
		return "", err
	}

	if err := p.cache.Set(ctx, p.endpoint, day, token); err != nil {
		p.log.Warn().Err(err).Msg("token cache write failed")
	}
	p.log.Info().Str("endpoint", p.endpoint).Str("day", day).Msg("issued access token")
	return token, nil
}

func (p *TokenProvider) issue(ctx context.Context) (string, error) {
	payload, err := json.Marshal(tokenRequest{
		GrantType: "client_credentials",
		AppKey:    p.appKey,
		AppSecret: p.appSecret,
	})
	if err != nil {
		return "", &apperrors.TokenError{Endpoint: p.endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/oauth2/tokenP", bytes.NewReader(payload))
	if err != nil {
		return "", &apperrors.TokenError{Endpoint: p.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &apperrors.TokenError{Endpoint: p.endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &apperrors.TokenError{Endpoint: p.endpoint, Status: resp.StatusCode, Err: err}
	}

	var parsed tokenResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if parsed.ErrorCode == rateLimitCode {
		return "", &apperrors.TokenError{
			Endpoint: p.endpoint,
			Status:   resp.StatusCode,
			Code:     parsed.ErrorCode,
			Message:  parsed.ErrorDescription,
			Err:      apperrors.ErrTokenRateLimited,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apperrors.TokenError{
			Endpoint: p.endpoint,
			Status:   resp.StatusCode,
			Code:     parsed.ErrorCode,
			Message:  parsed.ErrorDescription,
		}
	}
	if decodeErr != nil {
		return "", &apperrors.TokenError{Endpoint: p.endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if parsed.AccessToken == "" {
		return "", &apperrors.TokenError{Endpoint: p.endpoint, Status: resp.StatusCode, Message: "response carried no access_token"}
	}
	return parsed.AccessToken, nil
}
