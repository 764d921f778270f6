package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrHoldingNotFound indicates that a holding with the given ID does not exist
	// or is not owned by the caller.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrSymbolNotFound indicates that a catalog lookup returned no results.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrTokenNotFound indicates that no cached access token exists for an endpoint.
	ErrTokenNotFound = errors.New("access token not found")
)

// Upstream errors describe failures talking to quote providers. They never
// escape the quote resolver; they are logged and the next source is tried.
var (
	// ErrMissingCredentials indicates the provider app key or secret is not configured.
	ErrMissingCredentials = errors.New("provider credentials are not configured")

	// ErrTokenIssuance is the sentinel matched by every TokenError.
	ErrTokenIssuance = errors.New("access token issuance failed")

	// ErrTokenRateLimited indicates the issuer refused a new token because one
	// was requested less than a minute ago.
	ErrTokenRateLimited = errors.New("access token issuance rate limited")

	// ErrQuoteFetch is the sentinel matched by every QuoteFetchError.
	ErrQuoteFetch = errors.New("quote fetch failed")

	// ErrParse is the sentinel matched by every ParseError.
	ErrParse = errors.New("quote parse failed")

	// ErrUnresolved indicates that every configured quote source failed.
	ErrUnresolved = errors.New("quote unresolved")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidSymbol indicates a symbol that is not a 6 character exchange code.
	ErrInvalidSymbol = errors.New("symbol must be a 6 character exchange code")

	// ErrCatalogUnavailable indicates the listed-issue catalog has not been configured.
	ErrCatalogUnavailable = errors.New("listed-issue catalog is not available")

	// ErrUnauthorized indicates a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
)

// TokenError reports a failed access-token request.
type TokenError struct {
	Endpoint string
	Status   int
	Code     string
	Message  string
	Err      error
}

func (e *TokenError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "access token request to %s failed", e.Endpoint)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TokenError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTokenIssuance) match any TokenError.
func (e *TokenError) Is(target error) bool { return target == ErrTokenIssuance }

// QuoteFetchError reports a transport failure or a non-success HTTP status
// from a quote source.
type QuoteFetchError struct {
	Source string
	Symbol string
	Status int
	Err    error
}

func (e *QuoteFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: fetch %s: %v", e.Source, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s: fetch %s: unexpected status %d", e.Source, e.Symbol, e.Status)
}

func (e *QuoteFetchError) Unwrap() error { return e.Err }

func (e *QuoteFetchError) Is(target error) bool { return target == ErrQuoteFetch }

// ParseError reports a response from which a usable quote could not be read.
// Code and Message carry the provider's own status when it reported one.
type ParseError struct {
	Source  string
	Symbol  string
	Field   string
	Code    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: parse %s: provider error %s: %s", e.Source, e.Symbol, e.Code, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: parse %s: %s: %s", e.Source, e.Symbol, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: parse %s: %s", e.Source, e.Symbol, e.Message)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
