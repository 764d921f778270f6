// Package quote resolves a symbol to a price by asking quote sources in
// priority order.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

// DefaultTimeout bounds a single source attempt.
const DefaultTimeout = 30 * time.Second

// Source produces a quote for a symbol or an error.
type Source interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (model.Quote, error)
}

// Resolver tries its sources in order and stops at the first success.
// It never returns an error: when every source fails the result is the
// unresolved sentinel.
type Resolver struct {
	sources []Source
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewResolver creates a Resolver over sources, highest priority first.
func NewResolver(log zerolog.Logger, timeout time.Duration, sources ...Source) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		sources: sources,
		timeout: timeout,
		now:     time.Now,
		log:     log,
	}
}

// Sources returns the names of the configured sources in priority order.
func (r *Resolver) Sources() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns a tagged resolution for symbol. Every attempt is bounded by
// the resolver timeout, so Resolve returns within len(sources) * timeout even
// when a source ignores its context.
func (r *Resolver) Resolve(ctx context.Context, symbol string) model.Resolution {
	symbol = strings.TrimSpace(symbol)
	res := model.Resolution{Symbol: symbol}

	if symbol == "" {
		res.Failures = append(res.Failures, model.SourceFailure{Error: apperrors.ErrInvalidSymbol.Error()})
		res.Quote = model.UnresolvedQuote(symbol, r.now())
		return res
	}

	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			res.Failures = append(res.Failures, model.SourceFailure{Source: src.Name(), Error: err.Error()})
			continue
		}

		q, err := r.attempt(ctx, src, symbol)
		if err != nil {
			r.log.Warn().
				Err(err).
				Str("source", src.Name()).
				Str("symbol", symbol).
				Msg("quote source failed, trying next")
			res.Failures = append(res.Failures, model.SourceFailure{Source: src.Name(), Error: err.Error()})
			continue
		}

		res.Resolved = true
		res.Source = src.Name()
		res.Quote = q
		return res
	}

	r.log.Error().
		Str("symbol", symbol).
		Int("sources", len(r.sources)).
		Msg("all quote sources failed")
	res.Quote = model.UnresolvedQuote(symbol, r.now())
	return res
}

// ResolveQuote returns the resolved quote, or the price-0 sentinel when no
// source could serve symbol.
func (r *Resolver) ResolveQuote(ctx context.Context, symbol string) model.Quote {
	return r.Resolve(ctx, symbol).Quote
}

type attemptResult struct {
	quote model.Quote
	err   error
}

func (r *Resolver) attempt(ctx context.Context, src Source, symbol string) (model.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Buffered so the goroutine can finish after we stop waiting.
	ch := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- attemptResult{err: fmt.Errorf("source panicked: %v", p)}
			}
		}()
		q, err := src.FetchQuote(ctx, symbol)
		ch <- attemptResult{quote: q, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return model.Quote{}, res.err
		}
		return r.normalize(src, symbol, res.quote)
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, err)
		}
		return model.Quote{}, err
	}
}

// normalize rejects sentinel prices and fills fields sources may leave empty.
func (r *Resolver) normalize(src Source, symbol string, q model.Quote) (model.Quote, error) {
	if q.CurrentPrice <= 0 {
		return model.Quote{}, &apperrors.ParseError{Source: src.Name(), Symbol: symbol, Field: "currentPrice", Message: "source returned a non-positive price"}
	}
	q.Symbol = symbol
	if strings.TrimSpace(q.Name) == "" {
		q.Name = symbol
	}
	if q.RetrievedAt.IsZero() {
		q.RetrievedAt = r.now()
	}
	return q, nil
}
