package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/quote"
)

// FakeSource is a quote.Source returning predefined quotes instead of making
// network calls.
type FakeSource struct {
	name string

	mu     sync.Mutex
	quotes map[string]model.Quote
	errs   map[string]error
	err    error
	delay  time.Duration
	panics bool

	// Calls counts FetchQuote invocations.
	Calls atomic.Int64
}

// NewFakeSource creates a FakeSource with no quotes configured; unknown
// symbols fail.
func NewFakeSource(name string) *FakeSource {
	return &FakeSource{
		name:   name,
		quotes: make(map[string]model.Quote),
		errs:   make(map[string]error),
	}
}

func (f *FakeSource) Name() string { return f.name }

// WithPrice configures a quote for symbol with the given price.
func (f *FakeSource) WithPrice(symbol string, price int64) *FakeSource {
	return f.WithQuote(model.Quote{Symbol: symbol, Name: symbol + " Corp", CurrentPrice: price, PreviousClose: price})
}

// WithQuote configures the quote returned for q.Symbol.
func (f *FakeSource) WithQuote(q model.Quote) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[q.Symbol] = q
	return f
}

// WithSymbolError makes symbol fail with err.
func (f *FakeSource) WithSymbolError(symbol string, err error) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[symbol] = err
	return f
}

// WithError makes every symbol fail with err.
func (f *FakeSource) WithError(err error) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// WithDelay makes FetchQuote wait for d, ignoring its context.
func (f *FakeSource) WithDelay(d time.Duration) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

// Panicking makes FetchQuote panic.
func (f *FakeSource) Panicking() *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panics = true
	return f
}

func (f *FakeSource) FetchQuote(_ context.Context, symbol string) (model.Quote, error) {
	f.Calls.Add(1)

	f.mu.Lock()
	delay, panics, err := f.delay, f.panics, f.err
	symErr, hasSymErr := f.errs[symbol]
	q, ok := f.quotes[symbol]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if panics {
		panic("fake source exploded")
	}
	if err != nil {
		return model.Quote{}, err
	}
	if hasSymErr {
		return model.Quote{}, symErr
	}
	if !ok {
		return model.Quote{}, ErrFakeUnknownSymbol
	}
	return q, nil
}

// NewTestResolver builds a resolver over sources with a short per-source
// timeout.
func NewTestResolver(sources ...quote.Source) *quote.Resolver {
	return quote.NewResolver(zerolog.Nop(), 200*time.Millisecond, sources...)
}

// ResolverFunc adapts a function to service.QuoteResolver.
type ResolverFunc func(ctx context.Context, symbol string) model.Resolution

func (f ResolverFunc) Resolve(ctx context.Context, symbol string) model.Resolution {
	return f(ctx, symbol)
}

// FakeCatalogFetcher serves a fixed listed-issue catalog.
type FakeCatalogFetcher struct {
	mu     sync.Mutex
	issues []model.ListedIssue
	err    error

	// Calls counts FetchListedIssues invocations.
	Calls atomic.Int64
}

// NewFakeCatalogFetcher creates a fetcher returning issues.
func NewFakeCatalogFetcher(issues ...model.ListedIssue) *FakeCatalogFetcher {
	return &FakeCatalogFetcher{issues: issues}
}

// WithError makes every download fail with err.
func (f *FakeCatalogFetcher) WithError(err error) *FakeCatalogFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

func (f *FakeCatalogFetcher) Configured() bool { return true }

func (f *FakeCatalogFetcher) FetchListedIssues(context.Context) ([]model.ListedIssue, error) {
	f.Calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.ListedIssue(nil), f.issues...), nil
}
