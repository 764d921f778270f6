package model

import "time"

// Quote is a point-in-time price observation for a symbol.
// CurrentPrice 0 marks a quote that no source could resolve; it is never a
// real market price.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	CurrentPrice  int64     `json:"currentPrice"`
	PreviousClose int64     `json:"previousClose"`
	Change        int64     `json:"change"`
	ChangePercent Rate      `json:"changePercent"`
	RetrievedAt   time.Time `json:"retrievedAt"`
}

// UnresolvedQuote returns the sentinel quote for symbol: price 0, the symbol
// as its name and no change.
func UnresolvedQuote(symbol string, now time.Time) Quote {
	return Quote{
		Symbol:      symbol,
		Name:        symbol,
		RetrievedAt: now,
	}
}

// IsUnresolved reports whether q is the price-0 sentinel.
func (q Quote) IsUnresolved() bool {
	return q.CurrentPrice == 0
}

// SourceFailure records why one quote source could not serve a symbol.
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Resolution is the tagged outcome of resolving a symbol across every source.
// When Resolved is false, Quote is the sentinel and Source is empty.
type Resolution struct {
	Symbol   string          `json:"symbol"`
	Resolved bool            `json:"resolved"`
	Source   string          `json:"source,omitempty"`
	Quote    Quote           `json:"quote"`
	Failures []SourceFailure `json:"failures,omitempty"`
}
