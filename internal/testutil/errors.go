package testutil

import "errors"

// ErrFakeUnknownSymbol is returned by FakeSource for unconfigured symbols.
var ErrFakeUnknownSymbol = errors.New("fake source: unknown symbol")
