package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/repository"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
)

// NewTestReconcileService wires a ReconcileService over db and resolver.
func NewTestReconcileService(t *testing.T, db *sql.DB, resolver service.QuoteResolver) *service.ReconcileService {
	t.Helper()

	return service.NewReconcileService(
		repository.NewHoldingRepository(db),
		resolver,
		0,
		zerolog.Nop(),
	)
}

// NewTestHoldingService wires a HoldingService over db and resolver. catalog
// may be nil.
func NewTestHoldingService(t *testing.T, db *sql.DB, resolver service.QuoteResolver, catalog *service.CatalogService) *service.HoldingService {
	t.Helper()

	return service.NewHoldingService(
		repository.NewHoldingRepository(db),
		resolver,
		catalog,
		zerolog.Nop(),
	)
}

// NewTestSnapshotService wires a SnapshotService over db and resolver.
func NewTestSnapshotService(t *testing.T, db *sql.DB, resolver service.QuoteResolver) *service.SnapshotService {
	t.Helper()

	return service.NewSnapshotService(
		repository.NewHoldingRepository(db),
		NewTestReconcileService(t, db, resolver),
		zerolog.Nop(),
	)
}

// NewTestSystemService wires a SystemService with every feature off.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, map[string]bool{model.FeatureNaver: true})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a random six digit exchange code.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol()
//	// Returns: "381920"
func MakeSymbol() string {
	return randomFrom("0123456789", 6)
}

// MakeHoldingName generates a unique holding name for testing.
//
// Example usage:
//
//	name := testutil.MakeHoldingName("Tech")
//	// Returns: "Tech ABC123"
func MakeHoldingName(base string) string {
	if base == "" {
		base = "Holding"
	}
	return base + " " + randomFrom("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", 6)
}

// randomFrom generates a random string of length drawn from charset.
func randomFrom(charset string, length int) string {
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
