package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
	"github.com/ndewijer/Yield-Bank-Backend/internal/testutil"
)

var testIssues = []model.ListedIssue{
	{Code: "005930", Name: "삼성전자"},
	{Code: "005935", Name: "삼성전자우"},
	{Code: "028260", Name: "삼성물산"},
	{Code: "000660", Name: "SK하이닉스"},
	{Code: "035420", Name: "NAVER"},
}

// TestCatalogService_Refresh covers download sharing and failure handling.
//
// WHY: the catalog file is large and the upstream is rate limited, so a
// burst of lookups must collapse into one download and a failed download
// must not be retried on every request.
func TestCatalogService_Refresh(t *testing.T) {
	t.Run("concurrent lookups share one download", func(t *testing.T) {
		// Setup
		fetcher := testutil.NewFakeCatalogFetcher(testIssues...)
		svc := service.NewCatalogService(fetcher, zerolog.Nop())

		// Execute
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				svc.LookupName(context.Background(), "005930")
			}()
		}
		wg.Wait()
		svc.LookupName(context.Background(), "000660")

		// Assert
		if calls := fetcher.Calls.Load(); calls != 1 {
			t.Errorf("Expected 1 download, got %d", calls)
		}
		if n, updated := svc.Stats(); n != len(testIssues) || updated.IsZero() {
			t.Errorf("Expected %d issues with update time, got %d at %v", len(testIssues), n, updated)
		}
	})

	t.Run("force downloads again", func(t *testing.T) {
		fetcher := testutil.NewFakeCatalogFetcher(testIssues...)
		svc := service.NewCatalogService(fetcher, zerolog.Nop())

		if err := svc.Refresh(context.Background(), false); err != nil {
			t.Fatalf("Refresh() returned unexpected error: %v", err)
		}
		if err := svc.Refresh(context.Background(), true); err != nil {
			t.Fatalf("Refresh() returned unexpected error: %v", err)
		}

		if calls := fetcher.Calls.Load(); calls != 2 {
			t.Errorf("Expected 2 downloads, got %d", calls)
		}
	})

	t.Run("failed download backs off", func(t *testing.T) {
		// Setup
		fetcher := testutil.NewFakeCatalogFetcher().WithError(errors.New("krx unavailable"))
		svc := service.NewCatalogService(fetcher, zerolog.Nop())

		// Execute
		first := svc.Refresh(context.Background(), false)
		second := svc.Refresh(context.Background(), false)

		// Assert
		if first == nil {
			t.Error("Expected first refresh to fail")
		}
		if second != nil {
			t.Errorf("Expected second refresh to be skipped, got %v", second)
		}
		if calls := fetcher.Calls.Load(); calls != 1 {
			t.Errorf("Expected 1 download, got %d", calls)
		}
	})

	t.Run("failed download keeps the previous catalog", func(t *testing.T) {
		fetcher := testutil.NewFakeCatalogFetcher(testIssues...)
		svc := service.NewCatalogService(fetcher, zerolog.Nop())
		if err := svc.Refresh(context.Background(), false); err != nil {
			t.Fatalf("Refresh() returned unexpected error: %v", err)
		}

		fetcher.WithError(errors.New("krx unavailable"))
		if err := svc.Refresh(context.Background(), true); err == nil {
			t.Fatal("Expected forced refresh to fail")
		}

		code, err := svc.LookupCode(context.Background(), "NAVER")
		if err != nil || code != "035420" {
			t.Errorf("Expected 035420 from previous catalog, got %q (%v)", code, err)
		}
	})

	t.Run("never loaded catalog is unavailable", func(t *testing.T) {
		// Setup
		fetcher := testutil.NewFakeCatalogFetcher().WithError(errors.New("data.go.kr 503"))
		svc := service.NewCatalogService(fetcher, zerolog.Nop())

		// Execute
		_, err := svc.LookupCode(context.Background(), "삼성전자")

		// Assert
		if !errors.Is(err, apperrors.ErrCatalogUnavailable) {
			t.Errorf("Expected ErrCatalogUnavailable, got %v", err)
		}
	})

	t.Run("unconfigured catalog is unavailable", func(t *testing.T) {
		svc := service.NewCatalogService(nil, zerolog.Nop())

		if err := svc.Refresh(context.Background(), true); !errors.Is(err, apperrors.ErrCatalogUnavailable) {
			t.Errorf("Expected ErrCatalogUnavailable from Refresh, got %v", err)
		}
		if _, err := svc.LookupCode(context.Background(), "삼성전자"); !errors.Is(err, apperrors.ErrCatalogUnavailable) {
			t.Errorf("Expected ErrCatalogUnavailable from LookupCode, got %v", err)
		}
	})
}

func TestCatalogService_Lookup(t *testing.T) {
	ctx := context.Background()
	svc := service.NewCatalogService(testutil.NewFakeCatalogFetcher(testIssues...), zerolog.Nop())

	t.Run("code by exact name", func(t *testing.T) {
		code, err := svc.LookupCode(ctx, " 삼성전자 ")
		if err != nil {
			t.Fatalf("LookupCode() returned unexpected error: %v", err)
		}
		if code != "005930" {
			t.Errorf("Expected 005930, got %s", code)
		}
	})

	t.Run("partial name is not a match", func(t *testing.T) {
		_, err := svc.LookupCode(ctx, "삼성")
		if !errors.Is(err, apperrors.ErrSymbolNotFound) {
			t.Errorf("Expected ErrSymbolNotFound, got %v", err)
		}
	})

	t.Run("name by code", func(t *testing.T) {
		name, ok := svc.LookupName(ctx, "000660")
		if !ok || name != "SK하이닉스" {
			t.Errorf("Expected SK하이닉스, got %q (%v)", name, ok)
		}
		if _, ok := svc.LookupName(ctx, "999999"); ok {
			t.Error("Expected unknown code to miss")
		}
	})
}

func TestCatalogService_Search(t *testing.T) {
	ctx := context.Background()
	svc := service.NewCatalogService(testutil.NewFakeCatalogFetcher(testIssues...), zerolog.Nop())

	tests := []struct {
		name  string
		q     string
		limit int
		want  []string
	}{
		{name: "exact name ranks first", q: "삼성전자", want: []string{"005930", "005935"}},
		{name: "substring in catalog order", q: "삼성", want: []string{"005930", "005935", "028260"}},
		{name: "limit truncates", q: "삼성", limit: 2, want: []string{"005930", "005935"}},
		{name: "code prefix", q: "0354", want: []string{"035420"}},
		{name: "case insensitive", q: "naver", want: []string{"035420"}},
		{name: "code exact", q: "000660", want: []string{"000660"}},
		{name: "blank query", q: "  ", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Search(ctx, tt.q, tt.limit)

			codes := make([]string, len(got))
			for i, it := range got {
				codes[i] = it.Code
			}
			if len(codes) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, codes)
			}
			for i := range codes {
				if codes[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, codes)
					break
				}
			}
		})
	}
}
