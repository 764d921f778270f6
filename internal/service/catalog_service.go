package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

const (
	// CatalogRefreshInterval is how long a downloaded catalog stays current.
	CatalogRefreshInterval = 24 * time.Hour
	// catalogRetryInterval spaces out downloads after a failed one.
	catalogRetryInterval = 5 * time.Minute
)

// CatalogFetcher downloads the listed-issue catalog.
type CatalogFetcher interface {
	Configured() bool
	FetchListedIssues(ctx context.Context) ([]model.ListedIssue, error)
}

// CatalogService keeps an in-memory name/code index of listed issues,
// refreshed at most once per CatalogRefreshInterval.
type CatalogService struct {
	fetcher CatalogFetcher
	now     func() time.Time
	log     zerolog.Logger
	group   singleflight.Group

	mu      sync.RWMutex
	issues  []model.ListedIssue
	byCode  map[string]string
	byName  map[string]string
	updated time.Time
	failed  time.Time
}

// NewCatalogService creates an empty CatalogService.
func NewCatalogService(fetcher CatalogFetcher, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		fetcher: fetcher,
		now:     time.Now,
		log:     log,
		byCode:  map[string]string{},
		byName:  map[string]string{},
	}
}

// Configured reports whether the catalog can be downloaded at all.
func (s *CatalogService) Configured() bool {
	return s.fetcher != nil && s.fetcher.Configured()
}

// Refresh downloads the catalog when it is older than the refresh interval,
// or unconditionally when force is set. Concurrent callers share one
// download. On failure the previous catalog is kept.
func (s *CatalogService) Refresh(ctx context.Context, force bool) error {
	if !s.Configured() {
		return apperrors.ErrCatalogUnavailable
	}
	if !force && s.fresh() {
		return nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan("catalog", func() (any, error) {
		issues, err := s.fetcher.FetchListedIssues(shared)
		if err != nil {
			s.mu.Lock()
			s.failed = s.now()
			s.mu.Unlock()
			return nil, err
		}
		s.replace(issues)
		s.log.Info().Int("issues", len(issues)).Msg("listed-issue catalog refreshed")
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LookupCode returns the code of the issue with exactly the given name.
func (s *CatalogService) LookupCode(ctx context.Context, name string) (string, error) {
	s.ensure(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if code, ok := s.byName[strings.TrimSpace(name)]; ok {
		return code, nil
	}
	if len(s.byName) == 0 {
		return "", apperrors.ErrCatalogUnavailable
	}
	return "", apperrors.ErrSymbolNotFound
}

// LookupName returns the name listed for code.
func (s *CatalogService) LookupName(ctx context.Context, code string) (string, bool) {
	s.ensure(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.byCode[code]
	return name, ok
}

// Search returns up to limit issues whose name or code contains q, exact and
// prefix matches first.
func (s *CatalogService) Search(ctx context.Context, q string, limit int) []model.ListedIssue {
	s.ensure(ctx)

	q = strings.TrimSpace(q)
	if q == "" {
		return []model.ListedIssue{}
	}
	upper := strings.ToUpper(q)

	s.mu.RLock()
	matches := []model.ListedIssue{}
	for _, it := range s.issues {
		if strings.Contains(strings.ToUpper(it.Name), upper) || strings.HasPrefix(it.Code, upper) {
			matches = append(matches, it)
		}
	}
	s.mu.RUnlock()

	rank := func(it model.ListedIssue) int {
		switch {
		case it.Name == q || it.Code == upper:
			return 0
		case strings.HasPrefix(it.Name, q):
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return rank(matches[i]) < rank(matches[j]) })

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Stats returns the number of indexed issues and when they were downloaded.
func (s *CatalogService) Stats() (int, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.issues), s.updated
}

func (s *CatalogService) ensure(ctx context.Context) {
	if !s.Configured() {
		return
	}
	if err := s.Refresh(ctx, false); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn().Err(err).Msg("catalog refresh failed, serving previous catalog")
	}
}

func (s *CatalogService) fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	if !s.failed.IsZero() && now.Sub(s.failed) < catalogRetryInterval {
		return true
	}
	return !s.updated.IsZero() && now.Sub(s.updated) < CatalogRefreshInterval
}

func (s *CatalogService) replace(issues []model.ListedIssue) {
	byCode := make(map[string]string, len(issues))
	byName := make(map[string]string, len(issues))
	for _, it := range issues {
		byCode[it.Code] = it.Name
		byName[it.Name] = it.Code
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = issues
	s.byCode = byCode
	s.byName = byName
	s.updated = s.now()
	s.failed = time.Time{}
}
