package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
)

// Default schedules, in KST.
const (
	SnapshotSchedule    = "*/10 * * * * *"
	CatalogSchedule     = "0 30 7 * * *"
	TokenWarmupSchedule = "0 50 8 * * MON-FRI"
)

// snapshotSlack is how early a tick may fire and still count as due.
const snapshotSlack = time.Second

// SnapshotRefresher persists fresh prices for stored holdings.
type SnapshotRefresher interface {
	RefreshAll(ctx context.Context) (service.SnapshotSummary, error)
}

// SnapshotJob refreshes holding snapshots at the market cadence. It is
// expected to tick more often than the shortest cadence and skips ticks
// until the cadence for the current time has elapsed.
type SnapshotJob struct {
	refresher SnapshotRefresher
	cadence   market.Cadence
	now       func() time.Time
	log       zerolog.Logger

	mu   sync.Mutex
	last time.Time
}

// NewSnapshotJob creates a SnapshotJob.
func NewSnapshotJob(refresher SnapshotRefresher, cadence market.Cadence, now func() time.Time, log zerolog.Logger) *SnapshotJob {
	if now == nil {
		now = time.Now
	}
	return &SnapshotJob{
		refresher: refresher,
		cadence:   cadence,
		now:       now,
		log:       log.With().Str("job", "snapshot").Logger(),
	}
}

func (j *SnapshotJob) Name() string { return "snapshot" }

// Run refreshes snapshots when due.
func (j *SnapshotJob) Run(ctx context.Context) error {
	now := j.now()

	j.mu.Lock()
	if !j.last.IsZero() && now.Sub(j.last) < j.cadence.Interval(now)-snapshotSlack {
		j.mu.Unlock()
		return nil
	}
	j.last = now
	j.mu.Unlock()

	summary, err := j.refresher.RefreshAll(ctx)
	if err != nil {
		return err
	}
	j.log.Info().
		Int("holdings", summary.Holdings).
		Int("updated", summary.Updated).
		Int("unresolved", summary.Unresolved).
		Int("failed", summary.Failed).
		Bool("market_open", market.IsOpen(now)).
		Msg("Snapshots refreshed")
	return nil
}

// CatalogRefresher reloads the listed-issue catalog.
type CatalogRefresher interface {
	Configured() bool
	Refresh(ctx context.Context, force bool) error
}

// CatalogJob reloads the listed-issue catalog once a day.
type CatalogJob struct {
	catalog CatalogRefresher
}

// NewCatalogJob creates a CatalogJob.
func NewCatalogJob(catalog CatalogRefresher) *CatalogJob {
	return &CatalogJob{catalog: catalog}
}

func (j *CatalogJob) Name() string { return "catalog" }

func (j *CatalogJob) Run(ctx context.Context) error {
	if !j.catalog.Configured() {
		return nil
	}
	return j.catalog.Refresh(ctx, true)
}

// TokenSource issues or returns the day's access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenWarmupJob requests the day's access token before the market opens
// so the first quote of the session does not wait for issuance.
type TokenWarmupJob struct {
	tokens TokenSource
}

// NewTokenWarmupJob creates a TokenWarmupJob.
func NewTokenWarmupJob(tokens TokenSource) *TokenWarmupJob {
	return &TokenWarmupJob{tokens: tokens}
}

func (j *TokenWarmupJob) Name() string { return "token_warmup" }

func (j *TokenWarmupJob) Run(ctx context.Context) error {
	_, err := j.tokens.AccessToken(ctx)
	return err
}
