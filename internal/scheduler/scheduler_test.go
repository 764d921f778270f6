package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Yield-Bank-Backend/internal/market"
	"github.com/ndewijer/Yield-Bank-Backend/internal/scheduler"
	"github.com/ndewijer/Yield-Bank-Backend/internal/service"
)

type countingRefresher struct {
	calls atomic.Int64
	err   error
}

func (r *countingRefresher) RefreshAll(context.Context) (service.SnapshotSummary, error) {
	r.calls.Add(1)
	return service.SnapshotSummary{Holdings: 1, Updated: 1}, r.err
}

type stubCatalog struct {
	configured bool
	forced     []bool
}

func (c *stubCatalog) Configured() bool { return c.configured }

func (c *stubCatalog) Refresh(_ context.Context, force bool) error {
	c.forced = append(c.forced, force)
	return nil
}

type stubTokens struct{ err error }

func (s stubTokens) AccessToken(context.Context) (string, error) { return "tok", s.err }

// clock returns a controllable time source starting at start.
func clock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

// TestSnapshotJob_Run verifies cadence gating of the snapshot job.
//
// WHY: the job ticks every few seconds; without gating it would hit the
// quote sources far more often than the market cadence allows.
func TestSnapshotJob_Run(t *testing.T) {
	cadence := market.Cadence{Open: 10 * time.Second, Closed: 5 * time.Minute}
	// Wednesday 10:00 KST, market open.
	open := time.Date(2026, 10, 14, 10, 0, 0, 0, market.Location())
	// Wednesday 20:00 KST, market closed.
	closed := time.Date(2026, 10, 14, 20, 0, 0, 0, market.Location())

	t.Run("first tick always runs", func(t *testing.T) {
		// Setup
		ref := &countingRefresher{}
		now, _ := clock(closed)
		job := scheduler.NewSnapshotJob(ref, cadence, now, zerolog.Nop())

		// Execute
		err := job.Run(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("Run() returned unexpected error: %v", err)
		}
		if ref.calls.Load() != 1 {
			t.Errorf("Expected 1 refresh, got %d", ref.calls.Load())
		}
	})

	t.Run("open market refreshes every open interval", func(t *testing.T) {
		// Setup
		ref := &countingRefresher{}
		now, advance := clock(open)
		job := scheduler.NewSnapshotJob(ref, cadence, now, zerolog.Nop())

		// Execute
		_ = job.Run(context.Background())
		advance(5 * time.Second)
		_ = job.Run(context.Background())
		advance(5 * time.Second)
		_ = job.Run(context.Background())

		// Assert
		if ref.calls.Load() != 2 {
			t.Errorf("Expected 2 refreshes, got %d", ref.calls.Load())
		}
	})

	t.Run("early tick within slack still runs", func(t *testing.T) {
		// Setup
		ref := &countingRefresher{}
		now, advance := clock(open)
		job := scheduler.NewSnapshotJob(ref, cadence, now, zerolog.Nop())

		// Execute
		_ = job.Run(context.Background())
		advance(9998 * time.Millisecond)
		_ = job.Run(context.Background())
		advance(10003 * time.Millisecond)
		_ = job.Run(context.Background())

		// Assert
		if ref.calls.Load() != 3 {
			t.Errorf("Expected 3 refreshes, got %d", ref.calls.Load())
		}
	})

	t.Run("closed market waits for the closed interval", func(t *testing.T) {
		// Setup
		ref := &countingRefresher{}
		now, advance := clock(closed)
		job := scheduler.NewSnapshotJob(ref, cadence, now, zerolog.Nop())

		// Execute
		_ = job.Run(context.Background())
		advance(time.Minute)
		_ = job.Run(context.Background())
		advance(4 * time.Minute)
		_ = job.Run(context.Background())

		// Assert
		if ref.calls.Load() != 2 {
			t.Errorf("Expected 2 refreshes, got %d", ref.calls.Load())
		}
	})

	t.Run("refresh error is returned", func(t *testing.T) {
		// Setup
		ref := &countingRefresher{err: errors.New("db down")}
		now, _ := clock(open)
		job := scheduler.NewSnapshotJob(ref, cadence, now, zerolog.Nop())

		// Execute
		err := job.Run(context.Background())

		// Assert
		if err == nil {
			t.Fatal("Expected error, got nil")
		}
	})
}

// TestCatalogJob_Run verifies the catalog job forces a reload only when
// the catalog is configured.
//
// WHY: without an API key every reload would fail and fill the log.
func TestCatalogJob_Run(t *testing.T) {
	t.Run("unconfigured catalog is skipped", func(t *testing.T) {
		cat := &stubCatalog{}
		if err := scheduler.NewCatalogJob(cat).Run(context.Background()); err != nil {
			t.Fatalf("Run() returned unexpected error: %v", err)
		}
		if len(cat.forced) != 0 {
			t.Errorf("Expected no refresh, got %d", len(cat.forced))
		}
	})

	t.Run("configured catalog is force refreshed", func(t *testing.T) {
		cat := &stubCatalog{configured: true}
		if err := scheduler.NewCatalogJob(cat).Run(context.Background()); err != nil {
			t.Fatalf("Run() returned unexpected error: %v", err)
		}
		if len(cat.forced) != 1 || !cat.forced[0] {
			t.Errorf("Expected one forced refresh, got %v", cat.forced)
		}
	})
}

// TestScheduler verifies job registration and immediate runs.
func TestScheduler(t *testing.T) {
	t.Run("invalid schedule is rejected", func(t *testing.T) {
		s := scheduler.New(zerolog.Nop())
		if err := s.AddJob("not a schedule", scheduler.NewTokenWarmupJob(stubTokens{})); err == nil {
			t.Error("Expected error for invalid schedule, got nil")
		}
	})

	t.Run("default schedules parse", func(t *testing.T) {
		s := scheduler.New(zerolog.Nop())
		for _, spec := range []string{scheduler.SnapshotSchedule, scheduler.CatalogSchedule, scheduler.TokenWarmupSchedule} {
			if err := s.AddJob(spec, scheduler.NewTokenWarmupJob(stubTokens{})); err != nil {
				t.Errorf("AddJob(%q) returned unexpected error: %v", spec, err)
			}
		}
	})

	t.Run("RunNow returns the job error", func(t *testing.T) {
		s := scheduler.New(zerolog.Nop())
		s.Start()
		defer s.Stop()

		want := errors.New("rate limited")
		err := s.RunNow(scheduler.NewTokenWarmupJob(stubTokens{err: want}))
		if !errors.Is(err, want) {
			t.Errorf("Expected %v, got %v", want, err)
		}
	})
}
