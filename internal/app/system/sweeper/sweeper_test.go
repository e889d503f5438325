package sweeper_test

import (
	"testing"
	"time"

	studentstore "github.com/dalemusser/enrollhub/internal/app/store/students"
	"github.com/dalemusser/enrollhub/internal/app/system/sweeper"
	"github.com/dalemusser/enrollhub/internal/testutil"
	"go.uber.org/zap"
)

func TestSweeper_ResetsOnlyStaleBalances(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	stale := fixtures.CreateStudentWithBalance(ctx, "Stale", 120, now.Add(-31*24*time.Hour))
	fresh := fixtures.CreateStudentWithBalance(ctx, "Fresh", 80, now.Add(-2*24*time.Hour))

	s := sweeper.New(db, zap.NewNop(), 30*24*time.Hour, time.Minute)
	res := s.MaybeRun(ctx, true)
	if res.Outcome != sweeper.OutcomeRan {
		t.Fatalf("Outcome: got %q, want %q", res.Outcome, sweeper.OutcomeRan)
	}
	if res.Err != nil {
		t.Fatalf("sweep error: %v", res.Err)
	}
	if res.Modified != 1 {
		t.Errorf("Modified: got %d, want 1", res.Modified)
	}

	store := studentstore.New(db)
	got, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Balance != 0 {
		t.Errorf("stale balance: got %d, want 0", got.Balance)
	}

	got, err = store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Balance != 80 {
		t.Errorf("fresh balance: got %d, want 80 (untouched)", got.Balance)
	}
}

func TestSweeper_Throttle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s := sweeper.New(db, zap.NewNop(), 30*24*time.Hour, 5*time.Minute)
	s.SetClock(func() time.Time { return clock })

	// First opportunistic trigger runs: there is no previous run to throttle
	// against.
	if res := s.MaybeRun(ctx, false); res.Outcome != sweeper.OutcomeRan {
		t.Fatalf("first call: got %q, want %q", res.Outcome, sweeper.OutcomeRan)
	}
	if !s.LastRunAt().Equal(base) {
		t.Errorf("LastRunAt: got %v, want %v", s.LastRunAt(), base)
	}

	// Inside the gap: throttled.
	clock = base.Add(3 * time.Minute)
	if res := s.MaybeRun(ctx, false); res.Outcome != sweeper.OutcomeThrottled {
		t.Errorf("inside gap: got %q, want %q", res.Outcome, sweeper.OutcomeThrottled)
	}
	if !s.LastRunAt().Equal(base) {
		t.Errorf("throttled call must not move LastRunAt, got %v", s.LastRunAt())
	}

	// Force bypasses the throttle.
	if res := s.MaybeRun(ctx, true); res.Outcome != sweeper.OutcomeRan {
		t.Errorf("forced inside gap: got %q, want %q", res.Outcome, sweeper.OutcomeRan)
	}

	// Past the gap from the forced run: runs again unforced.
	clock = clock.Add(6 * time.Minute)
	if res := s.MaybeRun(ctx, false); res.Outcome != sweeper.OutcomeRan {
		t.Errorf("past gap: got %q, want %q", res.Outcome, sweeper.OutcomeRan)
	}
}

func TestSweeper_ClampsMinGapFloor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	// Configured gap of one second is below the floor and gets clamped.
	s := sweeper.New(db, zap.NewNop(), 30*24*time.Hour, time.Second)
	s.SetClock(func() time.Time { return clock })

	if res := s.MaybeRun(ctx, false); res.Outcome != sweeper.OutcomeRan {
		t.Fatalf("first call: got %q, want %q", res.Outcome, sweeper.OutcomeRan)
	}

	clock = base.Add(5 * time.Second)
	if res := s.MaybeRun(ctx, false); res.Outcome != sweeper.OutcomeThrottled {
		t.Errorf("five seconds after a run: got %q, want %q", res.Outcome, sweeper.OutcomeThrottled)
	}

	clock = base.Add(sweeper.MinGapFloor)
	if res := s.MaybeRun(ctx, false); res.Outcome != sweeper.OutcomeRan {
		t.Errorf("at the floor: got %q, want %q", res.Outcome, sweeper.OutcomeRan)
	}
}

func TestSweeper_SecondRunFindsNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	fixtures.CreateStudentWithBalance(ctx, "Once Stale", 40, now.Add(-40*24*time.Hour))

	s := sweeper.New(db, zap.NewNop(), 30*24*time.Hour, time.Minute)
	if res := s.MaybeRun(ctx, true); res.Modified != 1 {
		t.Fatalf("first sweep Modified: got %d, want 1", res.Modified)
	}
	// The reset stamp was refreshed, so an immediate re-run matches nothing.
	if res := s.MaybeRun(ctx, true); res.Modified != 0 {
		t.Errorf("second sweep Modified: got %d, want 0", res.Modified)
	}
}
