// internal/app/system/sweeper/sweeper.go

// Package sweeper implements the balance-reset sweep: any student whose last
// reset is older than the staleness window gets balance zeroed in one bulk
// update. The sweep is self-throttling and never runs twice concurrently, so
// handlers can trigger it opportunistically before ordinary reads and writes.
package sweeper

import (
	"context"
	"sync"
	"time"

	studentstore "github.com/dalemusser/enrollhub/internal/app/store/students"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Floors keep misconfiguration from turning the sweep into a hot loop.
const (
	MinGapFloor        = 10 * time.Second
	DefaultMinGap      = 5 * time.Minute
	DefaultStaleAfter  = 30 * 24 * time.Hour
	IntervalFloor      = 60 * time.Second
	DefaultRunInterval = 1 * time.Hour
)

// Outcome says what a MaybeRun call did.
type Outcome string

const (
	OutcomeRan        Outcome = "ran"
	OutcomeThrottled  Outcome = "skipped: throttled"
	OutcomeInProgress Outcome = "skipped: in_progress"
)

// Result reports one MaybeRun call. Err is informational for forced callers
// (the status endpoint); opportunistic triggers ignore the whole Result.
type Result struct {
	Outcome  Outcome `json:"outcome"`
	Matched  int64   `json:"matched"`
	Modified int64   `json:"modified"`
	Err      error   `json:"-"`
}

// Sweeper owns the scheduler state (running flag, last-run timestamp) behind
// a mutex, so concurrent opportunistic triggers cannot both pass the checks.
// It is injected as a dependency, never package state.
type Sweeper struct {
	students   *studentstore.Store
	log        *zap.Logger
	staleAfter time.Duration
	minGap     time.Duration
	now        func() time.Time

	mu        sync.Mutex
	running   bool
	lastRunAt time.Time
}

// New builds a Sweeper. Zero durations take the defaults; minGap is clamped
// to MinGapFloor.
func New(db *mongo.Database, logger *zap.Logger, staleAfter, minGap time.Duration) *Sweeper {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if minGap <= 0 {
		minGap = DefaultMinGap
	}
	if minGap < MinGapFloor {
		minGap = MinGapFloor
	}
	return &Sweeper{
		students:   studentstore.New(db),
		log:        logger,
		staleAfter: staleAfter,
		minGap:     minGap,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Tests use this to step through the
// throttle window deterministically.
func (s *Sweeper) SetClock(now func() time.Time) { s.now = now }

// LastRunAt returns when the last sweep started.
func (s *Sweeper) LastRunAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}

// MaybeRun performs one sweep unless throttled or already running. The
// throttle is skipped when force is true; the overlap check never is.
// lastRunAt is stamped before the bulk write so a failed or slow sweep does
// not cause an immediate retry storm. Sweep errors are logged, never
// propagated: a request that triggered the check in passing must not fail
// because the sweep did.
func (s *Sweeper) MaybeRun(ctx context.Context, force bool) Result {
	s.mu.Lock()
	now := s.now()
	if !force && !s.lastRunAt.IsZero() && now.Sub(s.lastRunAt) < s.minGap {
		s.mu.Unlock()
		return Result{Outcome: OutcomeThrottled}
	}
	if s.running {
		s.mu.Unlock()
		return Result{Outcome: OutcomeInProgress}
	}
	s.running = true
	s.lastRunAt = now
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	runID := uuid.NewString()
	cutoff := now.Add(-s.staleAfter)

	matched, modified, err := s.students.ResetStaleBalances(ctx, cutoff, now)
	if err != nil {
		s.log.Error("balance sweep failed",
			zap.String("run_id", runID),
			zap.Time("cutoff", cutoff),
			zap.Error(err))
		return Result{Outcome: OutcomeRan, Err: err}
	}

	if modified > 0 {
		s.log.Info("balance sweep reset stale balances",
			zap.String("run_id", runID),
			zap.Int64("matched", matched),
			zap.Int64("modified", modified))
	}
	return Result{Outcome: OutcomeRan, Matched: matched, Modified: modified}
}
