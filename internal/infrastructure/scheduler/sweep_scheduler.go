package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Sweep Run Types
// ---------------------------------------------------------------------------

// SweepRunStatus represents the status of one reconciliation sweep
type SweepRunStatus string

const (
	SweepRunStatusRunning SweepRunStatus = "RUNNING"
	SweepRunStatusSuccess SweepRunStatus = "SUCCESS"
	SweepRunStatusPartial SweepRunStatus = "PARTIAL"
	SweepRunStatusFailed  SweepRunStatus = "FAILED"
)

// SweepRun records one execution of the reconciliation cycle
type SweepRun struct {
	ID          uuid.UUID      `json:"id"`
	TriggeredBy string         `json:"triggered_by"` // "interval" or "manual"
	Status      SweepRunStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`

	// Cycle results
	Attempted          int `json:"attempted"`
	Synced             int `json:"synced"`
	Failed             int `json:"failed"`
	Skipped            int `json:"skipped"`
	SalesFound         int `json:"sales_found"`
	Reconciled         int `json:"reconciled"`
	EmissionsCompleted int `json:"emissions_completed"`
}

// newSweepRun creates a running sweep run
func newSweepRun(triggeredBy string) *SweepRun {
	return &SweepRun{
		ID:          uuid.New(),
		TriggeredBy: triggeredBy,
		Status:      SweepRunStatusRunning,
		StartedAt:   time.Now(),
	}
}

// complete finalizes the run from its counters and error state
func (r *SweepRun) complete(err error) {
	now := time.Now()
	r.CompletedAt = &now

	switch {
	case err == nil && r.Failed == 0:
		r.Status = SweepRunStatusSuccess
	case r.Synced > 0 || r.SalesFound > 0 || r.Reconciled > 0:
		r.Status = SweepRunStatusPartial
	default:
		r.Status = SweepRunStatusFailed
	}
	if err != nil {
		r.Error = err.Error()
	}
}

// SweepExecutor runs one reconciliation cycle and fills in the run's counters
type SweepExecutor interface {
	Execute(ctx context.Context, run *SweepRun) error
}

// ---------------------------------------------------------------------------
// SweepSchedulerConfig
// ---------------------------------------------------------------------------

// SweepSchedulerConfig holds configuration for the sweep scheduler
type SweepSchedulerConfig struct {
	// Interval between automatic sweeps
	Interval time.Duration
	// SweepTimeout is the maximum time one full cycle can run
	SweepTimeout time.Duration
	// RunOnStart runs one sweep immediately when the scheduler starts
	RunOnStart bool
}

// DefaultSweepSchedulerConfig returns default configuration
func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		Interval:     30 * time.Minute,
		SweepTimeout: 20 * time.Minute,
		RunOnStart:   true,
	}
}

// Validate validates the configuration
func (c *SweepSchedulerConfig) Validate() error {
	if c.Interval < time.Minute {
		return ErrInvalidConfig
	}
	if c.SweepTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SweepScheduler
// ---------------------------------------------------------------------------

// SweepScheduler runs the reconciliation cycle on an interval. Cycles never
// overlap: a manual trigger during a running sweep is rejected, and a tick
// that fires mid-sweep is skipped.
type SweepScheduler struct {
	config   SweepSchedulerConfig
	executor SweepExecutor
	logger   *zap.Logger

	trigger   chan string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  bool

	// Run history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*SweepRun
	maxHistory int
}

// NewSweepScheduler creates a sweep scheduler
func NewSweepScheduler(config SweepSchedulerConfig, executor SweepExecutor, logger *zap.Logger) (*SweepScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SweepScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		trigger:    make(chan string, 1),
		history:    make([]*SweepRun, 0, 50),
		maxHistory: 50,
	}, nil
}

// Start starts the scheduler loop
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Sweep scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("sweep_timeout", s.config.SweepTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep to finish
// or the given context to expire.
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow requests an immediate sweep. It does not wait for the sweep to
// run; the result lands in the history.
func (s *SweepScheduler) TriggerNow() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	if s.sweeping {
		s.mu.Unlock()
		return ErrSweepInProgress
	}
	s.mu.Unlock()

	select {
	case s.trigger <- "manual":
		return nil
	default:
		return ErrSweepInProgress
	}
}

// History returns the most recent sweep runs, newest first
func (s *SweepScheduler) History(limit int) []*SweepRun {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*SweepRun, limit)
	copy(result, s.history[:limit])
	return result
}

// loop drives the interval ticker and manual triggers
func (s *SweepScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.runOnce(ctx, "startup")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, "interval")
		case triggeredBy := <-s.trigger:
			s.runOnce(ctx, triggeredBy)
		}
	}
}

// runOnce executes one reconciliation cycle with the sweep timeout
func (s *SweepScheduler) runOnce(ctx context.Context, triggeredBy string) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.sweeping = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	run := newSweepRun(triggeredBy)
	s.logger.Info("Reconciliation sweep starting",
		zap.String("run_id", run.ID.String()),
		zap.String("triggered_by", triggeredBy),
	)

	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	err := s.executor.Execute(sweepCtx, run)
	run.complete(err)

	if err != nil {
		s.logger.Error("Reconciliation sweep finished with errors",
			zap.String("run_id", run.ID.String()),
			zap.String("status", string(run.Status)),
			zap.Error(err),
		)
	} else {
		s.logger.Info("Reconciliation sweep finished",
			zap.String("run_id", run.ID.String()),
			zap.String("status", string(run.Status)),
			zap.Int("synced", run.Synced),
			zap.Int("failed", run.Failed),
			zap.Int("sales_found", run.SalesFound),
			zap.Int("reconciled", run.Reconciled),
			zap.Int("emissions_completed", run.EmissionsCompleted),
		)
	}

	s.addToHistory(run)
}

// addToHistory prepends a completed run, trimming to the size limit
func (s *SweepScheduler) addToHistory(run *SweepRun) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SweepRun{run}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}
