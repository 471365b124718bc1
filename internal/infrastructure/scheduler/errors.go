package scheduler

import "errors"

var (
	// ErrInvalidConfig indicates the scheduler configuration is invalid
	ErrInvalidConfig = errors.New("scheduler: invalid configuration")

	// ErrSchedulerNotRunning indicates an operation requires a running scheduler
	ErrSchedulerNotRunning = errors.New("scheduler: not running")

	// ErrSweepInProgress indicates a manual trigger while a sweep is running
	ErrSweepInProgress = errors.New("scheduler: sweep already in progress")
)
