package scheduler

import "context"

// Job is a unit of work executed by the worker pool. Sweeps cover every
// user in one run; summary jobs are scoped to a single user.
type Job interface {
	// Execute runs the job. Context should be respected for cancellation
	// and timeouts.
	Execute(ctx context.Context) error

	// UserID returns the user this job is scoped to, or "all" for sweeps.
	// Used for logging and tracking.
	UserID() string

	// Description returns a human-readable description of the job.
	Description() string
}
