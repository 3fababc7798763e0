package engine

import (
	"context"
	"iter"
	"time"
)

// TaskSource yields every task in the task store. No filtering is done by
// the source; the matcher decides which tasks are analyzable.
type TaskSource interface {
	// Tasks returns a lazy sequence. A non-nil error ends the sequence.
	Tasks(ctx context.Context) iter.Seq2[Task, error]
}

// LeaveSource answers point queries against the leave store.
type LeaveSource interface {
	// FindCovering returns the first interval for the normalized email with
	// Start <= at <= End, or nil if there is none.
	FindCovering(ctx context.Context, email string, at time.Time) (*LeaveInterval, error)

	// CountForEmployee returns how many intervals exist for the normalized email.
	CountForEmployee(ctx context.Context, email string) (int, error)
}

// RiskSink receives the alerts of a run.
type RiskSink interface {
	// DeleteAll removes every stored alert and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)

	Insert(ctx context.Context, alert *Alert) error
}

// RiskStore is a RiskSink that can also be read back, in insertion order.
type RiskStore interface {
	RiskSink
	ListAlerts(ctx context.Context) ([]*Alert, error)
}
