package storage

import (
	"time"

	"github.com/industy/leaverisk/internal/engine"
)

// RunWriter is the interface for writing risk run history.
// Write() must NEVER block the caller.
type RunWriter interface {
	Write(event *RunEvent)
	Close()
}

// RunEvent is the history record of one triggered run.
type RunEvent struct {
	RunID         string
	Timestamp     time.Time
	Trigger       string // "schedule", "manual" or "once"
	Status        string // "ok" or "failed"
	Error         string
	Shared        bool // joined a run that was already in flight
	TasksTotal    uint32
	TasksChecked  uint32
	TasksSkipped  uint32
	AlertsDeleted uint64
	AlertsCreated uint32
	AlertTaskKeys []string
	DurationMs    float32
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ErrorPreviewLength is the max chars stored in the error column.
const ErrorPreviewLength = 500

// NewRunEvent builds the history record for a run outcome. report is nil
// when the run failed.
func NewRunEvent(trigger string, started time.Time, report *engine.Report, shared bool, err error) *RunEvent {
	e := &RunEvent{
		Timestamp:  started.UTC(),
		Trigger:    trigger,
		Status:     StatusOK,
		Shared:     shared,
		DurationMs: float32(time.Since(started).Microseconds()) / 1000,
	}
	if err != nil {
		e.Status = StatusFailed
		e.Error = TruncateText(err.Error(), ErrorPreviewLength)
		return e
	}

	e.RunID = report.RunID
	e.TasksTotal = uint32(report.Stats.Total)
	e.TasksChecked = uint32(report.Stats.Checked)
	e.TasksSkipped = uint32(report.Stats.Skipped)
	e.AlertsDeleted = uint64(report.Stats.Deleted)
	e.AlertsCreated = uint32(len(report.Alerts))
	e.AlertTaskKeys = report.TaskKeys()
	return e
}

// TruncateText returns the first N characters (runes) of s. It never splits
// a multi-byte UTF-8 character.
func TruncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
