package engine

import "time"

// RunStats counts how a run treated the tasks it read.
type RunStats struct {
	Total   int   // tasks read from the task source
	Checked int   // tasks with an assignee and a usable due date
	Skipped int   // tasks outside the analyzable set
	Deleted int64 // alerts removed by the reset at the start of the run
}

// Report is the outcome of a successful run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Stats     RunStats
	Alerts    []*Alert // in creation order; empty when nothing overlaps
}

// TaskKeys returns the keys of the flagged tasks in creation order.
func (r *Report) TaskKeys() []string {
	keys := make([]string, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		keys = append(keys, a.TaskKey)
	}
	return keys
}
