package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	unknownTaskKey = "UNKNOWN"
	untitledTask   = "No title"
)

// Matcher reconciles tasks against leave intervals and regenerates the
// risk store on every run.
//
// A run deletes every stored alert before repopulating, so it is neither
// incremental nor safe to run concurrently with itself. Wrap it in a Guard
// when more than one trigger can fire.
type Matcher struct {
	tasks  TaskSource
	leaves LeaveSource
	risks  RiskSink
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewMatcher creates a Matcher over the given stores.
func NewMatcher(tasks TaskSource, leaves LeaveSource, risks RiskSink, logger *zap.Logger) *Matcher {
	return &Matcher{
		tasks:  tasks,
		leaves: leaves,
		risks:  risks,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// skipReason explains why a task was left out of the analyzable set.
type skipReason string

const (
	skipNone        skipReason = ""
	skipNoAssignee  skipReason = "no assignee email"
	skipNoDueDate   skipReason = "no due date"
	skipInvalidDate skipReason = "invalid due date"
)

// Run performs one full pass: reset the risk store, evaluate every task, and
// persist one alert per task whose due instant falls inside a leave of its
// assignee. Store failures abort the run; the reset may already have been
// applied when that happens.
func (m *Matcher) Run(ctx context.Context) (*Report, error) {
	started := m.now()
	report := &Report{
		RunID:     m.newID(),
		StartedAt: started,
	}

	deleted, err := m.risks.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run: reset risk store: %w", err)
	}
	report.Stats.Deleted = deleted
	m.logger.Info("cleared existing risk alerts",
		zap.String("run_id", report.RunID),
		zap.Int64("deleted", deleted),
	)

	for task, err := range m.tasks.Tasks(ctx) {
		if err != nil {
			return nil, fmt.Errorf("Run: read tasks: %w", err)
		}
		report.Stats.Total++

		alert, reason, err := m.evaluate(ctx, report.RunID, task)
		if err != nil {
			return nil, fmt.Errorf("Run: task %s: %w", taskKey(task), err)
		}
		if reason != skipNone {
			report.Stats.Skipped++
			m.logger.Debug("skipping task",
				zap.String("task_key", taskKey(task)),
				zap.String("reason", string(reason)),
			)
			continue
		}
		report.Stats.Checked++
		if alert == nil {
			continue
		}

		if err := m.risks.Insert(ctx, alert); err != nil {
			return nil, fmt.Errorf("Run: insert alert for %s: %w", alert.TaskKey, err)
		}
		report.Alerts = append(report.Alerts, alert)
		m.logger.Info("created risk alert",
			zap.String("task_key", alert.TaskKey),
			zap.String("assignee", alert.Assignee),
			zap.Time("due", alert.DueAt),
			zap.Time("leave_start", alert.LeaveStart),
			zap.Time("leave_end", alert.LeaveEnd),
		)
	}

	report.Duration = m.now().Sub(started)
	m.logger.Info("risk analysis complete",
		zap.String("run_id", report.RunID),
		zap.Int("total", report.Stats.Total),
		zap.Int("checked", report.Stats.Checked),
		zap.Int("skipped", report.Stats.Skipped),
		zap.Int("alerts", len(report.Alerts)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// evaluate decides a single task. It returns a skip reason for tasks outside
// the analyzable set, a nil alert when the task does not overlap a leave, and
// an error only when the leave store itself fails.
func (m *Matcher) evaluate(ctx context.Context, runID string, task Task) (*Alert, skipReason, error) {
	email := NormalizeEmail(task.AssigneeEmail)
	if email == "" {
		return nil, skipNoAssignee, nil
	}

	due, ok, err := NormalizeDue(task.Due)
	if errors.Is(err, ErrInvalidDue) {
		return nil, skipInvalidDate, nil
	}
	if !ok {
		return nil, skipNoDueDate, nil
	}

	leave, err := m.leaves.FindCovering(ctx, email, due)
	if err != nil {
		return nil, skipNone, fmt.Errorf("find covering leave: %w", err)
	}
	if leave == nil {
		m.logNoOverlap(ctx, task, email, due)
		return nil, skipNone, nil
	}

	title := task.Summary
	if title == "" {
		title = untitledTask
	}
	return &Alert{
		ID:         m.newID(),
		RunID:      runID,
		TaskKey:    taskKey(task),
		TaskTitle:  title,
		Assignee:   email,
		DueAt:      due,
		LeaveStart: leave.Start,
		LeaveEnd:   leave.End,
		Level:      RiskLevelHigh,
		Status:     StatusOpen,
		CreatedAt:  m.now().UTC(),
	}, skipNone, nil
}

// logNoOverlap records how many leaves the assignee has at all, which is the
// first thing to check when an expected alert is missing. The extra query
// only runs with debug logging enabled.
func (m *Matcher) logNoOverlap(ctx context.Context, task Task, email string, due time.Time) {
	if ce := m.logger.Check(zap.DebugLevel, "no overlapping leave"); ce != nil {
		n, err := m.leaves.CountForEmployee(ctx, email)
		if err != nil {
			ce.Write(zap.String("task_key", taskKey(task)), zap.Error(err))
			return
		}
		ce.Write(
			zap.String("task_key", taskKey(task)),
			zap.String("assignee", email),
			zap.Time("due", due),
			zap.Int("leave_records", n),
		)
	}
}

func taskKey(t Task) string {
	if t.Key == "" {
		return unknownTaskKey
	}
	return t.Key
}
