package store

import (
	"context"
	"fmt"

	"github.com/industy/leaverisk/internal/engine"
)

// DeleteAll removes every risk alert. It is the reset step of a run and is
// not coordinated with concurrent readers.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM risk_alerts`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Insert stores one alert.
func (s *Store) Insert(ctx context.Context, a *engine.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_alerts (
			id, run_id, task_key, task_title, assignee,
			due_date, leave_start, leave_end, risk_level, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.RunID, a.TaskKey, a.TaskTitle, a.Assignee,
		a.DueAt, a.LeaveStart, a.LeaveEnd, a.Level.String(), a.Status.String(), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

// ListAlerts returns the current alerts in insertion order.
func (s *Store) ListAlerts(ctx context.Context) ([]*engine.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, task_key, task_title, assignee,
		       due_date, leave_start, leave_end, risk_level, status, created_at
		FROM risk_alerts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("ListAlerts: %w", err)
	}
	defer rows.Close()

	var alerts []*engine.Alert
	for rows.Next() {
		var (
			a             engine.Alert
			level, status string
		)
		if err := rows.Scan(&a.ID, &a.RunID, &a.TaskKey, &a.TaskTitle, &a.Assignee,
			&a.DueAt, &a.LeaveStart, &a.LeaveEnd, &level, &status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListAlerts: %w", err)
		}
		a.Level = engine.ParseRiskLevel(level)
		a.Status = engine.ParseAlertStatus(status)
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}
