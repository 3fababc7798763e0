package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/industy/leaverisk/internal/engine"
)

// taskRow mirrors a jira_tasks row. The sync process may fill any one of the
// three due columns depending on what the tracker returned.
type taskRow struct {
	Key           string
	Summary       string
	AssigneeEmail sql.NullString
	DueDate       sql.NullTime
	DueAt         sql.NullTime
	DueRaw        sql.NullString
}

// toTask converts a row into an engine.Task. A typed column wins over the raw text.
func (r *taskRow) toTask() engine.Task {
	t := engine.Task{
		Key:           r.Key,
		Summary:       r.Summary,
		AssigneeEmail: r.AssigneeEmail.String,
	}
	switch {
	case r.DueDate.Valid:
		t.Due = engine.Due{At: r.DueDate.Time, DateOnly: true}
	case r.DueAt.Valid:
		t.Due = engine.Due{At: r.DueAt.Time}
	case r.DueRaw.Valid:
		t.Due = engine.Due{Text: r.DueRaw.String}
	}
	return t
}

// Tasks streams every row of jira_tasks ordered by key.
func (s *Store) Tasks(ctx context.Context) iter.Seq2[engine.Task, error] {
	return func(yield func(engine.Task, error) bool) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT key, summary, assignee_email, due_date, due_at, due_raw
			FROM jira_tasks ORDER BY key`)
		if err != nil {
			yield(engine.Task{}, fmt.Errorf("Tasks: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var r taskRow
			if err := rows.Scan(&r.Key, &r.Summary, &r.AssigneeEmail,
				&r.DueDate, &r.DueAt, &r.DueRaw); err != nil {
				yield(engine.Task{}, fmt.Errorf("Tasks: %w", err))
				return
			}
			if !yield(r.toTask(), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(engine.Task{}, fmt.Errorf("Tasks: %w", err))
		}
	}
}
