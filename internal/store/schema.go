package store

import (
	"context"
	"fmt"
)

// schemaDDL creates the tables if they are missing. The task sync and the
// leave upload own their tables' contents; the matcher only owns risk_alerts.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS jira_tasks (
	key            TEXT PRIMARY KEY,
	summary        TEXT NOT NULL DEFAULT '',
	assignee_email TEXT,
	due_date       DATE,
	due_at         TIMESTAMPTZ,
	due_raw        TEXT,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leaves (
	id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	employee_email TEXT NOT NULL,
	leave_start    TIMESTAMPTZ NOT NULL,
	leave_end      TIMESTAMPTZ NOT NULL,
	file_id        TEXT NOT NULL DEFAULT '',
	uploaded_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT leaves_window_ordered CHECK (leave_start <= leave_end)
);

CREATE INDEX IF NOT EXISTS leaves_employee_window_idx
	ON leaves (lower(btrim(employee_email)), leave_start, leave_end);

CREATE TABLE IF NOT EXISTS risk_alerts (
	seq         BIGSERIAL PRIMARY KEY,
	id          UUID NOT NULL UNIQUE,
	run_id      UUID NOT NULL,
	task_key    TEXT NOT NULL,
	task_title  TEXT NOT NULL,
	assignee    TEXT NOT NULL,
	due_date    TIMESTAMPTZ NOT NULL,
	leave_start TIMESTAMPTZ NOT NULL,
	leave_end   TIMESTAMPTZ NOT NULL,
	risk_level  TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables and indexes used by the Store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("EnsureSchema: %w", err)
	}
	return nil
}
