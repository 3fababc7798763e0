package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/industy/leaverisk/internal/engine"
)

// FindCovering returns the earliest-starting leave for the normalized email
// whose window contains at, or nil if there is none.
func (s *Store) FindCovering(ctx context.Context, email string, at time.Time) (*engine.LeaveInterval, error) {
	var l engine.LeaveInterval
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_email, leave_start, leave_end, file_id, uploaded_at
		FROM leaves
		WHERE lower(btrim(employee_email)) = $1
		  AND leave_start <= $2
		  AND leave_end   >= $2
		ORDER BY leave_start, id
		LIMIT 1`, email, at,
	).Scan(&l.ID, &l.EmployeeEmail, &l.Start, &l.End, &l.Source, &l.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindCovering: %w", err)
	}
	l.EmployeeEmail = engine.NormalizeEmail(l.EmployeeEmail)
	return &l, nil
}

// CountForEmployee returns how many leave records exist for the normalized email.
func (s *Store) CountForEmployee(ctx context.Context, email string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM leaves WHERE lower(btrim(employee_email)) = $1`, email,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountForEmployee: %w", err)
	}
	return n, nil
}
