package store

import (
	"database/sql"

	"github.com/industy/leaverisk/internal/engine"
)

// Store provides access to the PostgreSQL tables the risk matcher reads and
// writes: jira_tasks, leaves and risk_alerts.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var (
	_ engine.TaskSource  = (*Store)(nil)
	_ engine.LeaveSource = (*Store)(nil)
	_ engine.RiskStore   = (*Store)(nil)
)
