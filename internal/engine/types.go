package engine

import "time"

// RiskLevel grades how likely a task is to slip.
type RiskLevel int

const (
	RiskLevelUnspecified RiskLevel = iota
	RiskLevelHigh                  // HIGH
)

// String returns the upper-case level name stored with each alert.
func (l RiskLevel) String() string {
	switch l {
	case RiskLevelHigh:
		return "HIGH"
	default:
		return "UNSPECIFIED"
	}
}

// ParseRiskLevel is the inverse of RiskLevel.String.
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "HIGH":
		return RiskLevelHigh
	default:
		return RiskLevelUnspecified
	}
}

// AlertStatus tracks the lifecycle of a risk alert.
type AlertStatus int

const (
	StatusUnspecified AlertStatus = iota
	StatusOpen                    // OPEN
)

// String returns the upper-case status name stored with each alert.
func (s AlertStatus) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	default:
		return "UNSPECIFIED"
	}
}

// ParseAlertStatus is the inverse of AlertStatus.String.
func ParseAlertStatus(s string) AlertStatus {
	switch s {
	case "OPEN":
		return StatusOpen
	default:
		return StatusUnspecified
	}
}

// Due is a task due date as the tracker handed it over. At most one of the
// representations is normally set; an all-zero Due means the task has no due date.
type Due struct {
	At       time.Time // timestamp, or a calendar date when DateOnly is set
	DateOnly bool
	Text     string // unparsed tracker value, e.g. "2025-06-10"
}

// IsZero reports whether the task carries no due date at all.
func (d Due) IsZero() bool {
	return d.At.IsZero() && d.Text == ""
}

// DueOn returns a date-only Due for the given calendar day.
func DueOn(year int, month time.Month, day int) Due {
	return Due{At: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), DateOnly: true}
}

// Task is a tracker issue as synced into the task store.
type Task struct {
	Key           string
	Summary       string
	AssigneeEmail string
	Due           Due
}

// LeaveInterval is a closed period during which an employee is unavailable.
type LeaveInterval struct {
	ID            string
	EmployeeEmail string
	Start         time.Time
	End           time.Time // inclusive
	Source        string    // upload batch / file id
	UploadedAt    time.Time
}

// Covers reports whether at lies within [Start, End], both ends inclusive.
func (l *LeaveInterval) Covers(at time.Time) bool {
	return !at.Before(l.Start) && !at.After(l.End)
}

// Alert flags a task whose due date falls inside its assignee's leave.
type Alert struct {
	ID         string
	RunID      string
	TaskKey    string
	TaskTitle  string
	Assignee   string
	DueAt      time.Time
	LeaveStart time.Time
	LeaveEnd   time.Time
	Level      RiskLevel
	Status     AlertStatus
	CreatedAt  time.Time
}
