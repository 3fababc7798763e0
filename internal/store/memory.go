package store

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/industy/leaverisk/internal/engine"
)

// ErrInvalidWindow is returned when a leave ends before it starts.
var ErrInvalidWindow = errors.New("leave end is before leave start")

// Memory is an in-process implementation of the task, leave and risk stores.
// It backs tests and dry runs that should not touch Postgres.
type Memory struct {
	mu     sync.RWMutex
	tasks  []engine.Task
	leaves []engine.LeaveInterval
	alerts []*engine.Alert
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

var (
	_ engine.TaskSource  = (*Memory)(nil)
	_ engine.LeaveSource = (*Memory)(nil)
	_ engine.RiskStore   = (*Memory)(nil)
)

// PutTask adds a task, replacing any existing task with the same key.
func (m *Memory) PutTask(t engine.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].Key == t.Key {
			m.tasks[i] = t
			return
		}
	}
	m.tasks = append(m.tasks, t)
}

// AddLeave stores a leave with its email normalized.
func (m *Memory) AddLeave(l engine.LeaveInterval) error {
	if l.End.Before(l.Start) {
		return ErrInvalidWindow
	}
	l.EmployeeEmail = engine.NormalizeEmail(l.EmployeeEmail)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves = append(m.leaves, l)
	return nil
}

// Tasks yields a snapshot of the tasks taken when iteration starts.
func (m *Memory) Tasks(_ context.Context) iter.Seq2[engine.Task, error] {
	return func(yield func(engine.Task, error) bool) {
		m.mu.RLock()
		snapshot := append([]engine.Task(nil), m.tasks...)
		m.mu.RUnlock()

		for _, t := range snapshot {
			if !yield(t, nil) {
				return
			}
		}
	}
}

// FindCovering returns the first leave, in insertion order, covering at.
func (m *Memory) FindCovering(_ context.Context, email string, at time.Time) (*engine.LeaveInterval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.leaves {
		if m.leaves[i].EmployeeEmail == email && m.leaves[i].Covers(at) {
			l := m.leaves[i]
			return &l, nil
		}
	}
	return nil, nil
}

func (m *Memory) CountForEmployee(_ context.Context, email string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, l := range m.leaves {
		if l.EmployeeEmail == email {
			n++
		}
	}
	return n, nil
}

func (m *Memory) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.alerts))
	m.alerts = nil
	return n, nil
}

func (m *Memory) Insert(_ context.Context, a *engine.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	return nil
}

// ListAlerts returns the stored alerts in insertion order.
func (m *Memory) ListAlerts(_ context.Context) ([]*engine.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*engine.Alert(nil), m.alerts...), nil
}
