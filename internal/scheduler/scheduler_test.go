package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/industy/leaverisk/internal/engine"
	"github.com/industy/leaverisk/internal/storage"
	"github.com/industy/leaverisk/internal/store"
	"go.uber.org/zap"
)

// captureWriter records every run event.
type captureWriter struct {
	mu     sync.Mutex
	events []*storage.RunEvent
}

func (w *captureWriter) Write(e *storage.RunEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, e)
}

func (w *captureWriter) Close() {}

func (w *captureWriter) snapshot() []*storage.RunEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*storage.RunEvent(nil), w.events...)
}

// recordingHealth remembers the last reported outcome.
type recordingHealth struct {
	calls atomic.Int32
	last  atomic.Value // error wrapper
}

type outcome struct{ err error }

func (h *recordingHealth) ReportRun(err error) {
	h.calls.Add(1)
	h.last.Store(outcome{err})
}

// stubRunner returns a fixed outcome and counts calls.
type stubRunner struct {
	calls  atomic.Int32
	report *engine.Report
	err    error
}

func (r *stubRunner) Run(ctx context.Context) (*engine.Report, bool, error) {
	r.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return nil, false, errors.New("run context has no deadline")
	}
	return r.report, false, r.err
}

func newTestScheduler(runner GuardedRunner, interval time.Duration) (*Scheduler, *captureWriter, *recordingHealth) {
	w := &captureWriter{}
	h := &recordingHealth{}
	s := New(Config{
		Runner:   runner,
		Writer:   w,
		Health:   h,
		Interval: interval,
		Timeout:  time.Second,
		Logger:   zap.NewNop(),
	})
	return s, w, h
}

func TestRunOnce_RecordsSuccess(t *testing.T) {
	runner := &stubRunner{report: &engine.Report{RunID: "run-1", Alerts: []*engine.Alert{{TaskKey: "T-1"}}}}
	s, w, h := newTestScheduler(runner, time.Hour)

	if err := s.RunOnce(context.Background(), TriggerOnce); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	events := w.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 run event, got %d", len(events))
	}
	if events[0].Status != storage.StatusOK || events[0].Trigger != TriggerOnce || events[0].AlertsCreated != 1 {
		t.Errorf("unexpected event: %+v", events[0])
	}
	if got := h.last.Load().(outcome).err; got != nil {
		t.Errorf("expected healthy report, got %v", got)
	}
}

func TestRunOnce_RecordsFailure(t *testing.T) {
	boom := errors.New("leave store unreachable")
	runner := &stubRunner{err: boom}
	s, w, h := newTestScheduler(runner, time.Hour)

	if err := s.RunOnce(context.Background(), TriggerManual); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}

	events := w.snapshot()
	if len(events) != 1 || events[0].Status != storage.StatusFailed {
		t.Fatalf("expected one failed event, got %+v", events)
	}
	if got := h.last.Load().(outcome).err; !errors.Is(got, boom) {
		t.Errorf("expected health to see %v, got %v", boom, got)
	}
}

func TestScheduler_RunsImmediatelyAndOnInterval(t *testing.T) {
	runner := &stubRunner{report: &engine.Report{RunID: "run"}}
	s, w, _ := newTestScheduler(runner, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(55 * time.Millisecond)
	cancel()
	s.Wait()

	if n := runner.calls.Load(); n < 3 {
		t.Errorf("expected at least 3 runs (startup + ticks), got %d", n)
	}
	for _, e := range w.snapshot() {
		if e.Trigger != TriggerSchedule {
			t.Errorf("expected schedule trigger, got %q", e.Trigger)
		}
	}
}

func TestScheduler_ManualTriggerJoinsInFlightRun(t *testing.T) {
	mem := store.NewMemory()
	mem.PutTask(engine.Task{Key: "T-1", AssigneeEmail: "jane@co.com", Due: engine.DueOn(2025, time.June, 10)})
	if err := mem.AddLeave(engine.LeaveInterval{
		EmployeeEmail: "jane@co.com",
		Start:         time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}

	guard := engine.NewGuard(engine.NewMatcher(mem, mem, mem, zap.NewNop()))
	s, w, _ := newTestScheduler(guard, time.Hour)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Trigger(ctx)
	}
	s.Wait()

	if n := len(w.snapshot()); n != 5 {
		t.Errorf("expected 5 recorded triggers, got %d", n)
	}
	alerts, _ := mem.ListAlerts(ctx)
	if len(alerts) != 1 {
		t.Errorf("expected exactly 1 alert after overlapping triggers, got %d", len(alerts))
	}
}
