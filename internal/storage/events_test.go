package storage

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/industy/leaverisk/internal/engine"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTruncateText(t *testing.T) {
	if got := TruncateText("short", 10); got != "short" {
		t.Errorf("expected untouched string, got %q", got)
	}
	if got := TruncateText("héllo wörld", 5); got != "héllo" {
		t.Errorf("expected rune-safe cut, got %q", got)
	}
}

func TestNewRunEvent_Success(t *testing.T) {
	report := &engine.Report{
		RunID: "run-1",
		Stats: engine.RunStats{Total: 5, Checked: 3, Skipped: 2, Deleted: 4},
		Alerts: []*engine.Alert{
			{TaskKey: "T-1"},
			{TaskKey: "T-3"},
		},
	}

	e := NewRunEvent("manual", time.Now(), report, true, nil)
	if e.Status != StatusOK || e.Error != "" {
		t.Errorf("unexpected status %q / error %q", e.Status, e.Error)
	}
	if e.RunID != "run-1" || e.Trigger != "manual" || !e.Shared {
		t.Errorf("unexpected identity fields: %+v", e)
	}
	if e.TasksTotal != 5 || e.TasksChecked != 3 || e.TasksSkipped != 2 || e.AlertsDeleted != 4 {
		t.Errorf("unexpected counters: %+v", e)
	}
	if e.AlertsCreated != 2 || strings.Join(e.AlertTaskKeys, ",") != "T-1,T-3" {
		t.Errorf("unexpected alerts: %d %v", e.AlertsCreated, e.AlertTaskKeys)
	}
	if e.Timestamp.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %v", e.Timestamp.Location())
	}
}

func TestNewRunEvent_Failure(t *testing.T) {
	long := errors.New(strings.Repeat("x", ErrorPreviewLength+50))

	e := NewRunEvent("schedule", time.Now(), nil, false, long)
	if e.Status != StatusFailed {
		t.Errorf("expected failed status, got %q", e.Status)
	}
	if len([]rune(e.Error)) != ErrorPreviewLength {
		t.Errorf("expected error truncated to %d runes, got %d", ErrorPreviewLength, len([]rune(e.Error)))
	}
	if e.RunID != "" || e.AlertsCreated != 0 {
		t.Errorf("failed run should carry no run data: %+v", e)
	}
}

func TestLogWriter_Write(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := NewLogWriter(zap.New(core))
	defer w.Close()

	w.Write(&RunEvent{RunID: "run-1", Trigger: "schedule", Status: StatusOK, AlertsCreated: 2})

	entries := logs.FilterMessage("risk_run").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["run_id"] != "run-1" || fields["status"] != "ok" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields["alerts_created"] != uint32(2) {
		t.Errorf("expected alerts_created=2, got %v (%T)", fields["alerts_created"], fields["alerts_created"])
	}
}
