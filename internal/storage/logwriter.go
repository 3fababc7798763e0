package storage

import "go.uber.org/zap"

// LogWriter is a fallback RunWriter for local development.
// It logs run events as structured JSON via zap.
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter creates a LogWriter that outputs events to the given logger.
func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) Write(event *RunEvent) {
	w.logger.Info("risk_run",
		zap.String("run_id", event.RunID),
		zap.Time("timestamp", event.Timestamp),
		zap.String("trigger", event.Trigger),
		zap.String("status", event.Status),
		zap.String("error", event.Error),
		zap.Bool("shared", event.Shared),
		zap.Uint32("tasks_total", event.TasksTotal),
		zap.Uint32("tasks_checked", event.TasksChecked),
		zap.Uint32("tasks_skipped", event.TasksSkipped),
		zap.Uint64("alerts_deleted", event.AlertsDeleted),
		zap.Uint32("alerts_created", event.AlertsCreated),
		zap.Strings("alert_task_keys", event.AlertTaskKeys),
		zap.Float32("duration_ms", event.DurationMs),
	)
}

func (w *LogWriter) Close() {}
