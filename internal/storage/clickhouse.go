package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

const (
	bufferSize    = 256
	flushInterval = time.Second
	flushBatch    = 64
	drainTimeout  = 2 * time.Second
	insertTimeout = 5 * time.Second
)

// ClickHouseWriter appends run history to the risk_runs table.
// Write() is non-blocking; events are buffered and batch-inserted in a background goroutine.
type ClickHouseWriter struct {
	conn    driver.Conn
	buffer  chan *RunEvent
	done    chan struct{}
	flushed chan struct{} // closed by flushLoop when it returns
	logger  *zap.Logger
}

// NewClickHouseWriter connects to ClickHouse and starts the background flush loop.
// TLS is enabled when the DSN asks for it (?secure=true).
func NewClickHouseWriter(dsn string, logger *zap.Logger) (*ClickHouseWriter, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewClickHouseWriter: %w", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewClickHouseWriter: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("NewClickHouseWriter: %w", err)
	}

	w := &ClickHouseWriter{
		conn:    conn,
		buffer:  make(chan *RunEvent, bufferSize),
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
		logger:  logger,
	}

	go w.flushLoop()
	return w, nil
}

// Write queues a run event for async insertion.
// Non-blocking: drops the event if the buffer is full.
func (w *ClickHouseWriter) Write(event *RunEvent) {
	select {
	case w.buffer <- event:
	default:
		w.logger.Warn("clickhouse buffer full, dropping run event",
			zap.String("run_id", event.RunID),
		)
	}
}

// Close drains buffered events, closes the connection and returns. Safe to call once.
func (w *ClickHouseWriter) Close() {
	close(w.done)
	<-w.flushed
	if err := w.conn.Close(); err != nil {
		w.logger.Warn("clickhouse close failed", zap.Error(err))
	}
}

func (w *ClickHouseWriter) flushLoop() {
	defer close(w.flushed)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*RunEvent, 0, flushBatch)

	for {
		select {
		case event := <-w.buffer:
			batch = append(batch, event)
			if len(batch) >= flushBatch {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-w.done:
			w.drain(batch)
			return
		}
	}
}

// drain flushes whatever is still buffered, bounded by drainTimeout.
func (w *ClickHouseWriter) drain(batch []*RunEvent) {
	deadline := time.After(drainTimeout)
drainLoop:
	for {
		select {
		case event := <-w.buffer:
			batch = append(batch, event)
		case <-deadline:
			break drainLoop
		default:
			break drainLoop
		}
	}
	if len(batch) > 0 {
		w.flush(batch)
	}
}

func (w *ClickHouseWriter) flush(events []*RunEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	batch, err := w.conn.PrepareBatch(ctx, `
		INSERT INTO risk_runs (
			run_id, timestamp, trigger, status, error, shared,
			tasks_total, tasks_checked, tasks_skipped,
			alerts_deleted, alerts_created, alert_task_keys,
			duration_ms
		)
	`)
	if err != nil {
		w.logger.Error("clickhouse prepare batch failed", zap.Error(err))
		return
	}

	for _, e := range events {
		var sharedUint8 uint8
		if e.Shared {
			sharedUint8 = 1
		}
		if err := batch.Append(
			e.RunID,
			e.Timestamp,
			e.Trigger,
			e.Status,
			e.Error,
			sharedUint8,
			e.TasksTotal,
			e.TasksChecked,
			e.TasksSkipped,
			e.AlertsDeleted,
			e.AlertsCreated,
			e.AlertTaskKeys,
			e.DurationMs,
		); err != nil {
			w.logger.Error("clickhouse append run event failed",
				zap.String("run_id", e.RunID),
				zap.Error(err),
			)
		}
	}

	if err := batch.Send(); err != nil {
		w.logger.Error("clickhouse batch send failed",
			zap.Int("batch_size", len(events)),
			zap.Error(err),
		)
	}
}
