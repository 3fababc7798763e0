package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/industy/leaverisk/internal/config"
	"github.com/industy/leaverisk/internal/engine"
	"github.com/industy/leaverisk/internal/scheduler"
	"github.com/industy/leaverisk/internal/server"
	"github.com/industy/leaverisk/internal/storage"
	"github.com/industy/leaverisk/internal/store"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Logger
	logger := mustBuildLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting risk matcher",
		zap.String("grpc_port", cfg.GRPCPort),
		zap.Duration("run_interval", cfg.RunInterval()),
		zap.Duration("run_timeout", cfg.RunTimeout()),
		zap.Bool("run_once", cfg.RunOnce),
	)

	// Postgres pool
	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("failed to open postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.RunTimeout())
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		logger.Fatal("failed to ping postgres", zap.Error(err))
	}
	pgStore := store.NewStore(db)
	if cfg.EnsureSchema {
		if err := pgStore.EnsureSchema(pingCtx); err != nil {
			cancelPing()
			logger.Fatal("failed to ensure schema", zap.Error(err))
		}
		logger.Info("schema ensured")
	}
	cancelPing()
	logger.Info("postgres connected")

	// Run history: ClickHouse, or LogWriter fallback
	var writer storage.RunWriter
	if cfg.ClickHouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Engine. The Postgres store is task source, leave source and risk sink.
	matcher := engine.NewMatcher(pgStore, pgStore, pgStore, logger)
	guard := engine.NewGuard(matcher)

	if cfg.RunOnce {
		sched := scheduler.New(scheduler.Config{
			Runner:  guard,
			Writer:  writer,
			Timeout: cfg.RunTimeout(),
			Logger:  logger,
		})
		if err := sched.RunOnce(context.Background(), scheduler.TriggerOnce); err != nil {
			writer.Close()
			logger.Sync() //nolint:errcheck
			os.Exit(1)
		}
		return
	}

	// Health probes
	health := server.NewHealth(logger)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Fatal("failed to listen for health probes", zap.Error(err))
	}
	go func() {
		logger.Info("grpc health server listening", zap.String("addr", lis.Addr().String()))
		if err := health.Serve(lis); err != nil {
			logger.Error("grpc health server failed", zap.Error(err))
		}
	}()

	sched := scheduler.New(scheduler.Config{
		Runner:   guard,
		Writer:   writer,
		Health:   health,
		Interval: cfg.RunInterval(),
		Timeout:  cfg.RunTimeout(),
		Logger:   logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)

	// SIGHUP requests a manual run; SIGINT/SIGTERM shut down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			logger.Info("received SIGHUP, triggering manual run")
			sched.Trigger(ctx)
			continue
		}
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		break
	}

	// Graceful shutdown: in-flight runs see a cancelled context and fail fast.
	cancel()
	sched.Wait()
	health.Stop()

	logger.Info("risk matcher stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
