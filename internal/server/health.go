package server

import (
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name probes should ask for. The empty
// service name reports whether the process is up at all.
const ServiceName = "leaverisk.RiskMatcher"

// Health exposes the gRPC health protocol. The matcher service reads
// NOT_SERVING until the first run succeeds and again after any failed run.
type Health struct {
	srv    *grpc.Server
	health *health.Server
	logger *zap.Logger

	mu      sync.Mutex
	serving bool
}

// NewHealth creates the health server. Call Serve to start accepting probes.
func NewHealth(logger *zap.Logger) *Health {
	h := &Health{
		srv:    grpc.NewServer(),
		health: health.NewServer(),
		logger: logger,
	}
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(h.srv, h.health)
	return h
}

// ReportRun updates the matcher's serving status from a run outcome.
func (h *Health) ReportRun(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	serving := err == nil
	if serving == h.serving {
		return
	}
	h.serving = serving

	status := healthpb.HealthCheckResponse_SERVING
	if !serving {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus(ServiceName, status)
	h.logger.Info("health status changed",
		zap.String("service", ServiceName),
		zap.String("status", status.String()),
	)
}

// Serve blocks accepting probes on lis until Stop is called.
func (h *Health) Serve(lis net.Listener) error {
	return h.srv.Serve(lis)
}

// Stop marks every service NOT_SERVING and stops the gRPC server.
func (h *Health) Stop() {
	h.health.Shutdown()
	h.srv.GracefulStop()
}
