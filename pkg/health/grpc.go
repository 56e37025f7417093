package health

import (
	"fmt"
	"net"

	"feedback-hub/backend/pkg/logger"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside the overall ("") status.
const ServiceName = "feedbackhub.Pipeline"

// GRPCServer serves the standard grpc.health.v1 protocol backed by a Checker.
type GRPCServer struct {
	server *grpc.Server
	health *grpchealth.Server
	log    *logger.Logger
}

// NewGRPCServer registers a health service whose serving status follows checker.
func NewGRPCServer(checker *Checker, log *logger.Logger) *GRPCServer {
	g := &GRPCServer{
		server: grpc.NewServer(),
		health: grpchealth.NewServer(),
		log:    log,
	}
	healthpb.RegisterHealthServer(g.server, g.health)

	g.SetHealthy(checker.IsSystemHealthy())
	checker.OnUpdate(g.SetHealthy)
	return g
}

// SetHealthy updates the serving status of both the overall and the named service.
func (g *GRPCServer) SetHealthy(healthy bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(ServiceName, status)
}

// Serve blocks serving on lis.
func (g *GRPCServer) Serve(lis net.Listener) error {
	g.log.Info("gRPC health server listening", "addr", lis.Addr().String())
	return g.server.Serve(lis)
}

// ListenAndServe listens on the given TCP port and serves.
func (g *GRPCServer) ListenAndServe(port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", port, err)
	}
	return g.Serve(lis)
}

// Stop marks every service as not serving and drains connections.
func (g *GRPCServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}
