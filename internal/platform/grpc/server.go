package grpc

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// NewHealthServer builds a traced gRPC server exposing only the standard
// health service. The returned health server starts out NOT_SERVING.
func NewHealthServer(opts ...gogrpc.ServerOption) (*gogrpc.Server, *health.Server) {
	opts = append([]gogrpc.ServerOption{gogrpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	server := gogrpc.NewServer(opts...)
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	return server, healthServer
}
