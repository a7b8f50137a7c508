package grpc

import (
	"context"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthBackoffStart = 200 * time.Millisecond
	healthBackoffMax   = time.Second
	healthCallTimeout  = time.Second
)

// CheckHealth asks the health service once and returns the reported status.
func CheckHealth(ctx context.Context, conn *gogrpc.ClientConn, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	if conn == nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, fmt.Errorf("gRPC connection is not configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, healthCallTimeout)
	defer cancel()
	response, err := grpc_health_v1.NewHealthClient(conn).Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, err
	}
	return response.GetStatus(), nil
}

// WaitForHealth polls the health service until it reports SERVING or ctx ends.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	backoff := healthBackoffStart
	for {
		status, err := CheckHealth(ctx, conn, service)
		switch {
		case err == nil && status == grpc_health_v1.HealthCheckResponse_SERVING:
			logf("gRPC health check is SERVING")
			return nil
		case err != nil:
			logf("waiting for gRPC health: %v", err)
		default:
			logf("waiting for gRPC health: status %s", status.String())
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, healthBackoffMax)
	}
}
