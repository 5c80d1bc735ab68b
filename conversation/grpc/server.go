// Package grpc exposes the internal gRPC endpoint used by sibling
// services for liveness probes. The conversation RPC surface itself is
// still served over HTTP and websocket.
package grpc

import (
	"net"

	"counseling-platform/backend/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// StartGRPCServer blocks serving the gRPC endpoint on the given port
func StartGRPCServer(port string, log *logger.Logger) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	server := grpc.NewServer()

	healthServer := health.NewServer()
	healthServer.SetServingStatus("conversation", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	reflection.Register(server)

	log.Info("gRPC server listening", "port", port)
	return server.Serve(lis)
}
