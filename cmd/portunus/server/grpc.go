package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	grpcadapter "portunus/internal/adapter/grpc"
	"portunus/internal/adapter/grpc/middleware"
)

// SetupGRPC creates and configures the gRPC server
func SetupGRPC(hs *health.Server, rateLimiter *middleware.RateLimiter, l *zap.Logger) *grpc.Server {
	return grpcadapter.NewServer(hs, rateLimiter, l)
}
