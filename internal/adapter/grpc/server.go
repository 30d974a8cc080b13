// Package grpc exposes portunus over gRPC. Only the standard health service
// is served; the resource API is REST.
package grpc

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"portunus/internal/adapter/grpc/middleware"
	"portunus/pkg/logger"
)

// NewServer creates a gRPC server with the request ID and rate limit
// interceptors and registers the health service backed by hs.
func NewServer(hs *health.Server, limiter *middleware.RateLimiter, log *zap.Logger) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			limiter.UnaryInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	log.Debug("grpc services registered", zap.Int("count", len(s.GetServiceInfo())))
	return s
}
