package grpc

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServicePrefix names the per-dependency health services, e.g. "portunus.db".
const ServicePrefix = "portunus."

// Probe reports whether one dependency is reachable.
type Probe func(ctx context.Context) error

// HealthChecker runs dependency probes and publishes their outcome on a
// grpc.health.v1 server. The overall service ("") is SERVING only while every
// probe passes.
type HealthChecker struct {
	server  *health.Server
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	probes map[string]Probe
}

// NewHealthChecker creates a checker publishing to server.
func NewHealthChecker(server *health.Server, log *zap.Logger) *HealthChecker {
	return &HealthChecker{
		server:  server,
		log:     log,
		timeout: 2 * time.Second,
		probes:  make(map[string]Probe),
	}
}

// Register adds a named probe. A later probe with the same name replaces the earlier one.
func (h *HealthChecker) Register(name string, p Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = p
	h.server.SetServingStatus(ServicePrefix+name, healthpb.HealthCheckResponse_UNKNOWN)
}

// Names returns the registered probe names, sorted.
func (h *HealthChecker) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAll runs every probe once and returns the result per name.
func (h *HealthChecker) CheckAll(ctx context.Context) map[string]error {
	h.mu.RLock()
	probes := make(map[string]Probe, len(h.probes))
	for name, p := range h.probes {
		probes[name] = p
	}
	h.mu.RUnlock()

	results := make(map[string]error, len(probes))
	var (
		wg  sync.WaitGroup
		rmu sync.Mutex
	)
	for name, p := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			err := p(pctx)
			rmu.Lock()
			results[name] = err
			rmu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// Update runs the probes and sets the serving status of each dependency and of the overall service.
func (h *HealthChecker) Update(ctx context.Context) map[string]error {
	results := h.CheckAll(ctx)

	overall := healthpb.HealthCheckResponse_SERVING
	for name, err := range results {
		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			h.log.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
		}
		h.server.SetServingStatus(ServicePrefix+name, status)
	}
	h.server.SetServingStatus("", overall)

	return results
}

// Run updates the health status every interval until ctx is done.
func (h *HealthChecker) Run(ctx context.Context, interval time.Duration) {
	h.Update(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Update(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING so clients drain before the server stops.
func (h *HealthChecker) Shutdown() {
	h.server.Shutdown()
}
