package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

// mockHandler is a simple handler that returns a fixed response
func mockHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

// fixedClock returns a limiter clock and a function to advance it.
func fixedClock(rl *RateLimiter) func(time.Duration) {
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func peerContext(ip string) context.Context {
	addr, _ := net.ResolveTCPAddr("tcp", ip+":12345")
	return peer.NewContext(context.Background(), &peer.Peer{Addr: addr})
}

var getRouteInfo = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 10, BurstCapacity: 10, Enabled: true}, zaptest.NewLogger(t))
	fixedClock(rl)
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1")

	for range 5 {
		resp, err := interceptor(ctx, nil, getRouteInfo, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 5, Enabled: true}, zaptest.NewLogger(t))
	fixedClock(rl)
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1")

	for range 5 {
		_, err := interceptor(ctx, nil, getRouteInfo, mockHandler)
		require.NoError(t, err)
	}

	resp, err := interceptor(ctx, nil, getRouteInfo, mockHandler)
	require.Error(t, err)
	assert.Nil(t, resp)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Contains(t, st.Message(), "rate limit exceeded")
}

func TestRateLimiter_Refill(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true}, zaptest.NewLogger(t))
	advance := fixedClock(rl)
	ctx := context.Background()

	for range 2 {
		allowed, err := rl.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, allowed)
	}
	allowed, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	advance(500 * time.Millisecond)
	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: false}, zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1")

	for range 10 {
		resp, err := interceptor(ctx, nil, getRouteInfo, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}

	assert.False(t, NewRateLimiter(nil, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t)).Enabled())
}

func TestRateLimiter_SeparateBuckets(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t))
	fixedClock(rl)
	interceptor := rl.UnaryInterceptor()

	_, err := interceptor(peerContext("192.168.1.1"), nil, getRouteInfo, mockHandler)
	require.NoError(t, err)
	_, err = interceptor(peerContext("192.168.1.1"), nil, getRouteInfo, mockHandler)
	require.Error(t, err)

	_, err = interceptor(peerContext("192.168.1.2"), nil, getRouteInfo, mockHandler)
	require.NoError(t, err, "another client IP has its own bucket")

	other := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/List"}
	_, err = interceptor(peerContext("192.168.1.1"), nil, other, mockHandler)
	require.NoError(t, err, "another method has its own bucket")
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 10, Enabled: true}, zaptest.NewLogger(t))
	fixedClock(rl)
	interceptor := rl.UnaryInterceptor()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-forwarded-for", "203.0.113.1"))

	_, err := interceptor(ctx, nil, getRouteInfo, mockHandler)
	require.NoError(t, err)

	key := "ratelimit:tb:grpc:/grpc.health.v1.Health/Check:203.0.113.1"
	assert.True(t, mr.Exists(key))
	assert.Greater(t, mr.TTL(key), time.Duration(0))
}

func TestRateLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl := NewRateLimiter(client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t))
	interceptor := rl.UnaryInterceptor()
	mr.Close()

	for range 3 {
		resp, err := interceptor(peerContext("127.0.0.1"), nil, getRouteInfo, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}
