package server

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// rateLimiter keeps a token bucket per client identity. Buckets are
// created on first use and live for the process; the identity space is
// bounded by the issued client certificates.
type rateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newRateLimiter(rps float64) *rateLimiter {
	return &rateLimiter{
		limit:    rate.Limit(rps),
		burst:    int(rps),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (r *rateLimiter) allow(identity string) bool {
	r.mu.Lock()

	limiter, exists := r.limiters[identity]
	if !exists {
		limiter = rate.NewLimiter(r.limit, max(r.burst, 1))
		r.limiters[identity] = limiter
	}

	r.mu.Unlock()

	return limiter.Allow()
}

func (r *rateLimiter) unaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if identity, ok := identityFromContext(ctx); ok && !r.allow(identity) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}

		return handler(ctx, req)
	}
}

func (r *rateLimiter) streamInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if identity, ok := identityFromContext(ss.Context()); ok && !r.allow(identity) {
			return status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}

		return handler(srv, ss)
	}
}
