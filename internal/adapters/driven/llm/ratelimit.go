// Package llm holds cross-provider wrappers around oracle backends.
package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/zoomin/internal/core/ports/driven"
)

// Ensure RateLimited implements the interface.
var _ driven.LLMService = (*RateLimited)(nil)

// RateLimited throttles Chat calls on an underlying backend with a token bucket.
type RateLimited struct {
	inner   driven.LLMService
	limiter *rate.Limiter
}

// NewLimiter returns a token bucket allowing requestsPerSecond calls with a
// burst of at least one. A non-positive rate returns nil.
func NewLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// WithRateLimit wraps svc so that at most requestsPerSecond Chat calls are issued.
// A non-positive rate returns svc unchanged.
func WithRateLimit(svc driven.LLMService, requestsPerSecond float64) driven.LLMService {
	return WithLimiter(svc, NewLimiter(requestsPerSecond))
}

// WithLimiter wraps svc so that Chat takes a token from limiter. Backends
// wrapped with the same limiter draw from one budget. A nil limiter returns
// svc unchanged.
func WithLimiter(svc driven.LLMService, limiter *rate.Limiter) driven.LLMService {
	if svc == nil || limiter == nil {
		return svc
	}
	return &RateLimited{inner: svc, limiter: limiter}
}

// Chat waits for a token, then forwards to the wrapped backend.
func (r *RateLimited) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.inner.Chat(ctx, messages, opts)
}

// ModelName returns the wrapped backend's model.
func (r *RateLimited) ModelName() string {
	return r.inner.ModelName()
}

// Ping is not throttled.
func (r *RateLimited) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// Close closes the wrapped backend.
func (r *RateLimited) Close() error {
	return r.inner.Close()
}
