package bus

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// RateLimitedBus throttles publishes per topic. A publish waits for a token
// until its context is done.
type RateLimitedBus struct {
	inner Bus
	rate  rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimitedBus wraps inner with a limit of eventsPerSecond per topic.
func NewRateLimitedBus(inner Bus, eventsPerSecond float64, burst int) *RateLimitedBus {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedBus{
		inner:    inner,
		rate:     rate.Limit(eventsPerSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// getLimiter returns the limiter for a topic, creating one if needed.
func (b *RateLimitedBus) getLimiter(topic string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	limiter, exists := b.limiters[topic]
	if !exists {
		limiter = rate.NewLimiter(b.rate, b.burst)
		b.limiters[topic] = limiter
	}
	return limiter
}

// Publish waits for the topic's limiter and forwards the event.
func (b *RateLimitedBus) Publish(ctx context.Context, topic string, event Event) error {
	if err := b.getLimiter(topic).Wait(ctx); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "publish rate limit wait aborted", err).
			WithDetail("topic", topic)
	}
	return b.inner.Publish(ctx, topic, event)
}

// Subscribe is not limited.
func (b *RateLimitedBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	return b.inner.Subscribe(ctx, topic, handler)
}

// Close closes the wrapped bus.
func (b *RateLimitedBus) Close() error {
	return b.inner.Close()
}
