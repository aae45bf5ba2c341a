// Package providers holds the outbound clients for hosted models, GitHub and
// translation services. Every call runs through a per-provider circuit breaker.
package providers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"smartdocs-backend/internal/observability"
	"smartdocs-backend/internal/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by clients whose credentials are missing.
var ErrNotConfigured = errors.New("provider not configured")

// ErrNoResult is returned when a provider answered but produced nothing usable.
var ErrNoResult = errors.New("provider returned no usable result")

// Caller executes provider calls with a breaker, metrics and a span each.
type Caller struct {
	logger  *zap.Logger
	metrics *observability.Collector

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewCaller creates a Caller. metrics may be nil.
func NewCaller(logger *zap.Logger, metrics *observability.Collector) *Caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Caller{
		logger:   logger,
		metrics:  metrics,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Do runs fn under the named provider's breaker. A nil Caller runs fn directly.
func (c *Caller) Do(ctx context.Context, provider string, fn func(ctx context.Context) error) error {
	if c == nil {
		return fn(ctx)
	}

	ctx, span := observability.StartSpan(ctx, "provider."+provider, attribute.String("provider", provider))
	start := time.Now()

	_, err := c.breaker(provider).Execute(func() (any, error) {
		return nil, fn(ctx)
	})

	outcome := observability.OutcomeSuccess
	switch {
	case err == nil:
	case resilience.IsOpen(err):
		outcome = observability.OutcomeRejected
		c.logger.Debug("Provider call rejected by breaker", zap.String("provider", provider))
	default:
		outcome = observability.OutcomeFailure
		c.logger.Warn("Provider call failed", zap.String("provider", provider), zap.Error(err))
	}
	c.metrics.ObserveProvider(provider, outcome, time.Since(start))
	observability.EndSpan(span, err)

	return err
}

// Skip records a provider that was not attempted.
func (c *Caller) Skip(provider string) {
	if c == nil {
		return
	}
	c.metrics.ObserveProvider(provider, observability.OutcomeSkipped, 0)
}

// States reports the breaker state of every provider called so far.
func (c *Caller) States() map[string]string {
	if c == nil {
		return map[string]string{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.breakers))
	for name := range c.breakers {
		names = append(names, name)
	}
	sort.Strings(names)

	states := make(map[string]string, len(names))
	for _, name := range names {
		states[name] = c.breakers[name].State().String()
	}
	return states
}

func (c *Caller) breaker(provider string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[provider]
	if !ok {
		cb = resilience.NewBreaker(resilience.ProviderBreakerConfig(provider), c.logger)
		c.breakers[provider] = cb
	}
	return cb
}
