// Package resilience builds circuit breakers shared by the HTTP middleware and
// the outbound provider clients.
package resilience

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for a circuit breaker.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that trips the breaker once MinRequests is reached.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the configuration used for route groups.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// ProviderBreakerConfig trips faster than the route default. A provider that
// keeps failing is skipped so the next fallback answers without waiting.
func ProviderBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// NewBreaker creates a gobreaker circuit breaker that logs state changes.
func NewBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// IsOpen reports whether err is a breaker rejection rather than a call failure.
func IsOpen(err error) bool {
	return err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests
}
