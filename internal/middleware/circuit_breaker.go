package middleware

import (
	"errors"
	"net/http"
	"strings"

	"smartdocs-backend/internal/resilience"
	"smartdocs-backend/pkg/api"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var errServerFailure = errors.New("handler returned 5xx")

// countsAsFailure reports whether a response status trips the breaker. A 503
// already reports an unavailable dependency and the group itself still works.
func countsAsFailure(status int) bool {
	return status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable
}

// CircuitBreaker fails fast with 503 once a route group keeps returning
// server errors. Health checks bypass the breaker.
func CircuitBreaker(config resilience.BreakerConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := resilience.NewBreaker(config, logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}
			_, err := cb.Execute(func() (any, error) {
				wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
				next.ServeHTTP(wrapper, r)

				if countsAsFailure(wrapper.statusCode) {
					return nil, errServerFailure
				}
				return nil, nil
			})

			switch {
			case err == nil, errors.Is(err, errServerFailure):
				// The handler already wrote its response.
			case errors.Is(err, gobreaker.ErrOpenState):
				logger.Warn("Circuit breaker open",
					zap.String("breaker", config.Name),
					zap.String("path", r.URL.Path),
				)
				api.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable - too many failures")
			case errors.Is(err, gobreaker.ErrTooManyRequests):
				api.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable - too many requests")
			default:
				logger.Error("Circuit breaker internal error", zap.String("breaker", config.Name), zap.Error(err))
				api.Error(w, http.StatusInternalServerError, "Service error")
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
