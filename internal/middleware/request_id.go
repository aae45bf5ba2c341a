package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Lambda deployments receive the gateway's id in this header.
const gatewayRequestIDHeader = "X-Amzn-Request-Id"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestID propagates a caller-supplied request id, or generates one, into
// the request context and the response header. Ids that could corrupt log
// lines are replaced.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := inboundRequestID(r)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}

func inboundRequestID(r *http.Request) string {
	for _, header := range []string{RequestIDHeader, gatewayRequestIDHeader} {
		if id := r.Header.Get(header); validRequestID.MatchString(id) {
			return id
		}
	}
	return ""
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetRequestIDFromRequest extracts the request ID from the request context
func GetRequestIDFromRequest(r *http.Request) string {
	return GetRequestID(r.Context())
}
