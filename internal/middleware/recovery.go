package middleware

import (
	"net/http"
	"runtime/debug"

	"smartdocs-backend/pkg/api"

	"go.uber.org/zap"
)

// Recovery converts panics into 500 responses and logs the stack.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("Panic recovered",
						zap.String("request_id", GetRequestIDFromRequest(r)),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Any("panic", err),
						zap.ByteString("stack", debug.Stack()),
					)

					// Nothing can be sent once the handler has started a response.
					if w.Header().Get("Content-Type") == "" {
						api.Error(w, http.StatusInternalServerError, "Internal server error")
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
