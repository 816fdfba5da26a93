package middleware

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sellerdesk/taskd/internal/api/shared"
	"github.com/sellerdesk/taskd/internal/platform/logger"
)

// TraceIDHeader carries the trace ID back to the client.
const TraceIDHeader = "X-Trace-ID"

// NewTraceMiddleware adds a trace ID to the request context and stores a
// request-scoped logger tagged with it. It should run after chi's RequestID
// middleware so the request ID is attached as well.
func NewTraceMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			reqLogger := log.With("trace_id", traceID)
			if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
				reqLogger = reqLogger.With("request_id", reqID)
			}
			ctx = logger.WithLogger(ctx, reqLogger)

			w.Header().Set(TraceIDHeader, traceID)

			reqLogger.Debug("request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
