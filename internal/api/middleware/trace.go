package middleware

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/phrazzld/curriculum-api/internal/api/shared"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
)

// Trace headers
const (
	TraceIDHeader   = "X-Trace-Id"
	RequestIDHeader = "X-Request-Id"
)

// NewTraceMiddleware assigns each request a trace ID, echoes it in the
// X-Trace-Id response header and puts a request logger carrying it in the
// context. The ID is the active OpenTelemetry trace when there is one, then
// the chi request ID, then a generated value.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := ""
			if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
				traceID = sc.TraceID().String()
			}
			if traceID == "" {
				traceID = chimw.GetReqID(r.Context())
			}
			if traceID == "" {
				traceID = r.Header.Get(RequestIDHeader)
			}

			ctx := shared.WithTraceID(r.Context(), traceID)
			traceID = shared.GetTraceID(ctx)
			w.Header().Set(TraceIDHeader, traceID)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
