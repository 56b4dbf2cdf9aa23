package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/docgate/idgen"
	"github.com/hazyhaar/docgate/kit"
)

var traceID = idgen.NanoID(8)

// TraceID generates a random trace ID for each request and injects it into
// the context, response headers, and a per-request structured logger.
// The trace ID is stored under kit.TraceIDKey and the logger under LoggerKey.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := traceID()

		ctx := kit.WithTraceID(r.Context(), id)
		w.Header().Set("X-Trace-ID", id)

		logger := slog.Default().With(
			"trace_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Info("request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
