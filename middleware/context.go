package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/sweater-ventures/funnel/config"
)

func log(ctx context.Context) *slog.Logger {
	log := ctx.Value(config.LoggerContextKey)
	if log == nil {
		return slog.Default()
	} else {
		return (log).(*slog.Logger)
	}
}

// CorrelationID returns the correlation id assigned to the request, or the
// empty string if the middleware did not run.
func CorrelationID(ctx context.Context) string {
	id := ctx.Value(config.CorrelationContextKey)
	if id == nil {
		return ""
	}
	return id.(string)
}

// CorrelationMiddleware assigns a correlation id to the request (honoring an
// inbound X-Correlation-ID header), echoes it on the response, and stores a
// request-scoped logger carrying it in the context.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				correlationID = "unknown"
			} else {
				correlationID = id.String()
			}
		}

		w.Header().Set("X-Correlation-ID", correlationID)

		ctx := context.WithValue(r.Context(), config.CorrelationContextKey, correlationID)
		ctx = context.WithValue(ctx, config.LoggerContextKey, log(r.Context()).With(
			slog.String("correlation_id", correlationID),
		))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
