package middleware

import (
	"net/http"

	"github.com/frahmantamala/identity-service/pkg/logger"
	"github.com/google/uuid"
)

const TraceIDHeader = "X-Trace-ID"

// RequestID accepts a caller supplied trace id when it is a UUID and mints
// one otherwise.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
