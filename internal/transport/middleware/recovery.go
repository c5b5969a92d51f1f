package middleware

import (
	"net/http"
	"runtime/debug"

	apperrors "github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/frahmantamala/identity-service/pkg/logger"
)

// RecoveryMiddleware turns a panic into an opaque 500 and logs the stack.
func RecoveryMiddleware(base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.From(r.Context()).ErrorContext(r.Context(), "panic recovered",
						"error", rec,
						"method", r.Method,
						"url", r.URL.String(),
						"stack", string(debug.Stack()))

					base.HandleError(w, apperrors.NewInternalError("An unexpected error occurred", nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
