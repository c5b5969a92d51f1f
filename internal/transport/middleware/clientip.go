package middleware

import (
	"net/http"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/pkg/logger"
)

// ClientIP records the originating address on the context and the request logger.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := internal.ClientIP(r)
		ctx := internal.ContextWithClientIP(r.Context(), ip)
		ctx = logger.With(ctx, "client_ip", ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
