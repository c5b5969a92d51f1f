package internal

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

type ctxKey string

const ContextClientIPKey ctxKey = "clientIP"

func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if ip, ok := ctx.Value(ContextClientIPKey).(string); ok {
		return ip
	}
	return ""
}

func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextClientIPKey, ip)
}

// ClientIP returns the peer address of r, or "" when it is not an IP.
// Forwarding headers are never read here: chi's RealIP middleware rewrites
// RemoteAddr when the service runs behind a trusted proxy.
func ClientIP(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
