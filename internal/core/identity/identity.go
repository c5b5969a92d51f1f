// Package identity carries the authenticated caller through request contexts.
package identity

import (
	"context"
	"strings"
)

type ctxKey struct{}

// Identity is what a verified access token says about its bearer. The
// permission list is a snapshot from mint time and may be stale.
type Identity struct {
	UserID      string
	Email       string
	Name        string
	Permissions []string
}

// HasClaim reports whether the token asserted key, ignoring case.
func (i *Identity) HasClaim(key string) bool {
	if i == nil {
		return false
	}
	for _, p := range i.Permissions {
		if strings.EqualFold(strings.TrimSpace(p), key) {
			return true
		}
	}
	return false
}

func ContextWith(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil && id.UserID != ""
}
