package auth

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/core/identity"
	"github.com/frahmantamala/identity-service/internal/permission"
	"github.com/frahmantamala/identity-service/internal/transport"
)

// RequirementSource maps an operation id to the permission keys it declares.
type RequirementSource interface {
	RequiredPermissions(operation string) []string
}

type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, key string) (bool, error)
}

// Authorizer gates operations on their declared permissions. In claims_first
// mode a key asserted by the access token is trusted; every other key, and
// every key in always_recheck mode, is confirmed against the live resolver.
type Authorizer struct {
	base         *transport.BaseHandler
	requirements RequirementSource
	checker      PermissionChecker
	mode         string
	logger       *slog.Logger
}

func NewAuthorizer(base *transport.BaseHandler, requirements RequirementSource, checker PermissionChecker, mode string) *Authorizer {
	if mode == "" {
		mode = internal.AuthorizationModeAlwaysRecheck
	}
	return &Authorizer{
		base:         base,
		requirements: requirements,
		checker:      checker,
		mode:         mode,
		logger:       base.Logger,
	}
}

func (a *Authorizer) Mode() string {
	return a.mode
}

// Authorize returns nil when caller may run operation.
func (a *Authorizer) Authorize(ctx context.Context, caller *identity.Identity, operation string) error {
	required := permission.NormalizeKeys(a.requirements.RequiredPermissions(operation))
	if len(required) == 0 {
		return nil
	}
	if caller == nil || caller.UserID == "" {
		return internal.ErrAuthenticationReq
	}
	sort.Strings(required)

	for _, key := range required {
		if a.mode == internal.AuthorizationModeClaimsFirst && caller.HasClaim(key) {
			continue
		}

		ok, err := a.checker.HasPermission(ctx, caller.UserID, key)
		if err != nil {
			return internal.NewInternalError("failed to check permission", err)
		}
		if !ok {
			a.logger.WarnContext(ctx, "access denied: insufficient permissions",
				"user_id", caller.UserID,
				"operation", operation,
				"required_permission", key)
			return internal.ErrInsufficientPermission
		}
	}
	return nil
}

// Enforce is the per-route middleware for operation.
func (a *Authorizer) Enforce(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, _ := identity.FromContext(r.Context())
			if err := a.Authorize(r.Context(), caller, operation); err != nil {
				a.base.HandleServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
