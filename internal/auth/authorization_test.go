package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/auth"
	"github.com/frahmantamala/identity-service/internal/core/identity"
	"github.com/frahmantamala/identity-service/internal/permission"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/frahmantamala/identity-service/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type requirementMap map[string][]string

func (m requirementMap) RequiredPermissions(operation string) []string {
	return m[operation]
}

type countingChecker struct {
	inner auth.PermissionChecker
	calls []string
}

func (c *countingChecker) HasPermission(ctx context.Context, userID, key string) (bool, error) {
	c.calls = append(c.calls, key)
	return c.inner.HasPermission(ctx, userID, key)
}

var _ = ginkgo.Describe("Authorizer", func() {
	var (
		f          *fixture
		ctx        context.Context
		checker    *countingChecker
		reqs       requirementMap
		registered *auth.AuthResponse
		caller     *identity.Identity
	)

	newAuthorizer := func(mode string) *auth.Authorizer {
		return auth.NewAuthorizer(transport.NewBaseHandler(logger.Discard()), reqs, checker, mode)
	}

	ginkgo.BeforeEach(func() {
		f = newFixture()
		ctx = context.Background()
		checker = &countingChecker{inner: f.resolver}
		reqs = requirementMap{
			"public":       nil,
			"users.list":   {permission.ViewUsers},
			"users.manage": {"Permissions.Manage-Users", permission.ManageUsers, permission.ViewUsers},
			"perms.create": {permission.ManagePermissions},
		}

		// first user: holds the whole catalog
		registered = f.register("owner@example.com")
		claims, err := f.issuer.ParseAccessToken(registered.AccessToken)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		caller = &identity.Identity{UserID: claims.Subject, Email: claims.Email, Permissions: claims.Permissions}
	})

	ginkgo.It("defaults to always_recheck", func() {
		gomega.Expect(newAuthorizer("").Mode()).To(gomega.Equal(internal.AuthorizationModeAlwaysRecheck))
	})

	ginkgo.It("allows operations without declared permissions, even anonymously", func() {
		gomega.Expect(newAuthorizer("").Authorize(ctx, nil, "public")).To(gomega.Succeed())
		gomega.Expect(newAuthorizer("").Authorize(ctx, nil, "not-registered")).To(gomega.Succeed())
	})

	ginkgo.It("requires an identity when permissions are declared", func() {
		err := newAuthorizer("").Authorize(ctx, nil, "users.list")
		gomega.Expect(err).To(gomega.MatchError(internal.ErrAuthenticationReq))
	})

	ginkgo.It("checks each declared key once regardless of casing and duplicates", func() {
		err := newAuthorizer(internal.AuthorizationModeAlwaysRecheck).Authorize(ctx, caller, "users.manage")

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(checker.calls).To(gomega.Equal([]string{permission.ManageUsers, permission.ViewUsers}))
	})

	ginkgo.It("skips the resolver for claimed keys in claims_first mode", func() {
		err := newAuthorizer(internal.AuthorizationModeClaimsFirst).Authorize(ctx, caller, "users.manage")

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(checker.calls).To(gomega.BeEmpty())
	})

	ginkgo.It("falls back to the resolver when the claim is missing", func() {
		caller.Permissions = nil

		err := newAuthorizer(internal.AuthorizationModeClaimsFirst).Authorize(ctx, caller, "perms.create")

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(checker.calls).To(gomega.Equal([]string{permission.ManagePermissions}))
	})

	ginkgo.Describe("after a permission is revoked", func() {
		ginkgo.BeforeEach(func() {
			gomega.Expect(f.assignments.Revoke(ctx, caller.UserID, []string{permission.ManagePermissions})).To(gomega.Succeed())
		})

		ginkgo.It("still carries the stale claim while the resolver says no", func() {
			gomega.Expect(caller.HasClaim(permission.ManagePermissions)).To(gomega.BeTrue())

			ok, err := f.resolver.HasPermission(ctx, caller.UserID, permission.ManagePermissions)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("denies in always_recheck mode", func() {
			err := newAuthorizer(internal.AuthorizationModeAlwaysRecheck).Authorize(ctx, caller, "perms.create")
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientPermission))
		})

		ginkgo.It("allows in claims_first mode until the token expires", func() {
			err := newAuthorizer(internal.AuthorizationModeClaimsFirst).Authorize(ctx, caller, "perms.create")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Enforce", func() {
		serve := func(a *auth.Authorizer, op string, id *identity.Identity) *httptest.ResponseRecorder {
			h := a.Enforce(op)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if id != nil {
				req = req.WithContext(identity.ContextWith(req.Context(), id))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec
		}

		ginkgo.It("maps the outcomes to 204, 401 and 403", func() {
			a := newAuthorizer(internal.AuthorizationModeAlwaysRecheck)
			gomega.Expect(serve(a, "users.list", caller).Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(serve(a, "users.list", nil).Code).To(gomega.Equal(http.StatusUnauthorized))

			second := f.register("reader@example.com")
			rec := serve(a, "perms.create", &identity.Identity{UserID: second.User.ID})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))

			var body map[string]map[string]interface{}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body["error"]["code"]).To(gomega.Equal(string(internal.ErrCodeInsufficientPermission)))
		})
	})
})
