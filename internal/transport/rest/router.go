package rest

import (
	"log/slog"
	"net/http"

	apperrors "github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/auth"
	"github.com/frahmantamala/identity-service/internal/metrics"
	"github.com/frahmantamala/identity-service/internal/permission"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/frahmantamala/identity-service/internal/transport/middleware"
	"github.com/frahmantamala/identity-service/internal/transport/swagger"
	"github.com/frahmantamala/identity-service/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers bundles everything the router mounts. Metrics and OpenAPISpec are
// optional.
type Handlers struct {
	Auth        *auth.Handler
	Users       *user.Handler
	Permissions *permission.Handler
	Authorizer  *auth.Authorizer
	Health      *HealthHandler
	Metrics     *metrics.Metrics

	MetricsPath    string
	AllowedOrigins string
	OpenAPISpec    []byte
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers) {
	base := transport.NewBaseHandler(h.Logger)

	// Apply global middleware
	router.Use(middleware.InjectLogger(base.Logger))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.ClientIP)
	router.Use(middleware.RecoveryMiddleware(base))
	if h.Metrics != nil {
		router.Use(h.Metrics.Instrument)
	}
	router.Use(middleware.CORS(h.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware)

	if len(h.OpenAPISpec) > 0 {
		router.Get("/openapi.yml", swagger.SpecHandler(h.OpenAPISpec))
		router.Handle("/swagger/*", swagger.Handler())
	}
	if h.Metrics != nil {
		path := h.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, h.Metrics.Handler())
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.HandleError(w, apperrors.NewNotFoundError("Route not found", apperrors.ErrCodeRouteNotFound))
	})

	enforce := h.Authorizer.Enforce

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", h.Health.Ping)
		r.Get("/health", h.Health.Health)

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", h.Auth.Register)
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.Refresh)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.Authenticate)

			pr.Route("/users", func(ur chi.Router) {
				ur.With(h.Auth.RequireAuthentication).Get("/me", h.Users.GetCurrentUser)
				ur.With(enforce(OpListUsers)).Get("/", h.Users.GetUsers)
				ur.With(enforce(OpListUsersPaged)).Get("/paged", h.Users.GetUsersPaged)
				ur.With(enforce(OpGetUser)).Get("/{id}", h.Users.GetUser)

				ur.With(enforce(OpGetUserPermissions)).Get("/{id}/permissions", h.Permissions.GetUserPermissions)
				ur.With(enforce(OpAssignUserPermissions)).Post("/{id}/permissions", h.Permissions.AssignUserPermissions)
				ur.With(enforce(OpRevokeUserPermissions)).Delete("/{id}/permissions", h.Permissions.RevokeUserPermissions)
			})

			pr.Route("/permissions", func(per chi.Router) {
				per.With(enforce(OpListPermissions)).Get("/", h.Permissions.GetPermissions)
				per.With(enforce(OpCreatePermission)).Post("/", h.Permissions.CreatePermission)
				per.With(enforce(OpGetPermission)).Get("/{key}", h.Permissions.GetPermission)
			})
		})
	})
}
