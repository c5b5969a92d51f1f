// Package app assembles repositories, services and handlers into a router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/identity-service/api"
	"github.com/frahmantamala/identity-service/internal"
	"github.com/frahmantamala/identity-service/internal/auth"
	authPostgres "github.com/frahmantamala/identity-service/internal/auth/postgres"
	"github.com/frahmantamala/identity-service/internal/core/events"
	"github.com/frahmantamala/identity-service/internal/database"
	"github.com/frahmantamala/identity-service/internal/metrics"
	"github.com/frahmantamala/identity-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/identity-service/internal/permission/postgres"
	"github.com/frahmantamala/identity-service/internal/transport"
	"github.com/frahmantamala/identity-service/internal/transport/rest"
	"github.com/frahmantamala/identity-service/internal/transport/swagger"
	"github.com/frahmantamala/identity-service/internal/user"
	userPostgres "github.com/frahmantamala/identity-service/internal/user/postgres"
	"github.com/go-chi/chi"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config *internal.Config
	DB     *gorm.DB
	Pinger rest.Pinger
	Logger *slog.Logger

	// Clock overrides the token issuer's time source.
	Clock func() time.Time
}

type App struct {
	Router      *chi.Mux
	Bus         *events.EventBus
	Metrics     *metrics.Metrics
	Auth        *auth.Service
	Users       *user.Service
	Permissions *permission.Service
	Assignments *permission.AssignmentService
	Authorizer  *auth.Authorizer
}

// New wires every component and seeds the permission catalog.
func New(ctx context.Context, deps Dependencies) (*App, error) {
	cfg := deps.Config
	lg := deps.Logger
	if lg == nil {
		lg = slog.Default()
	}

	var opts []auth.IssuerOption
	if deps.Clock != nil {
		opts = append(opts, auth.WithClock(deps.Clock))
	}
	issuer, err := auth.NewTokenIssuer(cfg.Security, opts...)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	doc, err := swagger.LoadSpec(ctx, api.OpenAPI)
	if err != nil {
		return nil, err
	}
	lg.Debug("openapi document loaded", "version", doc.Info.Version, "paths", len(doc.Paths.Map()))

	bus := events.NewEventBus(lg)
	events.NewAuditLogger(lg).Register(bus)

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New()
		m.Register(bus)
	}

	permRepo := permissionPostgres.NewPermissionRepository(deps.DB)
	assignRepo := permissionPostgres.NewAssignmentRepository(deps.DB)
	permService := permission.NewService(permRepo, lg)
	assignments := permission.NewAssignmentService(permRepo, assignRepo, bus, lg)
	resolver := permission.NewResolver(assignRepo)

	seeded, err := permService.EnsureCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed permission catalog: %w", err)
	}
	if len(seeded) > 0 {
		lg.Info("permission catalog seeded", "keys", seeded)
	}

	userService := user.NewService(userPostgres.NewUserRepository(deps.DB), resolver, lg)
	authService := auth.NewService(auth.Dependencies{
		Users:     userPostgres.NewUserRepository(deps.DB),
		Tokens:    authPostgres.NewRefreshTokenRepository(deps.DB),
		Issuer:    issuer,
		Hasher:    auth.NewBcryptHasher(cfg.Security.BCryptCost),
		Resolver:  resolver,
		Granter:   assignments,
		TxManager: database.NewTxManager(deps.DB),
		Publisher: bus,
		Logger:    lg,
	})

	base := transport.NewBaseHandler(lg)
	authorizer := auth.NewAuthorizer(base, rest.Operations{}, resolver, cfg.Security.AuthorizationMode)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:           auth.NewHandler(base, authService, issuer),
		Users:          user.NewHandler(base, userService),
		Permissions:    permission.NewHandler(base, permService, assignments),
		Authorizer:     authorizer,
		Health:         rest.NewHealthHandler(base, deps.Pinger),
		Metrics:        m,
		MetricsPath:    cfg.Observability.Metrics.Path,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPISpec:    api.OpenAPI,
		Logger:         lg,
	})

	return &App{
		Router:      router,
		Bus:         bus,
		Metrics:     m,
		Auth:        authService,
		Users:       userService,
		Permissions: permService,
		Assignments: assignments,
		Authorizer:  authorizer,
	}, nil
}
