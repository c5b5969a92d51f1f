package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/identity-service/internal/auth"
	"github.com/frahmantamala/identity-service/internal/core/events"
	"github.com/frahmantamala/identity-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/identity-service/internal/permission/postgres"
	"github.com/frahmantamala/identity-service/internal/user"
	userPostgres "github.com/frahmantamala/identity-service/internal/user/postgres"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the permission catalog and optionally an administrator",
	Long: `Insert any missing built-in permissions. With --admin-email the account is
created when absent and granted every catalog permission.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		lg := slog.Default()
		seeded, err := permission.NewService(permissionPostgres.NewPermissionRepository(db.Gorm), lg).EnsureCatalog(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed permission catalog: %w", err)
		}
		fmt.Printf("Seeded %d permissions\n", len(seeded))

		if seedAdminEmail == "" {
			return nil
		}
		return seedAdmin(ctx, db.Gorm, cfg.Security.BCryptCost, lg)
	},
}

func seedAdmin(ctx context.Context, db *gorm.DB, bcryptCost int, lg *slog.Logger) error {
	users := userPostgres.NewUserRepository(db)

	existing, err := users.GetByNormalizedEmail(ctx, user.NormalizeEmail(seedAdminEmail))
	if err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	userID := ""
	if existing != nil {
		fmt.Println("admin user already exists; will ensure permissions")
		userID = existing.ID
	} else {
		dto := auth.RegisterDTO{Email: seedAdminEmail, Password: seedAdminPassword, FirstName: "Admin"}
		if err := dto.Validate(); err != nil {
			return fmt.Errorf("invalid admin credentials: %w", err)
		}
		dto.Normalize()

		hash, err := auth.NewBcryptHasher(bcryptCost).Hash(dto.Password)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		row := user.ToDataModel(&user.User{
			ID:           uuid.NewString(),
			Email:        dto.Email,
			FirstName:    dto.FirstName,
			PasswordHash: hash,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
		})
		if err := users.Create(ctx, row); err != nil {
			return fmt.Errorf("failed to insert admin user: %w", err)
		}
		fmt.Println("Seeded admin user:", row.Email)
		userID = row.ID
	}

	if err := newAssignmentService(db, lg).Assign(ctx, userID, permission.Catalog()); err != nil {
		return fmt.Errorf("failed to grant catalog to admin: %w", err)
	}
	fmt.Println("Granted all permissions to admin user:", seedAdminEmail)
	return nil
}

// newAssignmentService publishes grants to an audit-only bus.
func newAssignmentService(db *gorm.DB, lg *slog.Logger) *permission.AssignmentService {
	bus := events.NewEventBus(lg)
	events.NewAuditLogger(lg).Register(bus)
	return permission.NewAssignmentService(
		permissionPostgres.NewPermissionRepository(db),
		permissionPostgres.NewAssignmentRepository(db),
		bus,
		lg,
	)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "", "email of the administrator to create or promote")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password used when the administrator is created")
}
