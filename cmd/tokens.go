package cmd

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/identity-service/internal/auth"
	authPostgres "github.com/frahmantamala/identity-service/internal/auth/postgres"
	"github.com/frahmantamala/identity-service/internal/core/events"
	"github.com/frahmantamala/identity-service/internal/database"
	"github.com/frahmantamala/identity-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/identity-service/internal/permission/postgres"
	userPostgres "github.com/frahmantamala/identity-service/internal/user/postgres"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Refresh token maintenance",
}

var tokensPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired refresh tokens for every user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		lg := slog.Default()
		issuer, err := auth.NewTokenIssuer(cfg.Security)
		if err != nil {
			return err
		}
		assignRepo := permissionPostgres.NewAssignmentRepository(db.Gorm)
		svc := auth.NewService(auth.Dependencies{
			Users:     userPostgres.NewUserRepository(db.Gorm),
			Tokens:    authPostgres.NewRefreshTokenRepository(db.Gorm),
			Issuer:    issuer,
			Hasher:    auth.NewBcryptHasher(cfg.Security.BCryptCost),
			Resolver:  permission.NewResolver(assignRepo),
			Granter:   newAssignmentService(db.Gorm, lg),
			TxManager: database.NewTxManager(db.Gorm),
			Publisher: events.NewEventBus(lg),
			Logger:    lg,
		})

		n, err := svc.PurgeExpired(ctx)
		if err != nil {
			return fmt.Errorf("failed to purge refresh tokens: %w", err)
		}
		fmt.Printf("Purged %d expired refresh tokens\n", n)
		return nil
	},
}

func init() {
	tokensCmd.AddCommand(tokensPurgeCmd)
}
