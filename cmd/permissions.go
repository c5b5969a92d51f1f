package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/identity-service/internal/permission"
	permissionPostgres "github.com/frahmantamala/identity-service/internal/permission/postgres"
	"github.com/frahmantamala/identity-service/internal/user"
	userPostgres "github.com/frahmantamala/identity-service/internal/user/postgres"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	permissionEmail string
	permissionKeys  []string
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Inspect and change permission grants",
}

var permissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered permissions, or the keys held by --email",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		_, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if permissionEmail != "" {
			userID, err := userIDByEmail(ctx, db.Gorm, permissionEmail)
			if err != nil {
				return err
			}
			keys, err := newAssignmentService(db.Gorm, slog.Default()).UserPermissions(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Println(strings.Join(keys, "\n"))
			return nil
		}

		perms, err := permission.NewService(permissionPostgres.NewPermissionRepository(db.Gorm), slog.Default()).GetAll(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tNAME\tDESCRIPTION")
		for _, p := range perms {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Key, p.Name, p.Description)
		}
		return w.Flush()
	},
}

var permissionsGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant --key values to the user with --email",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateGrants(cmd, func(ctx context.Context, svc *permission.AssignmentService, userID string) error {
			return svc.Assign(ctx, userID, permissionKeys)
		})
	},
}

var permissionsRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke --key values from the user with --email",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateGrants(cmd, func(ctx context.Context, svc *permission.AssignmentService, userID string) error {
			return svc.Revoke(ctx, userID, permissionKeys)
		})
	},
}

func updateGrants(cmd *cobra.Command, apply func(context.Context, *permission.AssignmentService, string) error) error {
	if permissionEmail == "" || len(permissionKeys) == 0 {
		return fmt.Errorf("--email and at least one --key are required")
	}

	ctx := commandContext(cmd)
	_, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	userID, err := userIDByEmail(ctx, db.Gorm, permissionEmail)
	if err != nil {
		return err
	}

	svc := newAssignmentService(db.Gorm, slog.Default())
	if err := apply(ctx, svc, userID); err != nil {
		return err
	}
	keys, err := svc.UserPermissions(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("%s now holds: %s\n", permissionEmail, strings.Join(keys, ", "))
	return nil
}

func userIDByEmail(ctx context.Context, db *gorm.DB, email string) (string, error) {
	row, err := userPostgres.NewUserRepository(db).GetByNormalizedEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", fmt.Errorf("no user with email %s", email)
	}
	return row.ID, nil
}

func init() {
	permissionsCmd.PersistentFlags().StringVarP(&permissionEmail, "email", "e", "", "user email")
	for _, c := range []*cobra.Command{permissionsGrantCmd, permissionsRevokeCmd} {
		c.Flags().StringSliceVarP(&permissionKeys, "key", "k", nil, "permission key, repeatable or comma separated")
	}

	permissionsCmd.AddCommand(permissionsListCmd)
	permissionsCmd.AddCommand(permissionsGrantCmd)
	permissionsCmd.AddCommand(permissionsRevokeCmd)
}
