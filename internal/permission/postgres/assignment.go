package postgres

import (
	"context"
	"time"

	userDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/user"
	"github.com/frahmantamala/identity-service/internal/database"
	"github.com/frahmantamala/identity-service/internal/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) permission.AssignmentRepositoryAPI {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).Where("id = ?", userID).Count(&n).Error
	return n > 0, err
}

func (r *AssignmentRepository) GetUserPermissionKeys(ctx context.Context, userID string) ([]string, error) {
	keys := []string{}
	err := database.Conn(ctx, r.db).
		Table("user_permissions AS up").
		Joins("JOIN permissions p ON p.id = up.permission_id").
		Where("up.user_id = ?", userID).
		Order("p.key ASC").
		Pluck("p.key", &keys).Error
	return keys, err
}

func (r *AssignmentRepository) HasPermission(ctx context.Context, userID, key string) (bool, error) {
	var n int64
	err := database.Conn(ctx, r.db).
		Table("user_permissions AS up").
		Joins("JOIN permissions p ON p.id = up.permission_id").
		Where("up.user_id = ? AND p.key = ?", userID, key).
		Count(&n).Error
	return n > 0, err
}

// Grant ignores pairs that already exist so a concurrent grant of the same
// key cannot fail the caller.
func (r *AssignmentRepository) Grant(ctx context.Context, userID string, permissionIDs []string, grantedAt time.Time) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	rows := make([]userDatamodel.UserPermission, 0, len(permissionIDs))
	for _, pid := range permissionIDs {
		rows = append(rows, userDatamodel.UserPermission{UserID: userID, PermissionID: pid, GrantedAt: grantedAt})
	}
	return database.Conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *AssignmentRepository) Revoke(ctx context.Context, userID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db).
		Where("user_id = ? AND permission_id IN ?", userID, permissionIDs).
		Delete(&userDatamodel.UserPermission{}).Error
}
