package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/user"
	"github.com/frahmantamala/identity-service/internal/database"
	"github.com/frahmantamala/identity-service/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Create(ctx context.Context, p *userDatamodel.Permission) error {
	err := database.Conn(ctx, r.db).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return permission.ErrDuplicateKey
	}
	return err
}

func (r *PermissionRepository) GetAll(ctx context.Context) ([]*userDatamodel.Permission, error) {
	var rows []*userDatamodel.Permission
	err := database.Conn(ctx, r.db).Order("key ASC").Find(&rows).Error
	return rows, err
}

func (r *PermissionRepository) GetByKey(ctx context.Context, key string) (*userDatamodel.Permission, error) {
	var p userDatamodel.Permission
	err := database.Conn(ctx, r.db).Where("key = ?", key).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) GetByKeys(ctx context.Context, keys []string) ([]*userDatamodel.Permission, error) {
	var rows []*userDatamodel.Permission
	if len(keys) == 0 {
		return rows, nil
	}
	err := database.Conn(ctx, r.db).Where("key IN ?", keys).Order("key ASC").Find(&rows).Error
	return rows, err
}
