package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/user"
	"github.com/frahmantamala/identity-service/internal/database"
	"github.com/frahmantamala/identity-service/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	err := database.Conn(ctx, r.db).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return user.ErrDuplicateEmail
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := database.Conn(ctx, r.db).Where("normalized_email = ?", normalizedEmail).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*userDatamodel.User, error) {
	var rows []*userDatamodel.User
	err := database.Conn(ctx, r.db).Order("email ASC").Find(&rows).Error
	return rows, err
}

func (r *UserRepository) GetPage(ctx context.Context, offset, limit int) ([]*userDatamodel.User, error) {
	var rows []*userDatamodel.User
	err := database.Conn(ctx, r.db).
		Order("email ASC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
