package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/identity-service/internal/auth"
	tokenDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/token"
	"github.com/frahmantamala/identity-service/internal/database"
	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) auth.RefreshTokenRepositoryAPI {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *tokenDatamodel.RefreshToken) error {
	return database.Conn(ctx, r.db).Create(t).Error
}

func (r *RefreshTokenRepository) GetByID(ctx context.Context, id string) (*tokenDatamodel.RefreshToken, error) {
	var t tokenDatamodel.RefreshToken
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Revoke is a compare-and-swap on revoked_at: of two concurrent callers only
// one sees a row affected.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string, at time.Time, ip string) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&tokenDatamodel.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{
			"revoked_at":    at,
			"revoked_by_ip": ip,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RefreshTokenRepository) PurgeExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	q := database.Conn(ctx, r.db).Where("expires_at < ?", now)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Delete(&tokenDatamodel.RefreshToken{})
	return res.RowsAffected, res.Error
}
