package auth

import (
	"context"
	"time"

	tokenDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/token"
)

type RefreshToken struct {
	ID          string
	UserID      string
	TokenHash   string
	Salt        string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	CreatedByIP string
	RevokedAt   *time.Time
	RevokedByIP *string
}

// IsActive holds while the token is unrevoked and now has not passed expiry.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && !now.After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

type RefreshTokenRepositoryAPI interface {
	Create(ctx context.Context, t *tokenDatamodel.RefreshToken) error
	GetByID(ctx context.Context, id string) (*tokenDatamodel.RefreshToken, error)
	// Revoke marks an unrevoked token and reports whether this call did it.
	Revoke(ctx context.Context, id string, at time.Time, ip string) (bool, error)
	// PurgeExpired deletes tokens expired before now; an empty userID means every user.
	PurgeExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}

func ToDataModel(t *RefreshToken) *tokenDatamodel.RefreshToken {
	return &tokenDatamodel.RefreshToken{
		ID:          t.ID,
		UserID:      t.UserID,
		TokenHash:   t.TokenHash,
		Salt:        t.Salt,
		ExpiresAt:   t.ExpiresAt,
		CreatedAt:   t.CreatedAt,
		CreatedByIP: t.CreatedByIP,
		RevokedAt:   t.RevokedAt,
		RevokedByIP: t.RevokedByIP,
	}
}

func FromDataModel(t *tokenDatamodel.RefreshToken) *RefreshToken {
	return &RefreshToken{
		ID:          t.ID,
		UserID:      t.UserID,
		TokenHash:   t.TokenHash,
		Salt:        t.Salt,
		ExpiresAt:   t.ExpiresAt,
		CreatedAt:   t.CreatedAt,
		CreatedByIP: t.CreatedByIP,
		RevokedAt:   t.RevokedAt,
		RevokedByIP: t.RevokedByIP,
	}
}
