package token

import "time"

type RefreshToken struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)"`
	UserID      string     `gorm:"column:user_id;type:varchar(36);not null;index"`
	TokenHash   string     `gorm:"column:token_hash;type:varchar(128);not null;uniqueIndex:ux_refresh_tokens_hash_salt"`
	Salt        string     `gorm:"column:salt;type:varchar(64);not null;uniqueIndex:ux_refresh_tokens_hash_salt"`
	ExpiresAt   time.Time  `gorm:"column:expires_at;not null;index"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
	CreatedByIP string     `gorm:"column:created_by_ip;type:varchar(64)"`
	RevokedAt   *time.Time `gorm:"column:revoked_at"`
	RevokedByIP *string    `gorm:"column:revoked_by_ip;type:varchar(64)"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }
