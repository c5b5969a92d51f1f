package user

import "time"

type User struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)"`
	Email           string     `gorm:"column:email;type:varchar(256);not null"`
	NormalizedEmail string     `gorm:"column:normalized_email;type:varchar(256);uniqueIndex;not null"`
	PasswordHash    string     `gorm:"column:password_hash;not null"`
	FirstName       string     `gorm:"column:first_name;type:varchar(100);not null"`
	LastName        string     `gorm:"column:last_name;type:varchar(100);not null"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt       *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (User) TableName() string { return "users" }

type Permission struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Key         string    `gorm:"column:key;type:varchar(128);uniqueIndex;not null"`
	Name        string    `gorm:"column:name;type:varchar(128);not null"`
	Description string    `gorm:"column:description;type:varchar(512)"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (Permission) TableName() string { return "permissions" }

// UserPermission has a composite identity; a second grant of the same pair
// is rejected by the primary key.
type UserPermission struct {
	UserID       string    `gorm:"column:user_id;primaryKey;type:varchar(36)"`
	PermissionID string    `gorm:"column:permission_id;primaryKey;type:varchar(36);index"`
	GrantedAt    time.Time `gorm:"column:granted_at;not null"`
}

func (UserPermission) TableName() string { return "user_permissions" }
