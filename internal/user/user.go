package user

import (
	"context"
	"errors"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/user"
)

// ErrDuplicateEmail is returned by repositories when the normalized email index rejects an insert.
var ErrDuplicateEmail = errors.New("normalized email already exists")

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAtUtc"`
	UpdatedAt    *time.Time `json:"updatedAtUtc,omitempty"`
	Permissions  []string   `json:"permissions"`
}

// DisplayName is "First Last" with stray whitespace removed.
func (u *User) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (*userDatamodel.User, error)
	Count(ctx context.Context) (int64, error)
	GetAll(ctx context.Context) ([]*userDatamodel.User, error)
	GetPage(ctx context.Context, offset, limit int) ([]*userDatamodel.User, error)
}

// NormalizeEmail is the lookup form stored in the unique index.
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}

// CanonicalEmail is the display form stored alongside it.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:              u.ID,
		Email:           CanonicalEmail(u.Email),
		NormalizedEmail: NormalizeEmail(u.Email),
		PasswordHash:    u.PasswordHash,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		IsActive:        u.IsActive,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		Permissions:  []string{},
	}
}

func FromDataModelWithPermissions(u *userDatamodel.User, permissions []string) *User {
	domainUser := FromDataModel(u)
	if permissions != nil {
		domainUser.Permissions = permissions
	}
	return domainUser
}
