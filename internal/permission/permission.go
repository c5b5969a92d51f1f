package permission

import (
	"context"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/user"
)

type Permission struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAtUtc"`
}

type RepositoryAPI interface {
	Create(ctx context.Context, p *userDatamodel.Permission) error
	GetAll(ctx context.Context) ([]*userDatamodel.Permission, error)
	GetByKey(ctx context.Context, key string) (*userDatamodel.Permission, error)
	GetByKeys(ctx context.Context, keys []string) ([]*userDatamodel.Permission, error)
}

type AssignmentRepositoryAPI interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	GetUserPermissionKeys(ctx context.Context, userID string) ([]string, error)
	HasPermission(ctx context.Context, userID, key string) (bool, error)
	Grant(ctx context.Context, userID string, permissionIDs []string, grantedAt time.Time) error
	Revoke(ctx context.Context, userID string, permissionIDs []string) error
}

// NormalizeKey trims and lowercases a permission key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// NormalizeKeys normalizes every key, drops blanks and duplicates, and keeps
// first-seen order.
func NormalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		n := NormalizeKey(k)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func ToDataModel(p *Permission) *userDatamodel.Permission {
	return &userDatamodel.Permission{
		ID:          p.ID,
		Key:         p.Key,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func FromDataModel(p *userDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Key:         p.Key,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}
