package permission

import (
	"context"
	"sort"

	customValidation "github.com/frahmantamala/identity-service/internal/core/common/validation"
)

// Resolver answers permission questions from the assignment table on every
// call. It is consulted when tokens are minted and again at request time.
type Resolver struct {
	repo AssignmentRepositoryAPI
}

func NewResolver(repo AssignmentRepositoryAPI) *Resolver {
	return &Resolver{repo: repo}
}

// HasPermission returns false without querying for blank or malformed keys.
func (r *Resolver) HasPermission(ctx context.Context, userID, key string) (bool, error) {
	key = NormalizeKey(key)
	if userID == "" || key == "" || !customValidation.IsPermissionKey(key) {
		return false, nil
	}
	return r.repo.HasPermission(ctx, userID, key)
}

// GetUserPermissions returns the sorted, de-duplicated set of granted keys.
func (r *Resolver) GetUserPermissions(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return []string{}, nil
	}

	keys, err := r.repo.GetUserPermissionKeys(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := NormalizeKeys(keys)
	sort.Strings(out)
	return out, nil
}
