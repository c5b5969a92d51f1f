package rest

import (
	"sort"

	"github.com/frahmantamala/identity-service/internal/permission"
)

// Operation ids. Each route is registered under exactly one of them and the
// OpenAPI document uses the same ids.
const (
	OpPing   = "ping"
	OpHealth = "health"

	OpRegister = "auth.register"
	OpLogin    = "auth.login"
	OpRefresh  = "auth.refresh"

	OpGetCurrentUser = "users.me"
	OpListUsers      = "users.list"
	OpListUsersPaged = "users.list-paged"
	OpGetUser        = "users.get"

	OpGetUserPermissions    = "users.permissions.list"
	OpAssignUserPermissions = "users.permissions.assign"
	OpRevokeUserPermissions = "users.permissions.revoke"

	OpListPermissions  = "permissions.list"
	OpGetPermission    = "permissions.get"
	OpCreatePermission = "permissions.create"
)

// requiredPermissions is the single place routes declare what they need.
// Operations absent from the map, or mapped to nothing, are open.
var requiredPermissions = map[string][]string{
	OpPing:           nil,
	OpHealth:         nil,
	OpRegister:       nil,
	OpLogin:          nil,
	OpRefresh:        nil,
	OpGetCurrentUser: nil,

	OpListUsers:      {permission.ViewUsers},
	OpListUsersPaged: {permission.ViewUsers},
	OpGetUser:        {permission.ViewUsers},

	OpGetUserPermissions:    {permission.ViewUsers},
	OpAssignUserPermissions: {permission.ManagePermissions},
	OpRevokeUserPermissions: {permission.ManagePermissions},

	OpListPermissions:  {permission.ViewPermissions},
	OpGetPermission:    {permission.ViewPermissions},
	OpCreatePermission: {permission.ManagePermissions},
}

// Operations satisfies auth.RequirementSource.
type Operations struct{}

func (Operations) RequiredPermissions(operation string) []string {
	keys := requiredPermissions[operation]
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// OperationIDs lists every registered operation in sorted order.
func OperationIDs() []string {
	ids := make([]string, 0, len(requiredPermissions))
	for id := range requiredPermissions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
