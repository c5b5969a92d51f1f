package permission

import "strings"

const (
	ManageUsers       = "permissions.manage-users"
	ViewUsers         = "permissions.view-users"
	ManagePermissions = "permissions.manage-permissions"
	ViewPermissions   = "permissions.view-permissions"
)

// Catalog lists every built-in permission. The first registered user is
// granted all of them.
func Catalog() []string {
	return []string{ManageUsers, ViewUsers, ManagePermissions, ViewPermissions}
}

// BaselineKeys is what every user after the first starts with.
func BaselineKeys() []string {
	return []string{ViewUsers}
}

// DefaultKeysFor returns the permission set granted at registration.
func DefaultKeysFor(firstUser bool) []string {
	if firstUser {
		return Catalog()
	}
	return BaselineKeys()
}

// CatalogEntry derives display metadata from a key:
// permissions.manage-users -> "MANAGE USERS", "Allows permissions manage-users".
func CatalogEntry(key string) (name, description string) {
	segment := key
	if i := strings.LastIndex(key, "."); i >= 0 {
		segment = key[i+1:]
	}
	name = strings.ToUpper(strings.ReplaceAll(segment, "-", " "))
	description = "Allows " + strings.ReplaceAll(key, ".", " ")
	return name, description
}
