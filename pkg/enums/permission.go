package enums

import "fmt"

// Permission is a named capability granted to an admin role.
type Permission string

const (
	PermissionManageProducts   Permission = "manage_products"
	PermissionManageCategories Permission = "manage_categories"
	PermissionManageDiscounts  Permission = "manage_discounts"
	PermissionManageAdmins     Permission = "manage_admins"
	PermissionViewUsers        Permission = "view_users"
)

var validPermissions = []Permission{
	PermissionManageProducts,
	PermissionManageCategories,
	PermissionManageDiscounts,
	PermissionManageAdmins,
	PermissionViewUsers,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}

// AllPermissions returns the closed set of known permissions.
func AllPermissions() []Permission {
	out := make([]Permission, len(validPermissions))
	copy(out, validPermissions)
	return out
}
