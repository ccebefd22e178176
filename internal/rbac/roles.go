package rbac

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/identity"
)

// Wildcard is the resource value that matches any resource.
const Wildcard = "*"

// UserRole returns the default role granted to a freshly registered user:
// create and read on the users resource.
func UserRole() identity.Role {
	return identity.Role{
		ID:   uuid.New(),
		Type: identity.RoleTypeUser,
		Name: "User",
		Permissions: []identity.Permission{
			{ID: uuid.New(), Name: "Create User", Action: identity.ActionCreate, Resource: "users"},
			{ID: uuid.New(), Name: "Read User", Action: identity.ActionRead, Resource: "users"},
		},
	}
}

// AdminRole returns the tenant administrator role: full management of the
// users resource, including listing.
func AdminRole() identity.Role {
	return identity.Role{
		ID:   uuid.New(),
		Type: identity.RoleTypeAdmin,
		Name: "Admin",
		Permissions: []identity.Permission{
			{ID: uuid.New(), Name: "Create User", Action: identity.ActionCreate, Resource: "users"},
			{ID: uuid.New(), Name: "Read User", Action: identity.ActionRead, Resource: "users"},
			{ID: uuid.New(), Name: "Update User", Action: identity.ActionUpdate, Resource: "users"},
			{ID: uuid.New(), Name: "Delete User", Action: identity.ActionDelete, Resource: "users"},
			{ID: uuid.New(), Name: "List Users", Action: identity.ActionList, Resource: "users"},
		},
	}
}

// SuperAdminRole returns the unrestricted role: one wildcard-resource
// permission per action. The evaluator needs no special case for it.
func SuperAdminRole() identity.Role {
	actions := []identity.Action{
		identity.ActionCreate,
		identity.ActionRead,
		identity.ActionUpdate,
		identity.ActionDelete,
		identity.ActionList,
		identity.ActionExecute,
	}
	perms := make([]identity.Permission, 0, len(actions))
	for _, action := range actions {
		perms = append(perms, identity.Permission{
			ID:       uuid.New(),
			Name:     "All",
			Action:   action,
			Resource: Wildcard,
		})
	}
	return identity.Role{
		ID:          uuid.New(),
		Type:        identity.RoleTypeSuperAdmin,
		Name:        "Super Admin",
		Permissions: perms,
	}
}

// RoleByType returns a fresh role value for the given type.
func RoleByType(t identity.RoleType) (identity.Role, error) {
	switch t {
	case identity.RoleTypeUser:
		return UserRole(), nil
	case identity.RoleTypeAdmin:
		return AdminRole(), nil
	case identity.RoleTypeSuperAdmin:
		return SuperAdminRole(), nil
	default:
		return identity.Role{}, fmt.Errorf("unknown role type %q", t)
	}
}
