package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when (tenant_id, email) already exists.
	ErrDuplicateEmail = errors.New("email already registered for tenant")
)

// RoleType classifies a role. SuperAdmin roles carry wildcard-resource
// permissions; the evaluator treats that as data, not as a special case.
type RoleType string

const (
	RoleTypeUser       RoleType = "user"
	RoleTypeAdmin      RoleType = "admin"
	RoleTypeSuperAdmin RoleType = "superadmin"
)

// Action is the verb side of a permission. ActionAdmin is the wildcard
// action carried by admin-grade permissions.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionList    Action = "list"
	ActionExecute Action = "execute"
	ActionAdmin   Action = "admin"
)

// Permission grants an action on a resource. A resource of "*" matches any
// resource.
type Permission struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Action   Action    `json:"action"`
	Resource string    `json:"resource"`
}

// Role is a named bundle of permissions. Role identity is by ID.
type Role struct {
	ID          uuid.UUID    `json:"id"`
	Type        RoleType     `json:"type"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// User is a tenant-scoped account. PasswordHash and MFASecret never leave
// the server.
type User struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Active       bool       `json:"active"`
	Roles        []Role     `json:"roles"`
	MFAEnabled   bool       `json:"mfa_enabled"`
	MFASecret    string     `json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Credentials is the request-time login value. It is never persisted.
// An empty MFACode means no code was supplied.
type Credentials struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	TenantID uuid.UUID `json:"tenant_id"`
	MFACode  string    `json:"mfa_code,omitempty"`
}
