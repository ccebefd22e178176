package tenant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no tenant matches the lookup.
	ErrNotFound = errors.New("tenant not found")
	// ErrDuplicateDomain is returned when the domain is already taken.
	ErrDuplicateDomain = errors.New("domain already registered")
)

// Tenant is the isolation boundary of the system. Every user and session
// belongs to exactly one tenant; active=false disables authentication for
// all of the tenant's users.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New constructs an active tenant with a fresh id.
func New(name, domain string) *Tenant {
	now := time.Now().UTC()
	return &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Domain:    domain,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
