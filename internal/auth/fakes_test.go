package auth_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/auth"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/rbac"
	"github.com/halcyonlabs/halcyon/internal/session"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

// fakeUserRepo is a map-backed identity.Repository enforcing the same
// uniqueness and tenant-scoping rules as the Postgres implementation.
type fakeUserRepo struct {
	mu           sync.Mutex
	users        map[uuid.UUID]identity.User
	catalog      map[uuid.UUID][]identity.Role
	lastLoginErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[uuid.UUID]identity.User),
		catalog: make(map[uuid.UUID][]identity.Role),
	}
}

func copyUser(u identity.User) *identity.User {
	out := u
	out.Roles = append([]identity.Role(nil), u.Roles...)
	return &out
}

func (f *fakeUserRepo) Create(_ context.Context, user *identity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.TenantID == user.TenantID && existing.Email == user.Email {
			return identity.ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.ID] = *copyUser(*user)
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.TenantID == tenantID && u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, tenantID, userID uuid.UUID) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, identity.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *identity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.users[user.ID]
	if !ok || existing.TenantID != user.TenantID {
		return identity.ErrUserNotFound
	}
	for _, other := range f.users {
		if other.ID != user.ID && other.TenantID == user.TenantID && other.Email == user.Email {
			return identity.ErrDuplicateEmail
		}
	}
	user.UpdatedAt = time.Now().UTC()
	f.users[user.ID] = *copyUser(*user)
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, tenantID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok || u.TenantID != tenantID {
		return identity.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, tenantID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lastLoginErr != nil {
		return f.lastLoginErr
	}
	u, ok := f.users[userID]
	if !ok || u.TenantID != tenantID {
		return identity.ErrUserNotFound
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	f.users[userID] = u
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, tenantID uuid.UUID) ([]identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []identity.User
	for _, u := range f.users {
		if u.TenantID == tenantID {
			out = append(out, *copyUser(u))
		}
	}
	return out, nil
}

func (f *fakeUserRepo) CreateRole(_ context.Context, tenantID uuid.UUID, role identity.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.catalog[tenantID] {
		if existing.ID == role.ID {
			return nil
		}
	}
	f.catalog[tenantID] = append(f.catalog[tenantID], role)
	return nil
}

func (f *fakeUserRepo) ListRoles(_ context.Context, tenantID uuid.UUID) ([]identity.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]identity.Role(nil), f.catalog[tenantID]...), nil
}

// fakeTenantRepo is a map-backed tenant.Repository.
type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]tenant.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: make(map[uuid.UUID]tenant.Tenant)}
}

func (f *fakeTenantRepo) Create(_ context.Context, t *tenant.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.tenants {
		if existing.Domain == t.Domain {
			return tenant.ErrDuplicateDomain
		}
	}
	f.tenants[t.ID] = *t
	return nil
}

func (f *fakeTenantRepo) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tenants[id]
	if !ok {
		return nil, tenant.ErrNotFound
	}
	out := t
	return &out, nil
}

func (f *fakeTenantRepo) GetByDomain(_ context.Context, domain string) (*tenant.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tenants {
		if t.Domain == domain {
			out := t
			return &out, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (f *fakeTenantRepo) Update(_ context.Context, t *tenant.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tenants[t.ID]; !ok {
		return tenant.ErrNotFound
	}
	f.tenants[t.ID] = *t
	return nil
}

func (f *fakeTenantRepo) List(_ context.Context) ([]tenant.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]tenant.Tenant, 0, len(f.tenants))
	for _, t := range f.tenants {
		out = append(out, t)
	}
	return out, nil
}

// testEnv assembles a Service over the fakes, a real hasher and TOTP engine,
// and an in-memory session store.
type testEnv struct {
	svc     *auth.Service
	users   *fakeUserRepo
	tenants *fakeTenantRepo
	store   *session.MemoryStore
	totp    *auth.TOTPEngine
	hasher  auth.PasswordHasher
	rbac    *rbac.Evaluator
	tenantA uuid.UUID
	tenantB uuid.UUID
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()

	env := &testEnv{
		users:   newFakeUserRepo(),
		tenants: newFakeTenantRepo(),
		store:   session.NewMemoryStore(),
		totp:    auth.NewTOTPEngine("Halcyon"),
		hasher:  auth.NewArgon2idHasher(),
		rbac:    rbac.NewEvaluator(),
		tenantA: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		tenantB: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
	}

	now := time.Now().UTC()
	for _, seed := range []struct {
		id     uuid.UUID
		name   string
		domain string
	}{
		{env.tenantA, "Tenant One", "one.test"},
		{env.tenantB, "Tenant Two", "two.test"},
	} {
		env.tenants.tenants[seed.id] = tenant.Tenant{
			ID: seed.id, Name: seed.name, Domain: seed.domain,
			Active: true, CreatedAt: now, UpdatedAt: now,
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := session.NewHMACProvider([]byte("0123456789abcdef0123456789abcdef"), "halcyon", "halcyon")
	manager := session.NewManager(env.store, tokens, 30*time.Minute, logger)

	svc, err := auth.NewService(env.users, env.tenants, env.hasher, env.totp, manager, env.rbac, logger)
	require.NoError(t, err)
	env.svc = svc
	return env
}

// seedUser hashes the password and inserts the user directly.
func (e *testEnv) seedUser(t testing.TB, tenantID uuid.UUID, email, password string, mutate ...func(*identity.User)) *identity.User {
	t.Helper()

	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)

	user := &identity.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Roles:        []identity.Role{},
	}
	for _, fn := range mutate {
		fn(user)
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

// newBenchEnv seeds one user so the known-email and unknown-email benchmark
// paths run against the same state.
func newBenchEnv(b *testing.B) *testEnv {
	b.Helper()

	env := newTestEnv(b)
	env.seedUser(b, env.tenantA, "user@x.io", "p1-secret")
	return env
}
