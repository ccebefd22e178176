package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/api"
	"github.com/halcyonlabs/halcyon/internal/auth"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/rbac"
	"github.com/halcyonlabs/halcyon/internal/session"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

// memUserRepo is a map-backed identity.Repository for transport tests.
type memUserRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]identity.User
	catalog map[uuid.UUID][]identity.Role
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:   make(map[uuid.UUID]identity.User),
		catalog: make(map[uuid.UUID][]identity.Role),
	}
}

func (m *memUserRepo) Create(_ context.Context, user *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TenantID == user.TenantID && u.Email == user.Email {
			return identity.ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = *user
	return nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TenantID == tenantID && u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (m *memUserRepo) GetByID(_ context.Context, tenantID, userID uuid.UUID) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, identity.ErrUserNotFound
	}
	out := u
	return &out, nil
}

func (m *memUserRepo) Update(_ context.Context, user *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.ID]
	if !ok || existing.TenantID != user.TenantID {
		return identity.ErrUserNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = *user
	return nil
}

func (m *memUserRepo) Delete(_ context.Context, tenantID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.TenantID != tenantID {
		return identity.ErrUserNotFound
	}
	delete(m.users, userID)
	return nil
}

func (m *memUserRepo) UpdateLastLogin(_ context.Context, tenantID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.TenantID != tenantID {
		return identity.ErrUserNotFound
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	m.users[userID] = u
	return nil
}

func (m *memUserRepo) List(_ context.Context, tenantID uuid.UUID) ([]identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []identity.User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUserRepo) CreateRole(_ context.Context, tenantID uuid.UUID, role identity.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog[tenantID] = append(m.catalog[tenantID], role)
	return nil
}

func (m *memUserRepo) ListRoles(_ context.Context, tenantID uuid.UUID) ([]identity.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]identity.Role(nil), m.catalog[tenantID]...), nil
}

// memTenantRepo is a map-backed tenant.Repository.
type memTenantRepo struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]tenant.Tenant
}

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{tenants: make(map[uuid.UUID]tenant.Tenant)}
}

func (m *memTenantRepo) Create(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tenants {
		if existing.Domain == t.Domain {
			return tenant.ErrDuplicateDomain
		}
	}
	m.tenants[t.ID] = *t
	return nil
}

func (m *memTenantRepo) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, tenant.ErrNotFound
	}
	out := t
	return &out, nil
}

func (m *memTenantRepo) GetByDomain(_ context.Context, domain string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.Domain == domain {
			out := t
			return &out, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (m *memTenantRepo) Update(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[t.ID]; !ok {
		return tenant.ErrNotFound
	}
	m.tenants[t.ID] = *t
	return nil
}

func (m *memTenantRepo) List(_ context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tenant.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out, nil
}

// testServer is a fully wired Server over in-memory stores.
type testServer struct {
	srv     *httptest.Server
	users   *memUserRepo
	tenants *memTenantRepo
	hasher  auth.PasswordHasher
	tenantA uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		users:   newMemUserRepo(),
		tenants: newMemTenantRepo(),
		hasher:  auth.NewArgon2idHasher(),
		tenantA: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	}

	now := time.Now().UTC()
	ts.tenants.tenants[ts.tenantA] = tenant.Tenant{
		ID: ts.tenantA, Name: "Tenant One", Domain: "one.test",
		Active: true, CreatedAt: now, UpdatedAt: now,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := session.NewHMACProvider([]byte("0123456789abcdef0123456789abcdef"), "halcyon", "halcyon")
	manager := session.NewManager(session.NewMemoryStore(), tokens, 30*time.Minute, logger)

	authService, err := auth.NewService(
		ts.users, ts.tenants, ts.hasher, auth.NewTOTPEngine("Halcyon"),
		manager, rbac.NewEvaluator(), logger,
	)
	require.NoError(t, err)

	server := api.NewServer(authService, tenant.NewService(ts.tenants), nil, []string{"https://app.test"}, logger)
	ts.srv = httptest.NewServer(server.Router)
	t.Cleanup(ts.srv.Close)
	return ts
}

// seedTenant inserts an active tenant directly.
func (ts *testServer) seedTenant(t *testing.T, name, domain string) uuid.UUID {
	t.Helper()

	ten := tenant.New(name, domain)
	require.NoError(t, ts.tenants.Create(context.Background(), ten))
	return ten.ID
}

// seedUser hashes the password and inserts the user directly.
func (ts *testServer) seedUser(t *testing.T, tenantID uuid.UUID, email, password string, roles ...identity.Role) *identity.User {
	t.Helper()

	hash, err := ts.hasher.Hash(password)
	require.NoError(t, err)
	if roles == nil {
		roles = []identity.Role{}
	}
	user := &identity.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Roles:        roles,
	}
	require.NoError(t, ts.users.Create(context.Background(), user))
	return user
}

// do performs a JSON request, returning the response. A non-empty token is
// sent as a bearer.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// login authenticates and returns the bearer token.
func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()

	resp := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": email, "password": password, "tenant_id": ts.tenantA,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}
