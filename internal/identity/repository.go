package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/halcyonlabs/halcyon/internal/storage"
)

// Repository persists users, roles and their assignments.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)
	GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, tenantID, userID uuid.UUID) error
	UpdateLastLogin(ctx context.Context, tenantID, userID uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID) ([]User, error)
	CreateRole(ctx context.Context, tenantID uuid.UUID, role Role) error
	ListRoles(ctx context.Context, tenantID uuid.UUID) ([]Role, error)
}

const userColumns = "id, tenant_id, email, password_hash, active, mfa_enabled, COALESCE(mfa_secret, ''), last_login, created_at, updated_at"

// PostgresRepository stores users in Postgres. Every operation runs inside a
// tenant-bound transaction so the RLS policies scope all rows; the explicit
// tenant_id predicates are defence in depth on top of that.
type PostgresRepository struct {
	db storage.DB
}

func NewPostgresRepository(db storage.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user and its role assignments. Returns
// ErrDuplicateEmail when (tenant_id, email) already exists.
func (r *PostgresRepository) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	return storage.WithTenant(ctx, r.db, user.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			"INSERT INTO users (id, tenant_id, email, password_hash, active, mfa_enabled, mfa_secret, last_login, created_at, updated_at) "+
				"VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)",
			user.ID, user.TenantID, user.Email, user.PasswordHash, user.Active,
			user.MFAEnabled, user.MFASecret, user.LastLogin, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			if storage.IsUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return linkRoles(ctx, tx, user.TenantID, user.ID, user.Roles)
	})
}

// GetByEmail returns the hydrated user for (email, tenant) or ErrUserNotFound.
func (r *PostgresRepository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error) {
	var user *User
	err := storage.WithTenant(ctx, r.db, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			"SELECT "+userColumns+" FROM users WHERE email = $1 AND tenant_id = $2",
			email, tenantID)
		u, err := scanUser(row)
		if err != nil {
			return err
		}
		if err := hydrateRoles(ctx, tx, []*User{u}); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID returns the hydrated user or ErrUserNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, userID uuid.UUID) (*User, error) {
	var user *User
	err := storage.WithTenant(ctx, r.db, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			"SELECT "+userColumns+" FROM users WHERE id = $1 AND tenant_id = $2",
			userID, tenantID)
		u, err := scanUser(row)
		if err != nil {
			return err
		}
		if err := hydrateRoles(ctx, tx, []*User{u}); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Update writes the mutable user columns, matching by (id, tenant_id), and
// reconciles the role assignments to user.Roles. Returns ErrUserNotFound
// when no row was updated.
func (r *PostgresRepository) Update(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()

	return storage.WithTenant(ctx, r.db, user.TenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE users SET email = $3, password_hash = $4, active = $5, mfa_enabled = $6, mfa_secret = NULLIF($7, ''), updated_at = $8 "+
				"WHERE id = $1 AND tenant_id = $2",
			user.ID, user.TenantID, user.Email, user.PasswordHash, user.Active,
			user.MFAEnabled, user.MFASecret, user.UpdatedAt)
		if err != nil {
			if storage.IsUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}

		_, err = tx.Exec(ctx,
			"DELETE FROM user_roles WHERE user_id = $1 AND tenant_id = $2",
			user.ID, user.TenantID)
		if err != nil {
			return fmt.Errorf("failed to clear role assignments: %w", err)
		}
		return linkRoles(ctx, tx, user.TenantID, user.ID, user.Roles)
	})
}

// Delete removes the user. Role assignments cascade via foreign keys.
func (r *PostgresRepository) Delete(ctx context.Context, tenantID, userID uuid.UUID) error {
	return storage.WithTenant(ctx, r.db, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"DELETE FROM users WHERE id = $1 AND tenant_id = $2", userID, tenantID)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// UpdateLastLogin stamps last_login with the database clock.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, tenantID, userID uuid.UUID) error {
	return storage.WithTenant(ctx, r.db, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE users SET last_login = now() WHERE id = $1", userID)
		if err != nil {
			return fmt.Errorf("failed to update last login: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// List returns all users of the bound tenant, hydrated.
func (r *PostgresRepository) List(ctx context.Context, tenantID uuid.UUID) ([]User, error) {
	var users []User
	err := storage.WithTenant(ctx, r.db, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			"SELECT "+userColumns+" FROM users WHERE tenant_id = $1 ORDER BY created_at", tenantID)
		if err != nil {
			return fmt.Errorf("failed to query users: %w", err)
		}
		defer rows.Close()

		users = users[:0]
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, *u)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read users: %w", err)
		}

		ptrs := make([]*User, len(users))
		for i := range users {
			ptrs[i] = &users[i]
		}
		return hydrateRoles(ctx, tx, ptrs)
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CreateRole inserts a role with its permission rows into the tenant's
// catalog. Re-creating an existing role id is a no-op.
func (r *PostgresRepository) CreateRole(ctx context.Context, tenantID uuid.UUID, role Role) error {
	return storage.WithTenant(ctx, r.db, tenantID, func(tx pgx.Tx) error {
		return upsertRole(ctx, tx, tenantID, role)
	})
}

// ListRoles returns the tenant's role catalog, permissions attached.
func (r *PostgresRepository) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]Role, error) {
	var roles []Role
	err := storage.WithTenant(ctx, r.db, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			"SELECT id, type, name FROM roles WHERE tenant_id = $1 ORDER BY name", tenantID)
		if err != nil {
			return fmt.Errorf("failed to query roles: %w", err)
		}
		defer rows.Close()

		roles = roles[:0]
		var roleIDs []uuid.UUID
		for rows.Next() {
			var role Role
			if err := rows.Scan(&role.ID, &role.Type, &role.Name); err != nil {
				return fmt.Errorf("failed to scan role: %w", err)
			}
			roles = append(roles, role)
			roleIDs = append(roleIDs, role.ID)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read roles: %w", err)
		}
		if len(roleIDs) == 0 {
			return nil
		}

		permsByRole, err := queryRolePermissions(ctx, tx, roleIDs)
		if err != nil {
			return err
		}
		for i := range roles {
			roles[i].Permissions = permsByRole[roles[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func linkRoles(ctx context.Context, tx pgx.Tx, tenantID, userID uuid.UUID, roles []Role) error {
	for _, role := range roles {
		if err := upsertRole(ctx, tx, tenantID, role); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			"INSERT INTO user_roles (tenant_id, user_id, role_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
			tenantID, userID, role.ID)
		if err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
	}
	return nil
}

func upsertRole(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, role Role) error {
	_, err := tx.Exec(ctx,
		"INSERT INTO roles (id, tenant_id, type, name) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING",
		role.ID, tenantID, role.Type, role.Name)
	if err != nil {
		return fmt.Errorf("failed to insert role: %w", err)
	}

	for _, p := range role.Permissions {
		_, err := tx.Exec(ctx,
			"INSERT INTO permissions (id, name, action, resource) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING",
			p.ID, p.Name, p.Action, p.Resource)
		if err != nil {
			return fmt.Errorf("failed to insert permission: %w", err)
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			role.ID, p.ID)
		if err != nil {
			return fmt.Errorf("failed to link permission: %w", err)
		}
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Active,
		&u.MFAEnabled, &u.MFASecret, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// hydrateRoles attaches roles and their permissions to the given users in
// two batched queries.
func hydrateRoles(ctx context.Context, tx pgx.Tx, users []*User) error {
	if len(users) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*User, len(users))
	userIDs := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		u.Roles = []Role{}
		byID[u.ID] = u
		userIDs = append(userIDs, u.ID)
	}

	roleIDs, err := queryUserRoles(ctx, tx, userIDs, byID)
	if err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}

	permsByRole, err := queryRolePermissions(ctx, tx, roleIDs)
	if err != nil {
		return err
	}

	for _, u := range users {
		for i := range u.Roles {
			u.Roles[i].Permissions = permsByRole[u.Roles[i].ID]
		}
	}
	return nil
}

func queryUserRoles(ctx context.Context, tx pgx.Tx, userIDs []uuid.UUID, byID map[uuid.UUID]*User) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx,
		"SELECT ur.user_id, r.id, r.type, r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = ANY($1) ORDER BY r.name",
		userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	seen := make(map[uuid.UUID]bool)
	var roleIDs []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		var role Role
		if err := rows.Scan(&userID, &role.ID, &role.Type, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if u, ok := byID[userID]; ok {
			u.Roles = append(u.Roles, role)
		}
		if !seen[role.ID] {
			seen[role.ID] = true
			roleIDs = append(roleIDs, role.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roles: %w", err)
	}
	return roleIDs, nil
}

func queryRolePermissions(ctx context.Context, tx pgx.Tx, roleIDs []uuid.UUID) (map[uuid.UUID][]Permission, error) {
	rows, err := tx.Query(ctx,
		"SELECT rp.role_id, p.id, p.name, p.action, p.resource FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id WHERE rp.role_id = ANY($1)",
		roleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	permsByRole := make(map[uuid.UUID][]Permission, len(roleIDs))
	for rows.Next() {
		var roleID uuid.UUID
		var p Permission
		if err := rows.Scan(&roleID, &p.ID, &p.Name, &p.Action, &p.Resource); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permsByRole[roleID] = append(permsByRole[roleID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read permissions: %w", err)
	}
	return permsByRole, nil
}

