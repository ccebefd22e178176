package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/halcyonlabs/halcyon/internal/storage"
)

// Repository persists tenants. The tenants table is not tenant-scoped, so
// every operation runs in a tenant-free unit of work.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	List(ctx context.Context) ([]Tenant, error)
}

const tenantColumns = "id, name, domain, active, created_at, updated_at"

// PostgresRepository stores tenants in Postgres.
type PostgresRepository struct {
	db storage.DB
}

func NewPostgresRepository(db storage.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the tenant. Returns ErrDuplicateDomain when the domain is
// already taken.
func (r *PostgresRepository) Create(ctx context.Context, t *Tenant) error {
	return storage.WithoutTenant(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			"INSERT INTO tenants (id, name, domain, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)",
			t.ID, t.Name, t.Domain, t.Active, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			if storage.IsUniqueViolation(err) {
				return ErrDuplicateDomain
			}
			return fmt.Errorf("failed to insert tenant: %w", err)
		}
		return nil
	})
}

// GetByID returns the tenant or ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	var t *Tenant
	err := storage.WithoutTenant(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id)
		scanned, err := scanTenant(row)
		if err != nil {
			return err
		}
		t = scanned
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByDomain resolves a tenant for request routing, or ErrNotFound.
func (r *PostgresRepository) GetByDomain(ctx context.Context, domain string) (*Tenant, error) {
	var t *Tenant
	err := storage.WithoutTenant(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE domain = $1", domain)
		scanned, err := scanTenant(row)
		if err != nil {
			return err
		}
		t = scanned
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Update writes name, domain and active. Returns ErrNotFound when no row
// was updated and ErrDuplicateDomain on a domain collision.
func (r *PostgresRepository) Update(ctx context.Context, t *Tenant) error {
	return storage.WithoutTenant(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE tenants SET name = $2, domain = $3, active = $4, updated_at = $5 WHERE id = $1",
			t.ID, t.Name, t.Domain, t.Active, t.UpdatedAt)
		if err != nil {
			if storage.IsUniqueViolation(err) {
				return ErrDuplicateDomain
			}
			return fmt.Errorf("failed to update tenant: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// List returns all tenants ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]Tenant, error) {
	var tenants []Tenant
	err := storage.WithoutTenant(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "SELECT "+tenantColumns+" FROM tenants ORDER BY name")
		if err != nil {
			return fmt.Errorf("failed to query tenants: %w", err)
		}
		defer rows.Close()

		tenants = tenants[:0]
		for rows.Next() {
			var t Tenant
			if err := rows.Scan(&t.ID, &t.Name, &t.Domain, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
				return fmt.Errorf("failed to scan tenant: %w", err)
			}
			tenants = append(tenants, t)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read tenants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Domain, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	return &t, nil
}
