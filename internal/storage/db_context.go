package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithTenant executes a function within a PostgreSQL transaction with the
// app.current_tenant session variable set for Row Level Security.
//
// All RLS policies evaluated within the transaction respect the tenant
// isolation boundary. The variable is transaction-scoped (set_config with
// is_local=true), so it is cleared automatically when the transaction ends.
func WithTenant(ctx context.Context, db DB, tenantID uuid.UUID, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback is safe to call even after Commit

	// RLS policies use: NULLIF(current_setting('app.current_tenant', TRUE), '')::uuid
	_, err = tx.Exec(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID.String())
	if err != nil {
		return fmt.Errorf("failed to set tenant context: %w", err)
	}

	if err := fn(tx); err != nil {
		return err // Transaction will rollback via defer
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithoutTenant executes a function within a transaction that binds the
// empty string as tenant. RLS policies then resolve app.current_tenant to
// NULL and match no tenant-scoped rows.
//
// This is intended for operations on tables that are not tenant-scoped,
// such as tenant registration and domain lookup.
func WithoutTenant(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SELECT set_config('app.current_tenant', '', true)")
	if err != nil {
		return fmt.Errorf("failed to clear tenant context: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ExecInTenant is a convenience wrapper for single statement execution with
// tenant context. For multi-statement operations, use WithTenant directly.
func ExecInTenant(ctx context.Context, db DB, tenantID uuid.UUID, sql string, args ...any) error {
	return WithTenant(ctx, db, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, sql, args...)
		return err
	})
}
