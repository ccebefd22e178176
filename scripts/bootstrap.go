//go:build ignore

// Bootstrap creates the first tenant and a superadmin user. Run once after
// the migrations:
//
//	DATABASE_URL=... go run scripts/bootstrap.go <name> <domain> <email> <password>
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/auth"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/rbac"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

func main() {
	if len(os.Args) != 5 {
		fmt.Println("usage: bootstrap <tenant-name> <domain> <email> <password>")
		os.Exit(1)
	}
	name, domain, email, password := os.Args[1], os.Args[2], os.Args[3], os.Args[4]

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Println("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Printf("connect failed: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	ten := tenant.New(name, domain)
	if err := tenant.NewPostgresRepository(pool).Create(ctx, ten); err != nil {
		fmt.Printf("tenant create failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("tenant %s created: %s\n", ten.Name, ten.ID)

	hash, err := auth.NewArgon2idHasher().Hash(password)
	if err != nil {
		fmt.Printf("hash failed: %v\n", err)
		os.Exit(1)
	}

	user := &identity.User{
		ID:           uuid.New(),
		TenantID:     ten.ID,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Roles:        []identity.Role{rbac.SuperAdminRole()},
	}
	if err := identity.NewPostgresRepository(pool).Create(ctx, user); err != nil {
		fmt.Printf("user create failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("superadmin %s created: %s\n", user.Email, user.ID)
}
