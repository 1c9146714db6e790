// Command accountctl manages accounts from the operator's shell.
//
// Usage:
//
//	accountctl -dsn postgres://... create user@example.com 'Secret123'
//	accountctl -dsn postgres://... activate user@example.com
//	accountctl -dsn postgres://... deactivate user@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shopworks/storeauth/internal/crypto"
	"github.com/shopworks/storeauth/internal/model"
	"github.com/shopworks/storeauth/internal/repository/postgres"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "accountctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("accountctl", flag.ContinueOnError)
	dsn := fs.String("dsn", os.Getenv("DATABASE_DSN"), "PostgreSQL DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return fmt.Errorf("-dsn or DATABASE_DSN is required")
	}

	rest := fs.Args()
	if len(rest) < 2 {
		return fmt.Errorf("usage: accountctl [-dsn ...] create|activate|deactivate <email> [password]")
	}
	cmd, email := rest[0], strings.TrimSpace(strings.ToLower(rest[1]))

	ctx := context.Background()
	db, err := postgres.New(ctx, *dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()
	repo := postgres.NewAccountRepo(db)

	switch cmd {
	case "create":
		if len(rest) < 3 {
			return fmt.Errorf("create needs an email and a password")
		}
		return create(ctx, repo, email, rest[2])
	case "activate":
		return setActive(ctx, repo, email, true)
	case "deactivate":
		return setActive(ctx, repo, email, false)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func create(ctx context.Context, repo *postgres.AccountRepo, email, password string) error {
	if violations := crypto.CheckStrength(password); len(violations) > 0 {
		return fmt.Errorf("weak password: %s", strings.Join(violations, "; "))
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	acct := &model.Account{Email: email, PasswordHash: hash, Active: true}
	if err := repo.Create(ctx, acct); err != nil {
		return err
	}
	fmt.Printf("created account %d (%s)\n", acct.ID, acct.Email)
	return nil
}

func setActive(ctx context.Context, repo *postgres.AccountRepo, email string, active bool) error {
	acct, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := repo.SetActive(ctx, acct.ID, active); err != nil {
		return err
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Printf("%s account %d (%s)\n", state, acct.ID, acct.Email)
	return nil
}
