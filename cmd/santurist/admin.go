package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/santurist/santurist/internal/auth"
)

func runAdmin(args []string) int {
	if len(args) == 0 {
		printAdminUsage()
		return 2
	}

	switch args[0] {
	case "create-admin":
		return runCreateAdmin(args[1:])
	case "reset-password":
		return runResetPassword(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown admin command: %s\n", args[0])
		printAdminUsage()
		return 2
	}
}

func printAdminUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  santurist admin create-admin --email admin@example.com [--password <pw>] [--db-dsn <dsn>]")
	fmt.Fprintln(os.Stderr, "  santurist admin reset-password --email admin@example.com [--password <new>] [--db-dsn <dsn>]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Notes:")
	fmt.Fprintln(os.Stderr, "  - If --password is omitted, a random password is generated and printed.")
	fmt.Fprintln(os.Stderr, "  - --db-dsn defaults to ST_DB_DSN.")
}

type adminFlags struct {
	email    string
	password string
	dbDSN    string
}

func parseAdminFlags(name string, args []string) (*adminFlags, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var f adminFlags
	fs.StringVar(&f.email, "email", "", "Admin email")
	fs.StringVar(&f.password, "password", "", "Password (if empty, generates one)")
	fs.StringVar(&f.dbDSN, "db-dsn", "", "Postgres DSN (defaults to ST_DB_DSN)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, 0
		}
		return nil, 2
	}

	f.email = strings.ToLower(strings.TrimSpace(f.email))
	if f.email == "" {
		fmt.Fprintln(os.Stderr, "--email is required")
		return nil, 2
	}

	if f.dbDSN == "" {
		f.dbDSN = strings.TrimSpace(os.Getenv("ST_DB_DSN"))
	}
	if f.dbDSN == "" {
		fmt.Fprintln(os.Stderr, "--db-dsn is required (or set ST_DB_DSN)")
		return nil, 2
	}

	return &f, -1
}

func preparePassword(f *adminFlags) (password string, generated bool, code int) {
	password = f.password
	if password == "" {
		pw, err := generatePassword(24)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate password: %v\n", err)
			return "", false, 1
		}
		password = pw
		generated = true
	}

	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "Password must be at least 8 characters")
		return "", false, 2
	}
	return password, generated, -1
}

func runCreateAdmin(args []string) int {
	f, code := parseAdminFlags("create-admin", args)
	if code >= 0 {
		return code
	}

	password, generated, code := preparePassword(f)
	if code >= 0 {
		return code
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, f.dbDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		INSERT INTO admins (email, password_hash)
		VALUES ($1, $2)
	`, f.email, passwordHash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create admin: %v\n", err)
		return 1
	}

	fmt.Fprintln(os.Stdout, "Admin created.")
	if generated {
		fmt.Fprintln(os.Stdout, password)
	}
	return 0
}

func runResetPassword(args []string) int {
	f, code := parseAdminFlags("reset-password", args)
	if code >= 0 {
		return code
	}

	password, generated, code := preparePassword(f)
	if code >= 0 {
		return code
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, f.dbDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	tag, err := pool.Exec(ctx, `UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE email = $1`, f.email, passwordHash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to update password: %v\n", err)
		return 1
	}
	if tag.RowsAffected() == 0 {
		fmt.Fprintf(os.Stderr, "No admin found with email %q\n", f.email)
		return 1
	}

	fmt.Fprintln(os.Stdout, "Password updated.")
	if generated {
		fmt.Fprintln(os.Stdout, password)
	}
	return 0
}

func generatePassword(bytesLen int) (string, error) {
	if bytesLen < 8 {
		bytesLen = 8
	}

	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	// URL-safe, printable, without padding.
	return base64.RawURLEncoding.EncodeToString(b), nil
}
