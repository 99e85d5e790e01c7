package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/term"

	"estate/cmd/identity"
	"estate/cmd/internal/app"
	"estate/cmd/internal/auth/remember"
	"estate/cmd/internal/auth/session"
	"estate/cmd/security/password"
)

const usage = `usage: estatectl <command> [flags]

commands:
  migrate           apply embedded migrations
  create-account    create an account (-email, -name, -role; password from prompt or stdin)
  gen-session-key   print a fresh ESTATE_SESSION_KEY_HEX value
  purge-remember    delete expired remember tokens`

var errUsage = errors.New(usage)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// openPool is a test seam for the database connection.
var openPool = func(ctx context.Context) (*pgxpool.Pool, error) {
	cfg := app.LoadConfig()
	if cfg.DatabaseURL == "" {
		return nil, errors.New("ESTATE_DATABASE_URL is not set")
	}
	return app.NewDBPool(ctx, cfg)
}

func run(ctx context.Context, args []string, stdin *os.File, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "migrate":
		return runMigrate(ctx)
	case "create-account":
		return runCreateAccount(ctx, args[1:], stdin, stdout)
	case "gen-session-key":
		_, err := fmt.Fprintln(stdout, session.NewSessionKeyHex())
		return err
	case "purge-remember":
		return runPurgeRemember(ctx, stdout)
	case "-h", "--help", "help":
		_, err := fmt.Fprintln(stdout, usage)
		return err
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

func runMigrate(ctx context.Context) error {
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	return app.Migrate(ctx, pool)
}

type createAccountArgs struct {
	email string
	name  string
	role  identity.Role
}

func parseCreateAccount(args []string) (createAccountArgs, error) {
	fs := flag.NewFlagSet("create-account", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	role := fs.String("role", "agent", "admin, agent or client")

	if err := fs.Parse(args); err != nil {
		return createAccountArgs{}, err
	}
	if !identity.ValidEmail(*email) {
		return createAccountArgs{}, fmt.Errorf("create-account: -email is missing or malformed")
	}
	r, err := identity.ParseRole(*role)
	if err != nil {
		return createAccountArgs{}, fmt.Errorf("create-account: %w", err)
	}
	return createAccountArgs{email: *email, name: strings.TrimSpace(*name), role: r}, nil
}

func runCreateAccount(ctx context.Context, args []string, stdin *os.File, stdout io.Writer) error {
	in, err := parseCreateAccount(args)
	if err != nil {
		return err
	}

	pcfg, err := password.FromEnv()
	if err != nil {
		return err
	}
	plain, err := promptPassword(stdin, stdout)
	if err != nil {
		return err
	}
	hash, err := identity.HashPassword(pcfg, plain)
	if err != nil {
		return err
	}

	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := identity.NewPostgresStore(pool)
	if err != nil {
		return err
	}
	acc, err := store.CreateAccount(ctx, identity.CreateAccountInput{
		Email:        in.email,
		DisplayName:  in.name,
		PasswordHash: hash,
		Role:         in.role,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		if identity.IsConflict(err) {
			return fmt.Errorf("create-account: email already registered")
		}
		return err
	}

	_, err = fmt.Fprintf(stdout, "created %s %s (%s)\n", acc.ID, acc.Email, acc.Role)
	return err
}

// promptPassword reads without echo from a terminal, or one line from piped stdin.
func promptPassword(stdin *os.File, stdout io.Writer) (string, error) {
	fd := int(stdin.Fd())
	if !isTerminal(fd) {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	if _, err := fmt.Fprint(stdout, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	_, _ = fmt.Fprintln(stdout)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func runPurgeRemember(ctx context.Context, stdout io.Writer) error {
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	vault, err := remember.NewPostgresVault(pool)
	if err != nil {
		return err
	}
	n, err := vault.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "purged %d expired remember tokens\n", n)
	return err
}
