// Command create-user provisions an account directly in the database.
// Useful for bootstrapping the first account in environments where the
// registration endpoint is not reachable.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/config"
	"github.com/projectdesk/projectdesk/internal/model"
	"github.com/projectdesk/projectdesk/internal/repository"
)

type output struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (falls back to the server environment)")
		email       = flag.String("email", "", "Email address for the new account")
		password    = flag.String("password", "", "Password (generated when empty)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *email == "" || !strings.Contains(*email, "@") {
		fmt.Fprintln(os.Stderr, "a valid -email is required")
		os.Exit(1)
	}

	dsn := *databaseURL
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, "load config:", err)
			os.Exit(1)
		}
		dsn = cfg.DatabaseDSN()
	}

	generated := false
	if *password == "" {
		p, err := randomPassword()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate password:", err)
			os.Exit(1)
		}
		*password = p
		generated = true
	}
	if len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "password must be at least 8 characters")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, dsn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		PasswordHash: hash,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			fmt.Fprintln(os.Stderr, "email already registered:", user.Email)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "create user:", err)
		os.Exit(1)
	}

	out := output{UserID: user.ID, Email: user.Email}
	if generated {
		out.Password = *password
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("user %d created: %s\n", out.UserID, out.Email)
		if generated {
			fmt.Println(out.Password)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
