// Package main applies database schema migrations.
//
// Usage:
//
//	migrate [-dir migrations] [up|down|version]
//
// up applies all pending migrations, down rolls back the most recent
// one, and version prints the current schema version. The database
// connection comes from the same environment variables the API server
// uses.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/projectdesk/projectdesk/internal/config"
)

func main() {
	var dir string
	flag.StringVar(&dir, "dir", "migrations", "directory containing migration files")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.DatabaseDSN()
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		logger.Error("failed to initialize migrator", "error", sanitize(err, dsn))
		os.Exit(1)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("failed to close migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Warn("failed to close database", "error", sanitize(dbErr, dsn))
		}
	}()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return
		}
		if verr != nil {
			logger.Error("failed to read schema version", "error", sanitize(verr, dsn))
			os.Exit(1)
		}
		logger.Info("schema version", "version", version, "dirty", dirty)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		fmt.Fprintln(os.Stderr, "usage: migrate [-dir migrations] [up|down|version]")
		os.Exit(2)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no pending migrations")
		return
	}
	if err != nil {
		logger.Error("migration failed", "command", command, "error", sanitize(err, dsn))
		os.Exit(1)
	}

	logger.Info("migrations applied", "command", command)
}

// sanitize strips database credentials out of error text before it is
// logged.
func sanitize(err error, dsn string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	redacted := dsn
	if parsed, perr := url.Parse(dsn); perr == nil && parsed.User != nil {
		parsed.User = url.User(parsed.User.Username())
		redacted = parsed.String()
	}

	return strings.ReplaceAll(msg, dsn, redacted)
}
