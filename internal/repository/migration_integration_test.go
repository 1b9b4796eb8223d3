//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/projectdesk/projectdesk/internal/testutil"
)

// ============================================================================
// Migration Integration Tests
// ============================================================================

func TestIntegrationMigration_ApplyAllTables(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	tables := []string{
		"users",
		"projects",
		"documents",
		"activity_events",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			exists, err := tableExists(ctx, pool, table)
			if err != nil {
				t.Fatalf("tableExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Table %q should exist after migrations", table)
			}
		})
	}
}

func TestIntegrationMigration_ProjectsTableSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	expectedColumns := []string{
		"id",
		"name",
		"description",
		"owner_id",
		"participants",
		"created_at",
		"updated_at",
		"deleted_at",
	}

	for _, col := range expectedColumns {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "projects", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in projects table", col)
			}
		})
	}
}

func TestIntegrationMigration_DocumentsTableSchema(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	expectedColumns := []string{
		"id",
		"project_id",
		"original_filename",
		"storage_key",
		"file_size",
		"content_type",
		"checksum",
		"uploaded_by",
		"uploaded_at",
	}

	for _, col := range expectedColumns {
		t.Run(col, func(t *testing.T) {
			exists, err := columnExists(ctx, pool, "documents", col)
			if err != nil {
				t.Fatalf("columnExists failed: %v", err)
			}
			if !exists {
				t.Errorf("Column %q should exist in documents table", col)
			}
		})
	}
}

func TestIntegrationMigration_Constraints(t *testing.T) {
	ctx, pool := newMigrationTestEnv(t)

	// users.email is unique
	_, err := pool.Exec(ctx, `INSERT INTO users (email, password_hash) VALUES ('dup@example.com', 'x')`)
	if err != nil {
		t.Fatalf("insert user failed: %v", err)
	}
	_, err = pool.Exec(ctx, `INSERT INTO users (email, password_hash) VALUES ('dup@example.com', 'x')`)
	if err == nil {
		t.Error("Expected unique constraint violation for duplicate email")
	}

	// projects.owner_id references users
	_, err = pool.Exec(ctx, `INSERT INTO projects (name, owner_id) VALUES ('orphan', 999999)`)
	if err == nil {
		t.Error("Expected foreign key violation for unknown owner")
	}

	// documents.storage_key is unique
	var userID, projectID int64
	if err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = 'dup@example.com'`).Scan(&userID); err != nil {
		t.Fatalf("select user: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO projects (name, owner_id) VALUES ('p', $1) RETURNING id`, userID).Scan(&projectID); err != nil {
		t.Fatalf("insert project: %v", err)
	}
	insertDoc := `
		INSERT INTO documents (project_id, original_filename, storage_key, file_size, uploaded_by)
		VALUES ($1, 'a.txt', 'same-key', 1, $2)
	`
	if _, err := pool.Exec(ctx, insertDoc, projectID, userID); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	if _, err := pool.Exec(ctx, insertDoc, projectID, userID); err == nil {
		t.Error("Expected unique constraint violation for duplicate storage_key")
	}
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, tableName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	return exists, err
}

func columnExists(ctx context.Context, pool *pgxpool.Pool, tableName, columnName string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_schema = 'public'
			AND table_name = $1
			AND column_name = $2
		)
	`, tableName, columnName).Scan(&exists)
	return exists, err
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetAllSchemas(ctx, pool); err != nil {
		t.Fatalf("reset schemas: %v", err)
	}

	return ctx, pool
}
