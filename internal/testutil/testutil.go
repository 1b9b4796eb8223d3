// Package testutil provides helpers for integration and e2e tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/model"
)

// TestPassword is the plaintext behind every factory user's hash.
const TestPassword = "test-password-123"

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 724724

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// resetSchema applies the down then up migration with the given name.
func resetSchema(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".down.sql"))
	if err != nil {
		return fmt.Errorf("read %s down migration: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply %s down migration: %w", name, err)
	}

	upSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".up.sql"))
	if err != nil {
		return fmt.Errorf("read %s up migration: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply %s up migration: %w", name, err)
	}

	return nil
}

// ResetUsersSchema drops and recreates the users schema for tests.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000001_users")
}

// ResetProjectsSchema drops and recreates the projects schema for tests.
func ResetProjectsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000002_projects")
}

// ResetDocumentsSchema drops and recreates the documents schema for tests.
func ResetDocumentsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000003_documents")
}

// ResetActivitySchema drops and recreates the activity schema for tests.
func ResetActivitySchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000004_activity")
}

// ResetAllSchemas rebuilds every table in dependency order.
func ResetAllSchemas(ctx context.Context, pool *pgxpool.Pool) error {
	// Down in reverse dependency order, then up.
	for _, name := range []string{"000004_activity", "000003_documents", "000002_projects", "000001_users"} {
		root, err := ProjectRoot()
		if err != nil {
			return err
		}
		downSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".down.sql"))
		if err != nil {
			return fmt.Errorf("read %s down migration: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
			return fmt.Errorf("apply %s down migration: %w", name, err)
		}
	}

	for _, reset := range []func(context.Context, *pgxpool.Pool) error{
		ResetUsersSchema,
		ResetProjectsSchema,
		ResetDocumentsSchema,
		ResetActivitySchema,
	} {
		if err := reset(ctx, pool); err != nil {
			return err
		}
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user model with a unique email and a real
// bcrypt hash of TestPassword.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("hash test password: %v", err)
	}
	return &model.User{
		Email:        UniqueEmail("user"),
		PasswordHash: hash,
		IsActive:     true,
	}
}

// NewTestProject creates a project model owned by the given user.
func NewTestProject(t testing.TB, ownerID int64) *model.Project {
	t.Helper()
	return &model.Project{
		Name:         UniqueName("project"),
		Description:  "integration test project",
		OwnerID:      ownerID,
		Participants: []int64{},
	}
}

// NewTestDocument creates a document model for the given project.
func NewTestDocument(t testing.TB, projectID, uploadedBy int64) *model.Document {
	t.Helper()
	return &model.Document{
		ProjectID:        projectID,
		OriginalFilename: "notes.txt",
		StorageKey:       ulid.Make().String(),
		FileSize:         11,
		ContentType:      "text/plain",
		Checksum:         "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		UploadedBy:       uploadedBy,
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueName generates a unique name for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
