//go:build integration

package activity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/projectdesk/projectdesk/internal/model"
	"github.com/projectdesk/projectdesk/internal/testutil"
)

func newActivityTestEnv(t *testing.T) (context.Context, *Repository) {
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

	if err := testutil.ResetActivitySchema(ctx, pool); err != nil {
		t.Fatalf("reset activity schema: %v", err)
	}

	// The repository itself runs on database/sql, same as in production.
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return ctx, NewRepository(db)
}

func seedEvents(t *testing.T, ctx context.Context, repo *Repository, projectID int64, actions ...model.ActivityAction) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Duration(len(actions)) * time.Minute)
	events := make([]*model.ActivityEvent, len(actions))
	for i, action := range actions {
		events[i] = &model.ActivityEvent{
			ProjectID:  projectID,
			ActorID:    1,
			Action:     action,
			Detail:     "seeded",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	if err := repo.InsertEvents(ctx, events); err != nil {
		t.Fatalf("seed events: %v", err)
	}
}

func TestIntegrationActivityRepository_InsertAndList(t *testing.T) {
	ctx, repo := newActivityTestEnv(t)

	seedEvents(t, ctx, repo, 10,
		model.ActivityProjectCreated,
		model.ActivityDocumentUploaded,
		model.ActivityMemberAdded,
	)

	events, err := repo.ListByProject(ctx, 10, 0, nil)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	// Newest first.
	if events[0].Action != model.ActivityMemberAdded {
		t.Errorf("first event action = %s, want %s", events[0].Action, model.ActivityMemberAdded)
	}
	if events[2].Action != model.ActivityProjectCreated {
		t.Errorf("last event action = %s, want %s", events[2].Action, model.ActivityProjectCreated)
	}
	if events[0].ID <= 0 {
		t.Error("expected generated event ID")
	}
	if events[0].Detail != "seeded" {
		t.Errorf("detail = %q, want %q", events[0].Detail, "seeded")
	}
}

func TestIntegrationActivityRepository_InsertEmptyBatch(t *testing.T) {
	ctx, repo := newActivityTestEnv(t)

	if err := repo.InsertEvents(ctx, nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got: %v", err)
	}
}

func TestIntegrationActivityRepository_ListScopedToProject(t *testing.T) {
	ctx, repo := newActivityTestEnv(t)

	seedEvents(t, ctx, repo, 10, model.ActivityProjectCreated)
	seedEvents(t, ctx, repo, 20, model.ActivityProjectCreated, model.ActivityProjectUpdated)

	events, err := repo.ListByProject(ctx, 20, 0, nil)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events for project 20, want 2", len(events))
	}
	for _, event := range events {
		if event.ProjectID != 20 {
			t.Errorf("event %d belongs to project %d", event.ID, event.ProjectID)
		}
	}
}

func TestIntegrationActivityRepository_ListActionFilter(t *testing.T) {
	ctx, repo := newActivityTestEnv(t)

	seedEvents(t, ctx, repo, 10,
		model.ActivityProjectCreated,
		model.ActivityDocumentUploaded,
		model.ActivityDocumentDeleted,
		model.ActivityDocumentUploaded,
	)

	events, err := repo.ListByProject(ctx, 10, 0, []model.ActivityAction{
		model.ActivityDocumentUploaded,
		model.ActivityDocumentDeleted,
	})
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for _, event := range events {
		if event.Action == model.ActivityProjectCreated {
			t.Errorf("filter leaked action %s", event.Action)
		}
	}
}

func TestIntegrationActivityRepository_ListLimit(t *testing.T) {
	ctx, repo := newActivityTestEnv(t)

	actions := make([]model.ActivityAction, 10)
	for i := range actions {
		actions[i] = model.ActivityProjectUpdated
	}
	seedEvents(t, ctx, repo, 10, actions...)

	events, err := repo.ListByProject(ctx, 10, 4, nil)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(events) != 4 {
		t.Errorf("got %d events, want 4", len(events))
	}

	over, err := repo.ListByProject(ctx, 10, MaxListLimit+100, nil)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(over) != 10 {
		t.Errorf("got %d events, want all 10", len(over))
	}
}

func TestIntegrationActivityRepository_CountByProject(t *testing.T) {
	ctx, repo := newActivityTestEnv(t)

	seedEvents(t, ctx, repo, 10, model.ActivityProjectCreated, model.ActivityProjectDeleted)

	count, err := repo.CountByProject(ctx, 10)
	if err != nil {
		t.Fatalf("CountByProject failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	empty, err := repo.CountByProject(ctx, 99)
	if err != nil {
		t.Fatalf("CountByProject failed: %v", err)
	}
	if empty != 0 {
		t.Errorf("count = %d, want 0", empty)
	}
}

func TestIntegrationActivityRecorder_EndToEnd(t *testing.T) {
	ctx, repo := newActivityTestEnv(t)

	rec := NewRecorder(repo, testLogger(), nil)
	rec.SetBatchSize(2)
	rec.SetFlushInterval(50 * time.Millisecond)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go rec.Run(runCtx)
	waitStarted(t, rec)

	rec.Record(&model.ActivityEvent{ProjectID: 10, ActorID: 1, Action: model.ActivityProjectCreated})
	rec.Record(&model.ActivityEvent{ProjectID: 10, ActorID: 1, Action: model.ActivityDocumentUploaded, Detail: "report.pdf"})
	rec.Record(&model.ActivityEvent{ProjectID: 10, ActorID: 2, Action: model.ActivityMemberAdded})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := rec.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	events, err := repo.ListByProject(ctx, 10, 0, nil)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
}
