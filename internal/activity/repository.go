// Package activity captures project activity events and serves the
// per-project feed. Events are recorded asynchronously so request
// paths never wait on feed writes.
package activity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/projectdesk/projectdesk/internal/model"
)

const (
	// DefaultListLimit is the feed page size when the caller does not ask for one.
	DefaultListLimit = 50

	// MaxListLimit caps the feed page size.
	MaxListLimit = 200
)

// Repository persists activity events.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new activity repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertEvents writes a batch of events in one transaction.
func (r *Repository) InsertEvents(ctx context.Context, events []*model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activity batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activity_events (project_id, actor_id, action, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("prepare activity insert: %w", err)
	}
	defer stmt.Close()

	for i, event := range events {
		if _, err := stmt.ExecContext(ctx,
			event.ProjectID,
			event.ActorID,
			string(event.Action),
			event.Detail,
			event.OccurredAt,
		); err != nil {
			return fmt.Errorf("insert activity event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activity batch: %w", err)
	}
	return nil
}

// ListByProject returns the most recent events for a project, newest
// first. An empty actions slice means no action filter.
func (r *Repository) ListByProject(ctx context.Context, projectID int64, limit int, actions []model.ActivityAction) ([]*model.ActivityEvent, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `
		SELECT id, project_id, actor_id, action, detail, occurred_at
		FROM activity_events
		WHERE project_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`
	args := []interface{}{projectID, limit}

	if len(actions) > 0 {
		names := make([]string, len(actions))
		for i, action := range actions {
			names[i] = string(action)
		}
		query = `
			SELECT id, project_id, actor_id, action, detail, occurred_at
			FROM activity_events
			WHERE project_id = $1 AND action = ANY($3)
			ORDER BY occurred_at DESC, id DESC
			LIMIT $2
		`
		args = append(args, pq.Array(names))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity events: %w", err)
	}
	defer rows.Close()

	events := make([]*model.ActivityEvent, 0, limit)
	for rows.Next() {
		var event model.ActivityEvent
		if err := rows.Scan(
			&event.ID,
			&event.ProjectID,
			&event.ActorID,
			&event.Action,
			&event.Detail,
			&event.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity events: %w", err)
	}

	return events, nil
}

// CountByProject returns the total number of events recorded for a project.
func (r *Repository) CountByProject(ctx context.Context, projectID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_events WHERE project_id = $1`,
		projectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count activity events: %w", err)
	}
	return count, nil
}
