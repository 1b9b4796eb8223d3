package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/projectdesk/projectdesk/internal/model"
)

// ErrProjectNotFound is returned when a project does not exist or has
// been soft-deleted.
var ErrProjectNotFound = errors.New("project not found")

const projectColumns = `id, name, description, owner_id, participants, created_at, updated_at`

// CreateProject inserts a new project and fills in the generated ID
// and timestamps.
func (r *Repository) CreateProject(ctx context.Context, project *model.Project) error {
	query := `
		INSERT INTO projects (name, description, owner_id, participants)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	if project.Participants == nil {
		project.Participants = []int64{}
	}

	err := r.pool.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.OwnerID,
		project.Participants,
	).Scan(
		&project.ID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetProjectByID retrieves a project by its ID. Soft-deleted projects
// are treated as not found.
func (r *Repository) GetProjectByID(ctx context.Context, id int64) (*model.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE id = $1 AND deleted_at IS NULL
	`

	project, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project by ID: %w", err)
	}

	return project, nil
}

// ListProjectsByMember retrieves every project the user owns or
// participates in, newest first.
func (r *Repository) ListProjectsByMember(ctx context.Context, userID int64) ([]*model.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE deleted_at IS NULL AND (owner_id = $1 OR $1 = ANY(participants))
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*model.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// UpdateProject updates the name and description of a project and
// returns the updated row.
func (r *Repository) UpdateProject(ctx context.Context, id int64, name, description string) (*model.Project, error) {
	query := `
		UPDATE projects
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + projectColumns + `
	`

	project, err := scanProject(r.pool.QueryRow(ctx, query, id, name, description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// SetParticipants replaces the participant list of a project and
// returns the updated row.
func (r *Repository) SetParticipants(ctx context.Context, id int64, participants []int64) (*model.Project, error) {
	query := `
		UPDATE projects
		SET participants = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + projectColumns + `
	`

	if participants == nil {
		participants = []int64{}
	}

	project, err := scanProject(r.pool.QueryRow(ctx, query, id, participants))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to set participants: %w", err)
	}

	return project, nil
}

// SoftDeleteProject marks a project as deleted without removing the row.
func (r *Repository) SoftDeleteProject(ctx context.Context, id int64) error {
	query := `
		UPDATE projects
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var project model.Project
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.OwnerID,
		&project.Participants,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if project.Participants == nil {
		project.Participants = []int64{}
	}
	return &project, nil
}
