package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/projectdesk/projectdesk/internal/model"
)

// ErrDocumentNotFound is returned when a document does not exist.
var ErrDocumentNotFound = errors.New("document not found")

const documentColumns = `id, project_id, original_filename, storage_key, file_size, content_type, checksum, uploaded_by, uploaded_at`

// CreateDocument inserts a document row and fills in the generated ID
// and upload timestamp.
func (r *Repository) CreateDocument(ctx context.Context, doc *model.Document) error {
	query := `
		INSERT INTO documents (project_id, original_filename, storage_key, file_size, content_type, checksum, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`

	err := r.pool.QueryRow(ctx, query,
		doc.ProjectID,
		doc.OriginalFilename,
		doc.StorageKey,
		doc.FileSize,
		doc.ContentType,
		doc.Checksum,
		doc.UploadedBy,
	).Scan(
		&doc.ID,
		&doc.UploadedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetDocumentByID retrieves a document by its ID.
func (r *Repository) GetDocumentByID(ctx context.Context, id int64) (*model.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`

	var doc model.Document
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.OriginalFilename,
		&doc.StorageKey,
		&doc.FileSize,
		&doc.ContentType,
		&doc.Checksum,
		&doc.UploadedBy,
		&doc.UploadedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document by ID: %w", err)
	}

	return &doc, nil
}

// ListDocumentsByProject retrieves all documents of a project, newest
// first.
func (r *Repository) ListDocumentsByProject(ctx context.Context, projectID int64) ([]*model.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE project_id = $1
		ORDER BY uploaded_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*model.Document, 0)
	for rows.Next() {
		var doc model.Document
		err := rows.Scan(
			&doc.ID,
			&doc.ProjectID,
			&doc.OriginalFilename,
			&doc.StorageKey,
			&doc.FileSize,
			&doc.ContentType,
			&doc.Checksum,
			&doc.UploadedBy,
			&doc.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document row.
func (r *Repository) DeleteDocument(ctx context.Context, id int64) error {
	query := `DELETE FROM documents WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}

	return nil
}

// DeleteDocumentsByProject removes all document rows of a project and
// returns their storage keys so the blobs can be cleaned up.
func (r *Repository) DeleteDocumentsByProject(ctx context.Context, projectID int64) ([]string, error) {
	query := `DELETE FROM documents WHERE project_id = $1 RETURNING storage_key`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete project documents: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan storage key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate storage keys: %w", err)
	}

	return keys, nil
}
