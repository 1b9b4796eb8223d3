package repository

import (
	"context"
	"fmt"
)

// Stats is an aggregate snapshot of stored entities, used by the
// admin stats endpoint.
type Stats struct {
	TotalUsers         int64 `json:"total_users"`
	ActiveUsers        int64 `json:"active_users"`
	TotalProjects      int64 `json:"total_projects"`
	TotalDocuments     int64 `json:"total_documents"`
	TotalDocumentBytes int64 `json:"total_document_bytes"`
}

// GetStats counts stored users, projects and documents in one round trip.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active),
			(SELECT COUNT(*) FROM projects WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM documents),
			(SELECT COALESCE(SUM(file_size), 0) FROM documents)
	`

	var stats Stats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.TotalProjects,
		&stats.TotalDocuments,
		&stats.TotalDocumentBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}

	return &stats, nil
}
