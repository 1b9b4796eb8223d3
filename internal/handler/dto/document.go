package dto

import (
	"time"

	"github.com/projectdesk/projectdesk/internal/model"
)

// DocumentResponse represents a document's stored metadata in API
// responses. The storage key stays internal.
type DocumentResponse struct {
	ID               int64     `json:"id"`
	ProjectID        int64     `json:"project_id"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type"`
	UploadedBy       int64     `json:"uploaded_by"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// ToDocumentResponse converts a Document model to DocumentResponse DTO.
func ToDocumentResponse(doc *model.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:               doc.ID,
		ProjectID:        doc.ProjectID,
		OriginalFilename: doc.OriginalFilename,
		FileSize:         doc.FileSize,
		ContentType:      doc.ContentType,
		UploadedBy:       doc.UploadedBy,
		UploadedAt:       doc.UploadedAt,
	}
}

// ToDocumentResponses converts a slice of Document models.
func ToDocumentResponses(docs []*model.Document) []DocumentResponse {
	responses := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = *ToDocumentResponse(doc)
	}
	return responses
}
