package model

import "time"

// Document represents a file attached to a project. The file bytes
// live in blob storage under StorageKey; this entity carries the
// metadata only.
type Document struct {
	ID               int64     `json:"id"`
	ProjectID        int64     `json:"project_id"`
	OriginalFilename string    `json:"original_filename"`
	StorageKey       string    `json:"-"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type"`
	Checksum         string    `json:"checksum"`
	UploadedBy       int64     `json:"uploaded_by"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// DocumentMetadata is the reduced view returned by the metadata endpoint.
type DocumentMetadata struct {
	Filename    string    `json:"filename"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Metadata returns the reduced metadata view of the document.
func (d *Document) Metadata() DocumentMetadata {
	return DocumentMetadata{
		Filename:    d.OriginalFilename,
		FileSize:    d.FileSize,
		ContentType: d.ContentType,
		UploadedAt:  d.UploadedAt,
	}
}
