package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/projectdesk/projectdesk/internal/metrics"
	"github.com/projectdesk/projectdesk/internal/model"
	"github.com/projectdesk/projectdesk/internal/repository"
	"github.com/projectdesk/projectdesk/internal/storage"
)

// Document errors.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrMissingFile      = errors.New("no file provided")
	ErrEmptyFile        = errors.New("uploaded file is empty")
	ErrFileTooLarge     = errors.New("uploaded file exceeds the size limit")
)

const defaultContentType = "application/octet-stream"

// DocumentService handles document metadata and content.
type DocumentService struct {
	repo     *repository.Repository
	store    *storage.Store
	projects *ProjectService
	activity ActivityRecorder
	metrics  metrics.Recorder
	maxSize  int64
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(repo *repository.Repository, store *storage.Store, projects *ProjectService, activity ActivityRecorder, recorder metrics.Recorder, maxUploadSize int64) *DocumentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if activity == nil {
		activity = noopActivity{}
	}
	return &DocumentService{
		repo:     repo,
		store:    store,
		projects: projects,
		activity: activity,
		metrics:  recorder,
		maxSize:  maxUploadSize,
	}
}

// MaxUploadSize returns the configured per-file size limit in bytes.
func (s *DocumentService) MaxUploadSize() int64 {
	return s.maxSize
}

// UploadDocumentInput defines input for storing a document.
type UploadDocumentInput struct {
	Filename    string
	ContentType string
	Size        int64 // declared size, 0 when unknown
	Content     io.Reader
}

// Upload stores a document's content and records its metadata. Any
// project member may upload.
func (s *DocumentService) Upload(ctx context.Context, actorID, projectID int64, input UploadDocumentInput) (*model.Document, error) {
	if _, err := s.projects.Get(ctx, actorID, projectID); err != nil {
		return nil, err
	}

	if input.Content == nil {
		return nil, ErrMissingFile
	}
	filename := sanitizeFilename(input.Filename)
	if filename == "" {
		return nil, ErrMissingFile
	}
	if input.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	// Read one byte past the limit so oversized uploads are detected
	// even when the declared size lies.
	key := ulid.Make().String()
	size, checksum, err := s.store.Save(key, io.LimitReader(input.Content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	if size > s.maxSize {
		_ = s.store.Delete(key)
		return nil, ErrFileTooLarge
	}
	if size == 0 {
		_ = s.store.Delete(key)
		return nil, ErrEmptyFile
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	doc := &model.Document{
		ProjectID:        projectID,
		OriginalFilename: filename,
		StorageKey:       key,
		FileSize:         size,
		ContentType:      contentType,
		UploadedBy:       actorID,
		Checksum:         checksum,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		_ = s.store.Delete(key)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.metrics.IncDocumentUploaded()
	s.metrics.ObserveUploadSize(size)
	s.activity.Record(&model.ActivityEvent{
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    model.ActivityDocumentUploaded,
		Detail:    filename,
	})

	return doc, nil
}

// List returns a project's documents, newest first.
func (s *DocumentService) List(ctx context.Context, actorID, projectID int64) ([]*model.Document, error) {
	if _, err := s.projects.Get(ctx, actorID, projectID); err != nil {
		return nil, err
	}

	docs, err := s.repo.ListDocumentsByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Get retrieves a document's metadata. Documents are only reachable
// through their own project's path.
func (s *DocumentService) Get(ctx context.Context, actorID, projectID, documentID int64) (*model.Document, error) {
	if _, err := s.projects.Get(ctx, actorID, projectID); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetDocumentByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	if doc.ProjectID != projectID {
		return nil, ErrDocumentNotFound
	}

	return doc, nil
}

// Download opens a document's content for streaming. The caller must
// close the reader.
func (s *DocumentService) Download(ctx context.Context, actorID, projectID, documentID int64) (*model.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, actorID, projectID, documentID)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.store.Open(doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, fmt.Errorf("failed to open document content: %w", err)
	}

	return doc, content, nil
}

// Delete removes a document and its stored content. Any project
// member may delete.
func (s *DocumentService) Delete(ctx context.Context, actorID, projectID, documentID int64) error {
	doc, err := s.Get(ctx, actorID, projectID, documentID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if err := s.store.Delete(doc.StorageKey); err != nil {
		_ = err // orphaned blobs are reclaimable offline
	}

	s.metrics.IncDocumentDeleted()
	s.activity.Record(&model.ActivityEvent{
		ProjectID: projectID,
		ActorID:   actorID,
		Action:    model.ActivityDocumentDeleted,
		Detail:    doc.OriginalFilename,
	})

	return nil
}

// sanitizeFilename strips path components from an uploaded filename.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
