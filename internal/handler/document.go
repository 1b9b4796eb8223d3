package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/handler/dto"
	"github.com/projectdesk/projectdesk/internal/service"
)

// DocumentHandler handles HTTP requests for document operations.
type DocumentHandler struct {
	svc    *service.DocumentService
	logger *slog.Logger
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(svc *service.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		svc:    svc,
		logger: logger,
	}
}

// Upload handles POST /projects/{projectID}/documents. Expects a
// multipart form with the file under the "file" field.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, ok := parseIDParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid project ID")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusBadRequest, "MISSING_FILE", "No file provided")
			return
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the maximum upload size")
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_MULTIPART", "Malformed multipart request")
		return
	}
	defer file.Close()

	doc, err := h.svc.Upload(r.Context(), authCtx.UserID, projectID, service.UploadDocumentInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("document_uploaded",
		"document_id", doc.ID,
		"project_id", projectID,
		"file_size", doc.FileSize,
	)

	writeJSON(w, http.StatusCreated, dto.ToDocumentResponse(doc))
}

// List handles GET /projects/{projectID}/documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, ok := parseIDParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid project ID")
		return
	}

	docs, err := h.svc.List(r.Context(), authCtx.UserID, projectID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDocumentResponses(docs))
}

// Get handles GET /projects/{projectID}/documents/{documentID}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, documentID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Get(r.Context(), authCtx.UserID, projectID, documentID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDocumentResponse(doc))
}

// Download handles GET /projects/{projectID}/documents/{documentID}/download.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, documentID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	doc, content, err := h.svc.Download(r.Context(), authCtx.UserID, projectID, documentID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	defer content.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{
		"filename": doc.OriginalFilename,
	})

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.FileSize, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		// Status is sent; the client sees a truncated body.
		h.logger.Error("document stream failed",
			"error", err,
			"document_id", documentID,
		)
	}
}

// Metadata handles GET /projects/{projectID}/documents/{documentID}/metadata.
func (h *DocumentHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, documentID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Get(r.Context(), authCtx.UserID, projectID, documentID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc.Metadata())
}

// Delete handles DELETE /projects/{projectID}/documents/{documentID}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, documentID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), authCtx.UserID, projectID, documentID); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("document_deleted",
		"document_id", documentID,
		"project_id", projectID,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "Document deleted successfully",
	})
}

// pathIDs parses the project and document IDs from the path, writing
// the 400 itself when either is malformed.
func (h *DocumentHandler) pathIDs(w http.ResponseWriter, r *http.Request) (projectID, documentID int64, ok bool) {
	projectID, ok = parseIDParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid project ID")
		return 0, 0, false
	}

	documentID, ok = parseIDParam(r, "documentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid document ID")
		return 0, 0, false
	}

	return projectID, documentID, true
}
