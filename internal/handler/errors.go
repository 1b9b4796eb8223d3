package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/projectdesk/projectdesk/internal/service"
)

// handleServiceError maps service errors to HTTP responses. Project
// guard errors surface on document and activity paths too, so the
// mapping lives in one switch instead of one per handler.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters")
	case errors.Is(err, service.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, "PASSWORD_TOO_LONG", "Password exceeds maximum length")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, service.ErrUserInactive):
		writeError(w, http.StatusUnauthorized, "USER_INACTIVE", "User account is inactive")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project not found")
	case errors.Is(err, service.ErrInvalidProjectName):
		writeError(w, http.StatusBadRequest, "INVALID_NAME", "Project name must be between 1 and 200 characters")
	case errors.Is(err, service.ErrDescriptionTooLong):
		writeError(w, http.StatusBadRequest, "DESCRIPTION_TOO_LONG", "Description exceeds maximum length")
	case errors.Is(err, service.ErrNotProjectOwner):
		writeError(w, http.StatusForbidden, "NOT_PROJECT_OWNER", "Only the project owner may perform this action")
	case errors.Is(err, service.ErrNotProjectMember):
		writeError(w, http.StatusForbidden, "NOT_PROJECT_MEMBER", "Not a member of this project")
	case errors.Is(err, service.ErrNotSelf):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Cannot access another user's projects")
	case errors.Is(err, service.ErrAlreadyParticipant):
		writeError(w, http.StatusConflict, "ALREADY_PARTICIPANT", "User is already a participant")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusNotFound, "NOT_PARTICIPANT", "User is not a participant of this project")
	case errors.Is(err, service.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found")
	case errors.Is(err, service.ErrMissingFile):
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "No file provided")
	case errors.Is(err, service.ErrEmptyFile):
		writeError(w, http.StatusBadRequest, "EMPTY_FILE", "Uploaded file is empty")
	case errors.Is(err, service.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the maximum upload size")
	case errors.Is(err, service.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, "INVALID_ACTION", "Unknown activity action")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
