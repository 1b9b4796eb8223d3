package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/handler/dto"
	"github.com/projectdesk/projectdesk/internal/service"
)

// ProjectHandler handles HTTP requests for project operations.
type ProjectHandler struct {
	svc    *service.ProjectService
	logger *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(svc *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /projects. The owner is always the authenticated
// user, never taken from the body.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	var req dto.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	project, err := h.svc.Create(r.Context(), authCtx.UserID, service.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("project_created",
		"project_id", project.ID,
		"owner_id", project.OwnerID,
	)

	writeJSON(w, http.StatusCreated, dto.ToProjectResponse(project))
}

// Get handles GET /projects/{projectID}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, ok := parseIDParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid project ID")
		return
	}

	project, err := h.svc.Get(r.Context(), authCtx.UserID, projectID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProjectResponse(project))
}

// ListForUser handles GET /projects/user/{userID}. Users may only list
// their own projects.
func (h *ProjectHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	userID, ok := parseIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	projects, err := h.svc.ListForUser(r.Context(), authCtx.UserID, userID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProjectResponses(projects))
}

// Update handles PUT /projects/{projectID}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, ok := parseIDParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid project ID")
		return
	}

	var req dto.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	project, err := h.svc.Update(r.Context(), authCtx.UserID, projectID, service.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("project_updated", "project_id", project.ID)

	writeJSON(w, http.StatusOK, dto.ToProjectResponse(project))
}

// Delete handles DELETE /projects/{projectID}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, ok := parseIDParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid project ID")
		return
	}

	if err := h.svc.Delete(r.Context(), authCtx.UserID, projectID); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("project_deleted", "project_id", projectID)

	w.WriteHeader(http.StatusNoContent)
}

// AddParticipant handles POST /projects/{projectID}/participants.
func (h *ProjectHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, ok := parseIDParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid project ID")
		return
	}

	var req dto.AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	project, err := h.svc.AddParticipant(r.Context(), authCtx.UserID, projectID, req.UserID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("participant_added",
		"project_id", projectID,
		"user_id", req.UserID,
	)

	writeJSON(w, http.StatusOK, dto.ToProjectResponse(project))
}

// RemoveParticipant handles DELETE /projects/{projectID}/participants/{userID}.
func (h *ProjectHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, ok := parseIDParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid project ID")
		return
	}

	userID, ok := parseIDParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	project, err := h.svc.RemoveParticipant(r.Context(), authCtx.UserID, projectID, userID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("participant_removed",
		"project_id", projectID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToProjectResponse(project))
}
