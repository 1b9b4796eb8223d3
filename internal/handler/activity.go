package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/model"
	"github.com/projectdesk/projectdesk/internal/service"
)

// ActivityHandler serves the per-project activity feed.
type ActivityHandler struct {
	svc    *service.ActivityService
	logger *slog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(svc *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		svc:    svc,
		logger: logger,
	}
}

// Feed handles GET /projects/{projectID}/activity.
// Supports ?limit= and repeatable ?action= filters.
func (h *ActivityHandler) Feed(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	projectID, ok := parseIDParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid project ID")
		return
	}

	query := r.URL.Query()

	limit := 0
	if l := query.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	var actions []model.ActivityAction
	for _, a := range query["action"] {
		actions = append(actions, model.ActivityAction(a))
	}

	events, err := h.svc.Feed(r.Context(), authCtx.UserID, service.FeedInput{
		ProjectID: projectID,
		Limit:     limit,
		Actions:   actions,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	if events == nil {
		events = []*model.ActivityEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
