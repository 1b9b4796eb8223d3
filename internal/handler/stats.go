package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/projectdesk/projectdesk/internal/metrics"
	"github.com/projectdesk/projectdesk/internal/repository"
)

// StatsSource yields the aggregate entity counts.
type StatsSource interface {
	GetStats(ctx context.Context) (*repository.Stats, error)
}

// CounterSource exposes the in-process counter snapshot. Nil when the
// deployment records metrics to Prometheus instead.
type CounterSource interface {
	Snapshot() metrics.Snapshot
}

// StatsHandler provides operational statistics for admins.
type StatsHandler struct {
	repo     StatsSource
	counters CounterSource
	logger   *slog.Logger
	version  string
	started  time.Time
}

// NewStatsHandler creates a new StatsHandler. counters may be nil.
func NewStatsHandler(repo StatsSource, counters CounterSource, logger *slog.Logger, version string) *StatsHandler {
	return &StatsHandler{
		repo:     repo,
		counters: counters,
		logger:   logger,
		version:  version,
		started:  time.Now().UTC(),
	}
}

// StatsResponse represents operational statistics.
type StatsResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Totals    *repository.Stats `json:"totals"`
	Counters  *CounterSnapshot  `json:"counters,omitempty"`
}

// CounterSnapshot is the wire form of the in-process counters.
type CounterSnapshot struct {
	HTTPRequests        uint64 `json:"http_requests"`
	UsersRegistered     uint64 `json:"users_registered"`
	LoginSuccesses      uint64 `json:"login_successes"`
	LoginFailures       uint64 `json:"login_failures"`
	TokensRevoked       uint64 `json:"tokens_revoked"`
	ProjectsCreated     uint64 `json:"projects_created"`
	ProjectsUpdated     uint64 `json:"projects_updated"`
	ProjectsDeleted     uint64 `json:"projects_deleted"`
	ParticipantsAdded   uint64 `json:"participants_added"`
	ParticipantsRemoved uint64 `json:"participants_removed"`
	ProjectCacheHits    uint64 `json:"project_cache_hits"`
	ProjectCacheMisses  uint64 `json:"project_cache_misses"`
	DocumentsUploaded   uint64 `json:"documents_uploaded"`
	DocumentsDeleted    uint64 `json:"documents_deleted"`
	UploadBytesTotal    int64  `json:"upload_bytes_total"`
	ActivityQueued      uint64 `json:"activity_queued"`
	ActivityDropped     uint64 `json:"activity_dropped"`
}

// Stats handles GET /api/v1/admin/stats.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	totals, err := h.repo.GetStats(ctx)
	if err != nil {
		h.logger.Error("failed to collect stats", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to collect stats")
		return
	}

	response := StatsResponse{
		Timestamp: time.Now().UTC(),
		Service:   "projectdesk",
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Totals:    totals,
	}

	if h.counters != nil {
		snap := h.counters.Snapshot()
		response.Counters = &CounterSnapshot{
			HTTPRequests:        snap.HTTPRequests,
			UsersRegistered:     snap.UsersRegistered,
			LoginSuccesses:      snap.LoginSuccesses,
			LoginFailures:       snap.LoginInvalidCredentials + snap.LoginInactive + snap.LoginNotFound,
			TokensRevoked:       snap.TokensRevoked,
			ProjectsCreated:     snap.ProjectsCreated,
			ProjectsUpdated:     snap.ProjectsUpdated,
			ProjectsDeleted:     snap.ProjectsDeleted,
			ParticipantsAdded:   snap.ParticipantsAdded,
			ParticipantsRemoved: snap.ParticipantsRemoved,
			ProjectCacheHits:    snap.ProjectCacheHits,
			ProjectCacheMisses:  snap.ProjectCacheMisses,
			DocumentsUploaded:   snap.DocumentsUploaded,
			DocumentsDeleted:    snap.DocumentsDeleted,
			UploadBytesTotal:    snap.UploadBytesTotal,
			ActivityQueued:      snap.ActivityQueued,
			ActivityDropped:     snap.ActivityDropped,
		}
	}

	writeJSON(w, http.StatusOK, response)
}
