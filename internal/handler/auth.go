package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/handler/dto"
	"github.com/projectdesk/projectdesk/internal/service"
)

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /auth.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	out, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", out.User.ID)

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: out.Token,
		TokenType:   "bearer",
		ExpiresIn:   out.ExpiresIn,
	})
}

// Logout handles POST /logout. The presented token is revoked for the
// remainder of its lifetime.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	if err := h.svc.Logout(r.Context(), authCtx); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("user_logged_out", "user_id", authCtx.UserID)

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	user, err := h.svc.GetUser(r.Context(), authCtx.UserID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}
