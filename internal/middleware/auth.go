package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/model"
	"github.com/projectdesk/projectdesk/internal/repository"
)

// UserLoader loads accounts during authentication.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// TokenChecker reports whether a token ID has been revoked.
type TokenChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Tokens  *auth.TokenManager
	Revoked TokenChecker
	Users   UserLoader
}

// Auth returns a middleware that authenticates requests with a bearer
// JWT. It verifies the signature and expiry, rejects revoked tokens,
// loads the account to confirm it is still active, and injects the
// auth context into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			claims, err := cfg.Tokens.Verify(token)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, auth.ErrTokenExpired) {
					reason = "token_expired"
				}
				logAuthFailure(cfg.Logger, r, reason)
				writeAuthError(w)
				return
			}

			revoked, err := cfg.Revoked.IsTokenRevoked(r.Context(), claims.ID)
			if err != nil {
				// Fail open - a Redis error does not block valid tokens.
				cfg.Logger.Error("token revocation check failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			} else if revoked {
				logAuthFailure(cfg.Logger, r, "token_revoked")
				writeAuthError(w)
				return
			}

			authCtx, err := auth.AuthContextFromClaims(claims)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_subject")
				writeAuthError(w)
				return
			}

			user, err := cfg.Users.GetUserByID(r.Context(), authCtx.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					logAuthFailure(cfg.Logger, r, "unknown_user")
				} else {
					cfg.Logger.Error("database error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				writeAuthError(w)
				return
			}

			if !user.IsActive {
				logAuthFailure(cfg.Logger, r, "user_inactive")
				writeAuthError(w)
				return
			}

			authCtx.Email = user.Email

			cfg.Logger.Debug("authentication successful",
				slog.Int64("user_id", authCtx.UserID),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken pulls the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// logAuthFailure logs a rejected request with its reason.
func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response. The body is the
// same for every failure so callers cannot probe token state.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing token","code":"UNAUTHORIZED"}`))
}
