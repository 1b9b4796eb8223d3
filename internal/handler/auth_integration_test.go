package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/projectdesk/projectdesk/internal/handler/dto"
	"github.com/projectdesk/projectdesk/internal/testutil"
)

func TestRegisterLoginFlow(t *testing.T) {
	env := newHandlerEnv(t)

	email := testutil.UniqueEmail("signup")
	user := env.registerUser(t, email, testutil.TestPassword)
	if user.ID <= 0 {
		t.Fatalf("user ID = %d, want positive", user.ID)
	}
	if user.Email != email {
		t.Fatalf("email = %q, want %q", user.Email, email)
	}
	if !user.IsActive {
		t.Fatal("new user is not active")
	}
	if user.CreatedAt.IsZero() {
		t.Fatal("created_at is zero")
	}

	rec := env.do(t, http.MethodPost, "/auth", "", dto.RegisterRequest{Email: email, Password: testutil.TestPassword})
	wantErrorCode(t, rec, http.StatusBadRequest, "EMAIL_TAKEN")

	// Uniqueness holds across letter case.
	rec = env.do(t, http.MethodPost, "/auth", "", dto.RegisterRequest{Email: strings.ToUpper(email), Password: testutil.TestPassword})
	wantErrorCode(t, rec, http.StatusBadRequest, "EMAIL_TAKEN")

	rec = env.do(t, http.MethodPost, "/login", "", dto.LoginRequest{Email: email, Password: "wrong-password-123"})
	wantErrorCode(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")

	rec = env.do(t, http.MethodPost, "/login", "", dto.LoginRequest{Email: testutil.UniqueEmail("ghost"), Password: testutil.TestPassword})
	wantErrorCode(t, rec, http.StatusNotFound, "USER_NOT_FOUND")

	rec = env.do(t, http.MethodPost, "/login", "", dto.LoginRequest{Email: email, Password: testutil.TestPassword})
	wantStatus(t, rec, http.StatusOK)
	var token dto.TokenResponse
	decodeBody(t, rec, &token)
	if token.AccessToken == "" {
		t.Fatal("access_token is empty")
	}
	if token.TokenType != "bearer" {
		t.Fatalf("token_type = %q, want %q", token.TokenType, "bearer")
	}
	if token.ExpiresIn != 3600 {
		t.Fatalf("expires_in = %d, want 3600", token.ExpiresIn)
	}

	rec = env.do(t, http.MethodGet, "/me", token.AccessToken, nil)
	wantStatus(t, rec, http.StatusOK)
	var me dto.UserResponse
	decodeBody(t, rec, &me)
	if me.ID != user.ID {
		t.Fatalf("me ID = %d, want %d", me.ID, user.ID)
	}
	if me.Email != email {
		t.Fatalf("me email = %q, want %q", me.Email, email)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newHandlerEnv(t)

	tests := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{"invalid email", "not-an-email", testutil.TestPassword, "INVALID_EMAIL"},
		{"empty email", "", testutil.TestPassword, "INVALID_EMAIL"},
		{"short password", testutil.UniqueEmail("short"), "seven07", "WEAK_PASSWORD"},
		{"password beyond bcrypt limit", testutil.UniqueEmail("long"), strings.Repeat("a", 73), "PASSWORD_TOO_LONG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth", "", dto.RegisterRequest{Email: tt.email, Password: tt.password})
			wantErrorCode(t, rec, http.StatusBadRequest, tt.code)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		rec := env.doRaw(t, http.MethodPost, "/auth", "", "application/json", bytes.NewReader([]byte("{")))
		wantErrorCode(t, rec, http.StatusBadRequest, "INVALID_JSON")
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newHandlerEnv(t)

	_, token := env.newActiveUser(t)

	rec := env.do(t, http.MethodGet, "/me", token, nil)
	wantStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodPost, "/logout", token, nil)
	wantStatus(t, rec, http.StatusNoContent)

	// The denylisted token no longer authenticates.
	rec = env.do(t, http.MethodGet, "/me", token, nil)
	wantErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestInactiveUserRejected(t *testing.T) {
	env := newHandlerEnv(t)

	email := testutil.UniqueEmail("inactive")
	user := env.registerUser(t, email, testutil.TestPassword)
	token := env.login(t, email, testutil.TestPassword)

	ctx := context.Background()
	if _, err := env.repo.Pool().Exec(ctx, "UPDATE users SET is_active = FALSE WHERE id = $1", user.ID); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/login", "", dto.LoginRequest{Email: email, Password: testutil.TestPassword})
	wantErrorCode(t, rec, http.StatusUnauthorized, "USER_INACTIVE")

	// Tokens issued before deactivation stop working too.
	rec = env.do(t, http.MethodGet, "/me", token, nil)
	wantErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newHandlerEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/me"},
		{http.MethodPost, "/logout"},
		{http.MethodPost, "/projects"},
		{http.MethodGet, "/projects/1"},
		{http.MethodGet, "/projects/1/documents"},
		{http.MethodGet, "/projects/1/activity"},
	}

	for _, tt := range paths {
		rec := env.do(t, tt.method, tt.path, "", nil)
		wantErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	}
}
