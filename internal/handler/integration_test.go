package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/projectdesk/projectdesk/internal/activity"
	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/cache"
	"github.com/projectdesk/projectdesk/internal/handler/dto"
	"github.com/projectdesk/projectdesk/internal/metrics"
	"github.com/projectdesk/projectdesk/internal/middleware"
	"github.com/projectdesk/projectdesk/internal/repository"
	"github.com/projectdesk/projectdesk/internal/service"
	"github.com/projectdesk/projectdesk/internal/storage"
	"github.com/projectdesk/projectdesk/internal/testutil"
)

const (
	integrationJWTSecret = "handler-integration-secret-key"
	maxUploadBytes       = 1 << 20
)

// handlerEnv wires the full stack behind a router with the production
// route shapes. Construction skips the test unless DATABASE_URL and
// REDIS_URL are set.
type handlerEnv struct {
	router http.Handler
	repo   *repository.Repository
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetAllSchemas(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schemas: %v", err)
	}

	cacheClient, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = cacheClient.Close()
	})

	if err := testutil.FlushRedis(ctx, cacheClient.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("create blob store: %v", err)
	}

	tokens, err := auth.NewTokenManager(integrationJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("create token manager: %v", err)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("open activity db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := metrics.NewInMemory()

	feed := activity.NewRepository(db)
	events := activity.NewRecorder(feed, logger, recorder)
	events.SetFlushInterval(100 * time.Millisecond)

	eventsCtx, cancel := context.WithCancel(ctx)
	eventsErr := make(chan error, 1)
	go func() {
		eventsErr <- events.Run(eventsCtx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-eventsErr:
		case <-time.After(2 * time.Second):
		}
	})

	users := service.NewUserService(repo, cacheClient, tokens, recorder)
	projects := service.NewProjectService(repo, cacheClient, store, events, recorder)
	documents := service.NewDocumentService(repo, store, projects, events, recorder, maxUploadBytes)
	activities := service.NewActivityService(feed, projects)

	authHandler := NewAuthHandler(users, logger)
	projectHandler := NewProjectHandler(projects, logger)
	documentHandler := NewDocumentHandler(documents, logger)
	activityHandler := NewActivityHandler(activities, logger)

	router := chi.NewRouter()
	router.Post("/auth", authHandler.Register)
	router.Post("/login", authHandler.Login)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:  logger,
			Tokens:  tokens,
			Revoked: cacheClient,
			Users:   repo,
		}))
		r.Get("/me", authHandler.Me)
		r.Post("/logout", authHandler.Logout)
		r.Post("/projects", projectHandler.Create)
		r.Get("/projects/user/{userID}", projectHandler.ListForUser)
		r.Get("/projects/{projectID}", projectHandler.Get)
		r.Put("/projects/{projectID}", projectHandler.Update)
		r.Delete("/projects/{projectID}", projectHandler.Delete)
		r.Post("/projects/{projectID}/participants", projectHandler.AddParticipant)
		r.Delete("/projects/{projectID}/participants/{userID}", projectHandler.RemoveParticipant)
		r.Get("/projects/{projectID}/documents", documentHandler.List)
		r.Post("/projects/{projectID}/documents", documentHandler.Upload)
		r.Get("/projects/{projectID}/documents/{documentID}", documentHandler.Get)
		r.Get("/projects/{projectID}/documents/{documentID}/download", documentHandler.Download)
		r.Get("/projects/{projectID}/documents/{documentID}/metadata", documentHandler.Metadata)
		r.Delete("/projects/{projectID}/documents/{documentID}", documentHandler.Delete)
		r.Get("/projects/{projectID}/activity", activityHandler.Feed)
	})

	return &handlerEnv{router: router, repo: repo}
}

func (env *handlerEnv) doRaw(t *testing.T, method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *handlerEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return env.doRaw(t, method, path, token, contentType, reader)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()

	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

func wantErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	wantStatus(t, rec, status)
	var resp dto.ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != code {
		t.Fatalf("error code = %q, want %q", resp.Code, code)
	}
}

func (env *handlerEnv) registerUser(t *testing.T, email, password string) dto.UserResponse {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/auth", "", dto.RegisterRequest{Email: email, Password: password})
	wantStatus(t, rec, http.StatusCreated)
	var user dto.UserResponse
	decodeBody(t, rec, &user)
	return user
}

func (env *handlerEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/login", "", dto.LoginRequest{Email: email, Password: password})
	wantStatus(t, rec, http.StatusOK)
	var token dto.TokenResponse
	decodeBody(t, rec, &token)
	if token.AccessToken == "" {
		t.Fatal("login returned an empty access token")
	}
	return token.AccessToken
}

func (env *handlerEnv) newActiveUser(t *testing.T) (dto.UserResponse, string) {
	t.Helper()

	email := testutil.UniqueEmail("user")
	user := env.registerUser(t, email, testutil.TestPassword)
	return user, env.login(t, email, testutil.TestPassword)
}

func (env *handlerEnv) createProject(t *testing.T, token, name, description string) dto.ProjectResponse {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/projects", token, dto.CreateProjectRequest{Name: name, Description: description})
	wantStatus(t, rec, http.StatusCreated)
	var project dto.ProjectResponse
	decodeBody(t, rec, &project)
	return project
}
