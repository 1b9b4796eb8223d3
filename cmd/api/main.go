// Package main is the entrypoint for the Project Management API server.
package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/projectdesk/projectdesk/docs"
	"github.com/projectdesk/projectdesk/internal/activity"
	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/cache"
	"github.com/projectdesk/projectdesk/internal/config"
	"github.com/projectdesk/projectdesk/internal/handler"
	"github.com/projectdesk/projectdesk/internal/metrics"
	"github.com/projectdesk/projectdesk/internal/middleware"
	"github.com/projectdesk/projectdesk/internal/repository"
	"github.com/projectdesk/projectdesk/internal/server"
	"github.com/projectdesk/projectdesk/internal/service"
	"github.com/projectdesk/projectdesk/internal/storage"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// uploadOverhead covers multipart framing on top of the file itself.
const uploadOverhead = 64 << 10

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	dsn := cfg.DatabaseDSN()
	repo, err := repository.New(ctx, dsn)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, dsn)),
			slog.String("database_url", redactURL(dsn)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Separate database/sql handle for the activity feed batch writer.
	feedDB, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("failed to open activity database handle",
			slog.String("error", sanitizeError(err, dsn)),
		)
		os.Exit(1)
	}
	defer feedDB.Close()
	if err := feedDB.PingContext(ctx); err != nil {
		logger.Error("failed to ping activity database handle",
			slog.String("error", sanitizeError(err, dsn)),
		)
		os.Exit(1)
	}

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	store, err := storage.New(cfg.DocumentStorageDir)
	if err != nil {
		logger.Error("failed to open document storage",
			"error", err,
			"dir", cfg.DocumentStorageDir,
		)
		os.Exit(1)
	}
	logger.Info("document storage ready", "dir", cfg.DocumentStorageDir)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to initialize token manager", "error", err)
		os.Exit(1)
	}

	// Prometheus when exposition is enabled, otherwise in-memory
	// counters surfaced by the admin stats endpoint.
	var metricsRecorder metrics.Recorder
	var promRecorder *metrics.PrometheusRecorder
	var counterSource handler.CounterSource
	if cfg.MetricsEnabled {
		promRecorder = metrics.NewPrometheus()
		metricsRecorder = promRecorder
	} else {
		inMemory := metrics.NewInMemory()
		metricsRecorder = inMemory
		counterSource = inMemory
	}

	feed := activity.NewRepository(feedDB)
	events := activity.NewRecorder(feed, logger, metricsRecorder)

	// Initialize services
	userService := service.NewUserService(repo, cacheClient, tokens, metricsRecorder)
	projectService := service.NewProjectService(repo, cacheClient, store, events, metricsRecorder)
	documentService := service.NewDocumentService(repo, store, projectService, events, metricsRecorder, cfg.MaxUploadSize)
	activityService := service.NewActivityService(feed, projectService)

	// Initialize handlers
	deps := routerDeps{
		cfg:       cfg,
		logger:    logger,
		repo:      repo,
		cache:     cacheClient,
		tokens:    tokens,
		recorder:  metricsRecorder,
		prom:      promRecorder,
		root:      handler.New(version),
		health:    handler.NewHealthHandler(repo, cacheClient),
		auth:      handler.NewAuthHandler(userService, logger),
		projects:  handler.NewProjectHandler(projectService, logger),
		documents: handler.NewDocumentHandler(documentService, logger),
		activity:  handler.NewActivityHandler(activityService, logger),
		stats:     handler.NewStatsHandler(repo, counterSource, logger, version),
		docs:      handler.NewDocsHandler(docs.OpenAPIYAML),
	}

	r := setupRouter(deps)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// The recorder drains after the HTTP server stops, so events from
	// in-flight requests still land.
	recorderCtx, cancelRecorder := context.WithCancel(ctx)
	defer cancelRecorder()
	go func() {
		if err := events.Run(recorderCtx); err != nil {
			logger.Error("activity recorder error", "error", err)
		}
	}()
	srv.OnShutdown("activity recorder", events.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", version,
		"metrics_enabled", cfg.MetricsEnabled,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
// When LOG_FILE is set, logs also go to that file with size-based
// rotation.
func initLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps carries everything setupRouter wires together.
type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	repo     *repository.Repository
	cache    *cache.Cache
	tokens   *auth.TokenManager
	recorder metrics.Recorder
	prom     *metrics.PrometheusRecorder

	root      *handler.Handler
	health    *handler.HealthHandler
	auth      *handler.AuthHandler
	projects  *handler.ProjectHandler
	documents *handler.DocumentHandler
	activity  *handler.ActivityHandler
	stats     *handler.StatsHandler
	docs      *handler.DocsHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      d.cfg.IsDevelopment(),
		MaxRequestBodySize: d.cfg.MaxRequestBodySize,
	}))

	corsCfg := middleware.DefaultCORSConfig()
	if origins := d.cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg.AllowedOrigins = origins
	}
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Metrics(d.recorder))

	// Health endpoints (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)

	// Root info and API documentation
	r.Get("/", d.root.Hello)
	r.Get("/docs", d.docs.Page)
	r.Get("/docs/openapi.yaml", d.docs.Spec)

	if d.prom != nil {
		r.Method(http.MethodGet, "/metrics", d.prom.Handler())
	}

	authCfg := middleware.AuthConfig{
		Logger:  d.logger,
		Tokens:  d.tokens,
		Revoked: d.cache,
		Users:   d.repo,
	}

	rateCfg := middleware.RateLimitConfig{
		Logger:      d.logger,
		Cache:       d.cache,
		AuthEnabled: d.cfg.RateLimitAuthEnabled,
		AuthRPS:     d.cfg.RateLimitAuthRPS,
		AuthBurst:   d.cfg.RateLimitAuthBurst,
		APIEnabled:  d.cfg.RateLimitAPIEnabled,
		APIRPS:      d.cfg.RateLimitAPIRPS,
		APIBurst:    d.cfg.RateLimitAPIBurst,
	}

	jsonBody := middleware.MaxBodySize(d.cfg.MaxRequestBodySize)

	// Public auth endpoints, rate limited per client IP.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitAuth(rateCfg))
		r.Use(jsonBody)

		r.Post("/auth", d.auth.Register)
		r.Post("/login", d.auth.Login)
	})

	// Authenticated API, rate limited per user.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitAPI(rateCfg))

		r.Group(func(r chi.Router) {
			r.Use(jsonBody)

			r.Get("/me", d.auth.Me)
			r.Post("/logout", d.auth.Logout)

			r.Post("/projects", d.projects.Create)
			r.Get("/projects/user/{userID}", d.projects.ListForUser)
			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Get("/", d.projects.Get)
				r.Put("/", d.projects.Update)
				r.Delete("/", d.projects.Delete)

				r.Post("/participants", d.projects.AddParticipant)
				r.Delete("/participants/{userID}", d.projects.RemoveParticipant)

				r.Get("/documents", d.documents.List)
				r.Get("/documents/{documentID}", d.documents.Get)
				r.Get("/documents/{documentID}/download", d.documents.Download)
				r.Get("/documents/{documentID}/metadata", d.documents.Metadata)
				r.Delete("/documents/{documentID}", d.documents.Delete)

				r.Get("/activity", d.activity.Feed)
			})

			r.Get("/api/v1/admin/stats", d.stats.Stats)
		})

		// Uploads carry their own, larger body cap.
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(d.cfg.MaxUploadSize + uploadOverhead))

			r.Post("/projects/{projectID}/documents", d.documents.Upload)
		})
	})

	// 404 and 405 handlers
	r.NotFound(d.root.NotFound)
	r.MethodNotAllowed(d.root.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
