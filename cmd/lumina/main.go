package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lumina-lms/lumina-lms/internal/app"
	"github.com/lumina-lms/lumina-lms/internal/auth"
	"github.com/lumina-lms/lumina-lms/internal/authz"
	"github.com/lumina-lms/lumina-lms/internal/courses"
	"github.com/lumina-lms/lumina-lms/internal/observability"
	"github.com/lumina-lms/lumina-lms/internal/orgs"
	"github.com/lumina-lms/lumina-lms/internal/platform/cache"
	"github.com/lumina-lms/lumina-lms/internal/platform/db"
	"github.com/lumina-lms/lumina-lms/internal/shared"
	"github.com/lumina-lms/lumina-lms/internal/users"
	"github.com/lumina-lms/lumina-lms/jobs"
)

type claimsRefreshQueue struct {
	client *jobs.Client
}

func (q claimsRefreshQueue) EnqueueClaimsRefresh(ctx context.Context, courseID string) error {
	_, err := q.client.EnqueueClaimsRefresh(ctx, jobs.ClaimsRefreshPayload{CourseID: courseID})
	return err
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "lumina_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()

	registry := authz.NewRegistry(logger, metrics)
	registry.Register(authz.CategoryCourseScoped, authz.NewCourseScopedHandler(authz.DefaultCourseThresholds()))
	registry.Register(authz.CategoryOrgScoped, authz.NewOrgScopedHandler(authz.DefaultCourseThresholds()))
	registry.Register(authz.CategoryReadOnly, authz.NewReadOnlyHandler())
	registry.Register(users.EntityUser.Name, authz.NewUserVisibilityHandler())
	registry.Seal()

	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	coursesRepo := courses.NewRepository(dbpool)
	coursesService := courses.NewService(coursesRepo, registry, auditLogger, logger)
	coursesHandler := courses.NewHandler(logger, coursesService)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	coursesService.SetClaimsRefresher(claimsRefreshQueue{client: jobsClient})

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, registry, logger)
	usersHandler := users.NewHandler(logger, usersService)

	orgsRepo := orgs.NewRepository(dbpool)
	orgsService := orgs.NewService(orgsRepo, registry, logger)
	orgsHandler := orgs.NewHandler(logger, orgsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthService:    authService,
		AuthHandler:    authHandler,
		CoursesHandler: coursesHandler,
		UsersHandler:   usersHandler,
		OrgsHandler:    orgsHandler,
		JobsHandler:    jobsHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
