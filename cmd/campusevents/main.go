package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campusevents/campusevents/internal/app"
	"github.com/campusevents/campusevents/internal/auth"
	"github.com/campusevents/campusevents/internal/categories"
	"github.com/campusevents/campusevents/internal/clubs"
	"github.com/campusevents/campusevents/internal/contentrequests"
	contentrequesthttp "github.com/campusevents/campusevents/internal/contentrequests/http"
	"github.com/campusevents/campusevents/internal/events"
	"github.com/campusevents/campusevents/internal/forms"
	formshttp "github.com/campusevents/campusevents/internal/forms/http"
	"github.com/campusevents/campusevents/internal/observability"
	"github.com/campusevents/campusevents/internal/platform/cache"
	"github.com/campusevents/campusevents/internal/platform/db"
	"github.com/campusevents/campusevents/internal/platform/uploads"
	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/roles"
	roleshttp "github.com/campusevents/campusevents/internal/roles/http"
	"github.com/campusevents/campusevents/internal/settings"
	"github.com/campusevents/campusevents/internal/shared"
	"github.com/campusevents/campusevents/internal/stories"
	"github.com/campusevents/campusevents/internal/users"
	"github.com/campusevents/campusevents/jobs"
)

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

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, MinConns: cfg.PGMinConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if err := db.Migrate(dbpool); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}

	// The events feed falls back to uncached reads when Redis is down.
	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	images, err := uploads.New(cfg.UploadOptions())
	if err != nil {
		logger.Error("init upload store", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	rbacMiddleware := rbac.Middleware{Logger: logger}
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	redisOpts := cfg.AsynqRedis()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	usersService := users.NewService(users.NewRepository(dbpool))
	clubsService := clubs.NewService(clubs.NewRepository(dbpool), usersService)
	rolesService := roles.NewService(roles.NewRepository(dbpool), clubsService)

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		logger.Error("init token issuer", slog.Any("error", err))
		os.Exit(1)
	}
	authService := auth.NewService(usersService, rolesService, tokens)

	contentService := contentrequests.NewService(contentrequests.NewRepository(dbpool), clubsService)
	categoriesService := categories.NewService(categories.NewRepository(dbpool))
	eventsService := events.NewService(
		events.NewRepository(dbpool),
		categoriesService,
		cache.NewVersioned(redisClient, "events", cfg.CacheTTL),
		logger,
	)
	storiesService := stories.NewService(stories.NewRepository(dbpool), cfg.StoryTTL)
	settingsService := settings.NewService(settings.NewRepository(dbpool))
	formsService := forms.NewService(forms.NewRepository(dbpool), clubsService)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthService:  authService,
		AuthHandler:  auth.NewHandler(logger, authService, rbacMiddleware),
		UsersHandler: users.NewHandler(logger, usersService, rbacMiddleware),
		RolesHandler: roleshttp.NewHandler(logger, rolesService, usersService, auditLogger, metrics, rbacMiddleware),
		ClubsHandler: clubs.NewHandler(logger, clubsService, rbacMiddleware),
		ContentRequestHandler: contentrequesthttp.NewHandler(logger, contentService, rbacMiddleware, contentrequesthttp.Deps{
			Idempotency: idempotencyStore,
			Audit:       auditLogger,
			Notifier:    jobClient,
			Metrics:     metrics,
		}),
		CategoriesHandler: categories.NewHandler(logger, categoriesService, rbacMiddleware),
		EventsHandler:     events.NewHandler(logger, eventsService, rbacMiddleware, images),
		StoriesHandler:    stories.NewHandler(logger, storiesService, rbacMiddleware, images),
		FormsHandler: formshttp.NewHandler(logger, formsService, rbacMiddleware, formshttp.Deps{
			Idempotency: idempotencyStore,
			Audit:       auditLogger,
			Metrics:     metrics,
		}),
		SettingsHandler: settings.NewHandler(logger, settingsService, rbacMiddleware),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Uploads:         images.Handler(),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
