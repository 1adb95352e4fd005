// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/medprep/internal/account"
	"github.com/carterperez-dev/medprep/internal/activity"
	"github.com/carterperez-dev/medprep/internal/admin"
	"github.com/carterperez-dev/medprep/internal/ai"
	"github.com/carterperez-dev/medprep/internal/assist"
	"github.com/carterperez-dev/medprep/internal/auth"
	"github.com/carterperez-dev/medprep/internal/billing"
	"github.com/carterperez-dev/medprep/internal/casestudy"
	"github.com/carterperez-dev/medprep/internal/chat"
	"github.com/carterperez-dev/medprep/internal/config"
	"github.com/carterperez-dev/medprep/internal/core"
	"github.com/carterperez-dev/medprep/internal/dashboard"
	"github.com/carterperez-dev/medprep/internal/health"
	"github.com/carterperez-dev/medprep/internal/metering"
	"github.com/carterperez-dev/medprep/internal/middleware"
	"github.com/carterperez-dev/medprep/internal/note"
	"github.com/carterperez-dev/medprep/internal/quiz"
	"github.com/carterperez-dev/medprep/internal/server"
	"github.com/carterperez-dev/medprep/internal/studyplan"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	tokens, err := auth.NewTokenManager(cfg.Session)
	if err != nil {
		return err
	}

	aiClient := ai.NewClient(cfg.AI)
	if !cfg.AIEnabled() {
		logger.Warn("OPENAI_API_KEY not set, AI features will return 503")
	} else {
		logger.Info("completion client initialized", "model", cfg.AI.Model)
	}

	var gateway billing.Gateway
	if stripeGateway := billing.NewStripeGateway(cfg.Billing); stripeGateway != nil {
		gateway = stripeGateway
		logger.Info("stripe billing enabled")
	} else {
		logger.Warn("stripe not configured, checkout and webhooks disabled")
	}

	ledger := metering.NewLedger(db.DB)
	pipeline := metering.NewPipeline(metering.PipelineDeps{
		Tx:           db,
		DB:           db.DB,
		Client:       aiClient,
		CharsPerUnit: cfg.Quota.CharsPerUnit,
		Logger:       logger,
	})
	gate := metering.NewGate(ledger)
	meter := metering.NewMeter(ledger)

	accountSvc := account.NewService(account.NewRepository(db.DB), cfg.Quota.TrialLimit)
	accountHandler := account.NewHandler(accountSvc)

	authSvc := auth.NewService(
		auth.NewSessionStore(redis.Client),
		tokens,
		accountSvc,
		cfg.Session.TTL,
		logger,
	)
	authHandler := auth.NewHandler(authSvc, auth.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.IsProduction(),
	})

	activitySvc := activity.NewService(activity.NewRepository(db.DB))
	activityHandler := activity.NewHandler(activitySvc)

	chatHandler := chat.NewHandler(chat.NewService(db.DB, pipeline, gate, cfg.Quota.ContextWindow))
	quizHandler := quiz.NewHandler(quiz.NewService(db.DB, db, pipeline))
	caseHandler := casestudy.NewHandler(casestudy.NewService(db.DB, pipeline))
	planHandler := studyplan.NewHandler(studyplan.NewService(db.DB, pipeline))
	noteHandler := note.NewHandler(note.NewService(db.DB, db, pipeline))
	assistHandler := assist.NewHandler(assist.NewService(pipeline))
	billingHandler := billing.NewHandler(billing.NewService(db.DB, db, gateway, logger))
	dashboardHandler := dashboard.NewHandler(dashboard.NewService(meter, activitySvc))

	deps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if pinger, ok := aiClient.(health.Checker); ok {
		deps = append(deps, health.Dependency{Name: "ai", Checker: pinger, Optional: true})
	}
	healthHandler := health.NewHandler(deps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Sessions:   authSvc,
		Usage:      admin.NewRepository(db.DB),
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.LimiterConfig{
			Limit:    middleware.LimitFromConfig(cfg.RateLimit),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	tiered := middleware.TieredRateLimiter(redis.Client, middleware.DefaultTiers)
	verify := middleware.Authenticator(authSvc, cfg.Session.CookieName)
	authenticator := func(next http.Handler) http.Handler {
		return verify(tiered(next))
	}
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		accountHandler.RegisterRoutes(r, authenticator)
		accountHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		activityHandler.RegisterRoutes(r, authenticator)

		chatHandler.RegisterRoutes(r, authenticator)
		quizHandler.RegisterRoutes(r, authenticator)
		caseHandler.RegisterRoutes(r, authenticator)
		planHandler.RegisterRoutes(r, authenticator)
		noteHandler.RegisterRoutes(r, authenticator)
		assistHandler.RegisterRoutes(r, authenticator)

		billingHandler.RegisterRoutes(r, authenticator)
		dashboardHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
