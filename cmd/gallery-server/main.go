package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gallery-twin/internal/config"
	"gallery-twin/internal/handler"
	"gallery-twin/internal/middleware"
	"gallery-twin/internal/migrations"
	"gallery-twin/internal/observability"
	"gallery-twin/internal/repository/postgres"
	"gallery-twin/internal/security"
	"gallery-twin/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting gallery server")

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(connCtx); err != nil {
		slog.Error("database ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("connected to postgresql")

	if err := migrations.Run(db); err != nil {
		slog.Error("migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if version, dirty, err := migrations.Version(db); err == nil {
		slog.Info("migrations applied",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go config.ReportPoolMetrics(ctx, db, 15*time.Second)

	sessionRepo, err := postgres.NewSessionRepository(db)
	if err != nil {
		slog.Error("failed to prepare session statements", slog.String("error", err.Error()))
		os.Exit(1)
	}
	eventRepo, err := postgres.NewEventRepository(db)
	if err != nil {
		slog.Error("failed to prepare event statements", slog.String("error", err.Error()))
		os.Exit(1)
	}
	answerRepo, err := postgres.NewAnswerRepository(db)
	if err != nil {
		slog.Error("failed to prepare answer statements", slog.String("error", err.Error()))
		os.Exit(1)
	}
	exhibitRepo, err := postgres.NewExhibitRepository(db)
	if err != nil {
		slog.Error("failed to prepare exhibit statements", slog.String("error", err.Error()))
		os.Exit(1)
	}
	questionRepo, err := postgres.NewQuestionRepository(db)
	if err != nil {
		slog.Error("failed to prepare question statements", slog.String("error", err.Error()))
		os.Exit(1)
	}
	statsRepo := postgres.NewStatsRepository(db)

	sessionService := service.NewSessionService(sessionRepo, cfg.SessionTTL)
	eventService := service.NewEventService(eventRepo)
	analyticsService := service.NewAnalyticsService(statsRepo, exhibitRepo)
	answerService := service.NewAnswerService(answerRepo, questionRepo, exhibitRepo, sessionService)

	tokens, err := security.NewTokenManager([]byte(cfg.SecretKey), cfg.CSRFTokenTTL)
	if err != nil {
		slog.Error("failed to initialize csrf tokens", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sessionHandler := handler.NewSessionHandler(tokens)
	eventHandler := handler.NewEventHandler(eventService)
	exhibitHandler := handler.NewExhibitHandler(exhibitRepo, questionRepo)
	answerHandler := handler.NewAnswerHandler(answerService)
	adminHandler := handler.NewAdminHandler(analyticsService, statsRepo)

	apiLimiter := middleware.NewRateLimiter(20, 50)
	defer apiLimiter.Stop()
	adminLimiter := middleware.NewRateLimiter(5, 10)
	defer adminLimiter.Stop()

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics())
	r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig()))

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db))
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apiLimiter.Middleware())
			r.Use(middleware.Session(sessionService))
			r.Use(middleware.CSRF(tokens))

			r.Get("/session", sessionHandler.Get)
			r.Get("/exhibits", exhibitHandler.List)
			r.Get("/exhibits/{slug}", exhibitHandler.Get)
			r.Post("/events", eventHandler.Record)
			r.Post("/exhibits/{slug}/answers", answerHandler.SubmitExhibit)
			r.Post("/survey/{category}", answerHandler.SubmitGlobal)
		})

		r.Group(func(r chi.Router) {
			r.Use(adminLimiter.Middleware())
			r.Use(middleware.AdminAuth(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash))

			r.Get("/admin/dashboard", adminHandler.Dashboard)
			r.Get("/admin/responses", adminHandler.Responses)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("gallery server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	slog.Info("server stopped gracefully")
}
