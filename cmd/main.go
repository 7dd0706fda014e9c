package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Dosada05/pickup-hoops/config"
	"github.com/Dosada05/pickup-hoops/db"
	"github.com/Dosada05/pickup-hoops/handlers"
	"github.com/Dosada05/pickup-hoops/metrics"
	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/realtime"
	"github.com/Dosada05/pickup-hoops/repositories"
	api "github.com/Dosada05/pickup-hoops/routes"
	"github.com/Dosada05/pickup-hoops/scheduler"
	"github.com/Dosada05/pickup-hoops/services"
	"github.com/Dosada05/pickup-hoops/storage"
)

const (
	shutdownTimeout        = 15 * time.Second
	rateLimitCleanupPeriod = 5 * time.Minute
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort), slog.String("timezone", cfg.Location.String()))

	dbConn, err := db.Connect(cfg.DatabaseURL, db.DefaultPoolConfig(), 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := db.MigrateUp(dbConn); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Загрузка файлов включается только при заданных R2 переменных.
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewR2Uploader(ctx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, uploads are disabled")
	}

	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		emailService, err := services.NewEmailService(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize email service: %w", err)
		}
		mailer = emailService
		logger.Info("email notifications enabled", slog.String("smtp_host", cfg.SMTPHost))
	} else {
		logger.Warn("SMTP is not configured, email notifications are disabled")
	}

	registry := metrics.NewRegistry()

	wsHub := realtime.NewHub(logger)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		wsHub.Run(ctx)
	}()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	gymRepo := repositories.NewPostgresGymRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	messageRepo := repositories.NewPostgresMessageRepository(dbConn)

	// Инициализация сервисов
	clock := services.SystemClock(cfg.Location)
	authService := services.NewAuthService(userRepo)
	profileService := services.NewProfileService(profileRepo, uploader, clock, logger)
	gymService := services.NewGymService(gymRepo, uploader, logger, cfg.ListingPageSize)
	gameService := services.NewGameService(gameRepo, participantRepo, gymRepo, uploader, clock, cfg.ListingPageSize)
	participantService := services.NewParticipantService(participantRepo, gameRepo, profileRepo, clock, registry)
	messageService := services.NewMessageService(messageRepo, userRepo)
	dashboardService := services.NewDashboardService(userRepo, gameRepo, participantRepo, clock)
	notifier := services.NewNotifier(userRepo, gameRepo, mailer, wsHub, logger)
	defer notifier.Wait()

	reminders, err := scheduler.New(scheduler.Config{
		Schedule: cfg.ReminderSchedule,
		Lead:     cfg.ReminderLead,
	}, gameRepo, participantRepo, notifier, registry, clock, logger)
	if err != nil {
		return err
	}
	reminders.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		reminders.Stop(stopCtx)
	}()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(rateLimitCleanupPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Game:        handlers.NewGameHandler(gameService),
		Participant: handlers.NewParticipantHandler(participantService, notifier),
		Profile:     handlers.NewProfileHandler(profileService),
		Gym:         handlers.NewGymHandler(gymService),
		Message:     handlers.NewMessageHandler(messageService, notifier),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
		Dashboard:   handlers.NewDashboardHandler(dashboardService),
	}, api.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:    limiter,
		Metrics:        registry,
		Health: func(r *http.Request) error {
			return dbConn.PingContext(r.Context())
		},
	})
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}

	stop()
	<-hubDone
	return nil
}
