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

	"github.com/grapplehub/grapplehub/config"
	"github.com/grapplehub/grapplehub/db"
	"github.com/grapplehub/grapplehub/handlers"
	"github.com/grapplehub/grapplehub/live"
	"github.com/grapplehub/grapplehub/repositories"
	api "github.com/grapplehub/grapplehub/routes"
	"github.com/grapplehub/grapplehub/services"
	"github.com/grapplehub/grapplehub/storage"
	"github.com/grapplehub/grapplehub/summarizer"
	_ "github.com/lib/pq"
)

// Как часто чистим просроченные записи кэша сводок.
const cacheSweepInterval = time.Hour

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Клиент внешнего сервиса AI-сводок
	summarizerClient, err := summarizer.NewClient(summarizer.Config{BaseURL: cfg.SummaryAPIURL})
	if err != nil {
		logger.Error("failed to initialize summarizer client", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	transactor := repositories.NewSQLTransactor(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	competitorRepo := repositories.NewPostgresCompetitorRepository(dbConn)
	requestRepo := repositories.NewPostgresRequestRepository(dbConn)
	withdrawalRepo := repositories.NewPostgresWithdrawalRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	trainingRepo := repositories.NewPostgresTrainingRepository(dbConn)
	summaryCacheRepo := repositories.NewPostgresSummaryCacheRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, []byte(cfg.JWTSecretKey))
	userService := services.NewUserService(userRepo, cloudflareUploader)
	eventService := services.NewEventService(eventRepo)
	matchService := services.NewMatchService(
		transactor,
		matchRepo,
		competitorRepo,
		requestRepo,
		withdrawalRepo,
		competitionRepo,
		userRepo,
		eventRepo,
		wsHub,
		logger,
	)
	competitionService := services.NewCompetitionService(competitionRepo, cloudflareUploader)
	trainingService := services.NewTrainingService(trainingRepo)
	summaryService := services.NewSummaryService(summaryCacheRepo, summarizerClient, logger)
	logger.Info("Services initialized")

	// Периодическая очистка просроченного кэша AI-сводок
	sweepQuit := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cacheSweepInterval)
		defer ticker.Stop()
		logger.Info("summary cache sweep scheduler started", slog.Duration("interval", cacheSweepInterval))

		for {
			select {
			case <-sweepQuit:
				logger.Info("summary cache sweep scheduler stopped")
				return
			case <-ticker.C:
				purged, err := summaryService.PurgeExpired(context.Background())
				if err != nil {
					logger.Error("summary cache sweep failed", slog.Any("error", err))
					continue
				}
				if purged > 0 {
					logger.Info("summary cache sweep completed", slog.Int64("purged", purged))
				}
			}
		}
	}()

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Auth:        handlers.NewAuthHandler(authService),
		User:        handlers.NewUserHandler(userService),
		Event:       handlers.NewEventHandler(eventService),
		Match:       handlers.NewMatchHandler(matchService),
		Competition: handlers.NewCompetitionHandler(competitionService),
		Training:    handlers.NewTrainingHandler(trainingService),
		Summary:     handlers.NewSummaryHandler(summaryService, competitionService, trainingService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, logger),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := api.InitRoutes(h, []byte(cfg.JWTSecretKey))
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		close(sweepQuit)
		wsHub.Stop()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
