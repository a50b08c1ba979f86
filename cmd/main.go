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

	"github.com/eytgaming/tournament-platform/brackets"
	"github.com/eytgaming/tournament-platform/config"
	"github.com/eytgaming/tournament-platform/db"
	"github.com/eytgaming/tournament-platform/handlers"
	"github.com/eytgaming/tournament-platform/repositories"
	api "github.com/eytgaming/tournament-platform/routes"
	"github.com/eytgaming/tournament-platform/services"
	"github.com/eytgaming/tournament-platform/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewR2Uploader(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("object storage not configured, uploads disabled")
	}

	wsHub := brackets.NewHub()
	go wsHub.Run()

	txRunner := repositories.NewTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	bracketRepo := repositories.NewPostgresBracketRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)

	var emailService *services.EmailService
	notifier := services.NewNopNotifier()
	if cfg.SMTPConfigured() {
		emailService = services.NewEmailService(cfg)
		notifier = services.NewEmailNotifier(emailService, logger)
		logger.Info("SMTP configured", slog.String("host", cfg.SMTPHost))
	} else {
		logger.Warn("SMTP not configured, outgoing email disabled")
	}

	authService := services.NewAuthService(userRepo, emailService, logger)
	userService := services.NewUserService(userRepo, uploader)
	teamService := services.NewTeamService(teamRepo, userRepo, uploader)
	bracketService := services.NewBracketService(
		txRunner, tournamentRepo, participantRepo, bracketRepo, matchRepo, userRepo, wsHub, logger)
	tournamentService := services.NewTournamentService(
		txRunner, tournamentRepo, participantRepo, userRepo, bracketService, notifier, uploader, wsHub, logger)
	participantService := services.NewParticipantService(
		txRunner, participantRepo, tournamentRepo, userRepo, teamRepo, logger)
	checkInService := services.NewCheckInService(
		txRunner, participantRepo, tournamentRepo, userRepo, teamRepo, wsHub, logger)
	matchService := services.NewMatchService(
		txRunner, matchRepo, bracketRepo, tournamentRepo, participantRepo, userRepo, tournamentService, wsHub, logger)

	statusChecker := services.NewStatusChecker(tournamentRepo, tournamentService, cfg.StatusCompleteGrace, logger)
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go statusChecker.Run(schedulerCtx, cfg.SchedulerInterval)

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, bracketService)
	participantHandler := handlers.NewParticipantHandler(participantService, checkInService)
	matchHandler := handlers.NewMatchHandler(matchService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		teamHandler,
		tournamentHandler,
		participantHandler,
		matchHandler,
		webSocketHandler,
	)

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopScheduler()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}
