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

	"github.com/Dosada05/darts-system/brackets"
	"github.com/Dosada05/darts-system/config"
	"github.com/Dosada05/darts-system/db"
	"github.com/Dosada05/darts-system/handlers"
	"github.com/Dosada05/darts-system/metrics"
	"github.com/Dosada05/darts-system/repositories"
	api "github.com/Dosada05/darts-system/routes"
	"github.com/Dosada05/darts-system/services"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

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
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	m := metrics.New(prometheus.DefaultRegisterer)

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	turnRepo := repositories.NewPostgresTurnRepository(dbConn)
	leaderboardRepo := repositories.NewPostgresLeaderboardRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	tpRepo := repositories.NewPostgresTournamentParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	leagueRepo := repositories.NewPostgresLeagueRepository(dbConn)
	lpRepo := repositories.NewPostgresLeagueParticipantRepository(dbConn)
	lmRepo := repositories.NewPostgresLeagueMatchRepository(dbConn)
	logger.Info("repositories initialized")

	statsService := services.NewStatsService(dbConn, gameRepo, participantRepo, playerRepo, m, logger)
	gameService := services.NewGameService(dbConn, gameRepo, playerRepo, participantRepo, turnRepo, statsService, m, logger)
	leaderboardService := services.NewLeaderboardService(dbConn, playerRepo, leaderboardRepo, m, logger)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		tpRepo,
		matchRepo,
		playerRepo,
		statsService,
		wsHub,
		m,
		logger,
	)
	leagueService := services.NewLeagueService(
		dbConn,
		leagueRepo,
		lpRepo,
		lmRepo,
		playerRepo,
		statsService,
		wsHub,
		m,
		logger,
	)
	verifyService := services.NewVerifyService(dbConn, playerRepo, participantRepo, turnRepo, gameRepo, m, logger)
	logger.Info("services initialized")

	// Background sweep: pick up any completed games whose aggregation was
	// interrupted, then rebuild the leaderboard from the fresh aggregates.
	go func() {
		ticker := time.NewTicker(cfg.LeaderboardRefreshInterval)
		defer ticker.Stop()
		logger.Info("aggregation sweep scheduler started",
			slog.Duration("interval", cfg.LeaderboardRefreshInterval))

		sweep := func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.LeaderboardRefreshInterval)
			defer cancel()
			applied, err := statsService.ApplyPending(ctx)
			if err != nil {
				logger.Error("scheduler: pending aggregation failed", slog.Any("error", err))
			} else if applied > 0 {
				logger.Info("scheduler: pending games aggregated", slog.Int("count", applied))
			}
			if err := leaderboardService.Refresh(ctx); err != nil {
				logger.Error("scheduler: leaderboard refresh failed", slog.Any("error", err))
			}
		}

		sweep()
		for range ticker.C {
			sweep()
		}
	}()

	gameHandler := handlers.NewGameHandler(gameService, statsService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	leagueHandler := handlers.NewLeagueHandler(leagueService)
	verifyHandler := handlers.NewVerifyHandler(verifyService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("http handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		gameHandler,
		leaderboardHandler,
		tournamentHandler,
		leagueHandler,
		verifyHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

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
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
