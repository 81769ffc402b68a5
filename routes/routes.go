package routes

import (
	"github.com/Dosada05/darts-system/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes mounts the full HTTP surface on the given router.
func SetupRoutes(
	router *chi.Mux,
	gameHandler *handlers.GameHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	tournamentHandler *handlers.TournamentHandler,
	leagueHandler *handlers.LeagueHandler,
	verifyHandler *handlers.VerifyHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/games", func(r chi.Router) {
		r.Post("/", gameHandler.RecordGame)
		r.Get("/{gameID}", gameHandler.GetGame)
		r.Post("/{gameID}/aggregate", gameHandler.Aggregate)
	})

	router.Route("/leaderboard", func(r chi.Router) {
		r.Get("/{dimension}", leaderboardHandler.Get)
		r.Post("/refresh", leaderboardHandler.Refresh)
		r.Post("/refresh/players/{playerID}", leaderboardHandler.RefreshPlayer)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Post("/", tournamentHandler.Create)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Post("/matches/{matchID}/start", tournamentHandler.StartMatch)
		r.Post("/matches/{matchID}/result", tournamentHandler.ReportResult)
	})

	router.Route("/leagues", func(r chi.Router) {
		r.Post("/", leagueHandler.Create)
		r.Get("/{leagueID}", leagueHandler.Get)
		r.Get("/{leagueID}/standings", leagueHandler.Standings)
		r.Post("/matches/{matchID}/result", leagueHandler.ApplyResult)
	})

	router.Route("/verify", func(r chi.Router) {
		r.Get("/", verifyHandler.VerifyAll)
		r.Get("/players/{playerID}", verifyHandler.VerifyPlayer)
		r.Post("/players/{playerID}/repair", verifyHandler.RepairPlayer)
		r.Get("/games/{gameID}", verifyHandler.VerifyGame)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeTournament)
	router.Get("/ws/leagues/{leagueID}", webSocketHandler.ServeLeague)

	router.Handle("/metrics", promhttp.Handler())
}
