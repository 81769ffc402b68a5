package handlers

import (
	"net/http"

	"github.com/Dosada05/darts-system/services"
)

type GameHandler struct {
	gameService  services.GameService
	statsService services.StatsService
}

func NewGameHandler(gameService services.GameService, statsService services.StatsService) *GameHandler {
	return &GameHandler{gameService: gameService, statsService: statsService}
}

// RecordGame accepts one finalized game with its participants and turns.
func (h *GameHandler) RecordGame(w http.ResponseWriter, r *http.Request) {
	var input services.RecordGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.RecordCompletedGame(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil)
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	game, participants, err := h.gameService.GetGame(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game": game, "participants": participants}, nil)
}

// Aggregate retries the exactly-once fold of a completed game into its
// players' lifetime counters. Safe to call any number of times.
func (h *GameHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.statsService.ApplyGameCompletion(r.Context(), gameID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "aggregated"}, nil)
}
