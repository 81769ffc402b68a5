package handlers

import (
	"net/http"

	"github.com/Dosada05/darts-system/models"
	"github.com/Dosada05/darts-system/services"
	"github.com/go-chi/chi/v5"
)

type LeaderboardHandler struct {
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dimension, err := models.ParseLeaderboardDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		badRequestResponse(w, r, services.ErrUnknownDimension)
		return
	}
	page, err := queryInt(r, "page", "1")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	perPage, err := queryInt(r, "per_page", "50")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.leaderboardService.GetLeaderboard(r.Context(), dimension, page, perPage)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"dimension": dimension, "rows": rows}, nil)
}

// Refresh forces a synchronous full rebuild for callers that need the
// leaderboard current with the latest aggregation.
func (h *LeaderboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.leaderboardService.Refresh(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "refreshed"}, nil)
}

// RefreshPlayer re-ranks the projection around a single player.
func (h *LeaderboardHandler) RefreshPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := idParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.leaderboardService.RefreshOne(r.Context(), playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "refreshed"}, nil)
}
