package handlers

import (
	"net/http"

	"github.com/Dosada05/darts-system/services"
)

type LeagueHandler struct {
	leagueService services.LeagueService
}

func NewLeagueHandler(leagueService services.LeagueService) *LeagueHandler {
	return &LeagueHandler{leagueService: leagueService}
}

func (h *LeagueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateLeagueInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	league, err := h.leagueService.CreateLeague(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"league": league}, nil)
}

func (h *LeagueHandler) Get(w http.ResponseWriter, r *http.Request) {
	leagueID, err := idParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	league, matches, err := h.leagueService.GetLeague(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"league": league, "matches": matches}, nil)
}

func (h *LeagueHandler) Standings(w http.ResponseWriter, r *http.Request) {
	leagueID, err := idParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	standings, err := h.leagueService.GetStandings(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil)
}

// ApplyResult records a fixture score. Repeating the same score is
// accepted and changes nothing; a different score for an applied fixture
// is a conflict.
func (h *LeagueHandler) ApplyResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		HomeLegs int `json:"home_legs"`
		AwayLegs int `json:"away_legs"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.leagueService.ApplyMatchResult(r.Context(), matchID, input.HomeLegs, input.AwayLegs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}
