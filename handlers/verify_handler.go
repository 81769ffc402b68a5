package handlers

import (
	"net/http"

	"github.com/Dosada05/darts-system/services"
)

type VerifyHandler struct {
	verifyService services.VerifyService
}

func NewVerifyHandler(verifyService services.VerifyService) *VerifyHandler {
	return &VerifyHandler{verifyService: verifyService}
}

func (h *VerifyHandler) VerifyPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := idParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	discrepancies, err := h.verifyService.VerifyPlayer(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		"consistent":    len(discrepancies) == 0,
		"discrepancies": discrepancies,
	}, nil)
}

func (h *VerifyHandler) VerifyGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	discrepancies, err := h.verifyService.VerifyGame(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		"consistent":    len(discrepancies) == 0,
		"discrepancies": discrepancies,
	}, nil)
}

// VerifyAll sweeps every player. Intended for operators; the response
// lists every divergent field rather than stopping at the first.
func (h *VerifyHandler) VerifyAll(w http.ResponseWriter, r *http.Request) {
	discrepancies, err := h.verifyService.VerifyAll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		"consistent":    len(discrepancies) == 0,
		"discrepancies": discrepancies,
	}, nil)
}

// RepairPlayer recomputes and overwrites the player's stored aggregates.
func (h *VerifyHandler) RepairPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := idParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.verifyService.RepairPlayer(r.Context(), playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": "repaired"}, nil)
}
