package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/darts-system/brackets"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict Origin once the frontend domain is fixed.
		return true
	},
}

type WebSocketHandler struct {
	hub *brackets.Hub
	log *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, log: log}
}

// ServeTournament subscribes the connection to live updates for one
// tournament. The room id matches what the tournament service broadcasts
// to on match and bracket changes.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.serve(w, r, "tournament:"+strconv.Itoa(tournamentID))
}

// ServeLeague subscribes the connection to live updates for one league.
func (h *WebSocketHandler) ServeLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, err := idParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.serve(w, r, "league:"+strconv.Itoa(leagueID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Error("websocket upgrade failed", "room", room, "error", err)
		return
	}

	client := brackets.NewClient(h.hub, conn, room)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
