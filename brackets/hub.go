package brackets

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event is the envelope pushed to bracket subscribers. Type is one of
// "MATCH_UPDATED", "BRACKET_UPDATED" or "TOURNAMENT_COMPLETED".
type Event struct {
	Type    string      `json:"type"`
	RoomID  string      `json:"room_id,omitempty"`
	Payload interface{} `json:"payload"`
}

// Client is one websocket subscriber bound to a single room (tournament).
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 16),
		room: room,
	}
}

// Hub fans bracket events out to room subscribers. Clients register and
// unregister through channels serviced by Run; broadcasts take the room
// lock directly so callers never block on the hub loop.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
	log   *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.log.Debug("ws client registered", "room", client.room, "clients", len(h.rooms[client.room]))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if clients[client] {
					delete(clients, client)
					client.closeSend()
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
					h.log.Debug("ws client unregistered", "room", client.room, "clients", len(clients))
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom pushes an event to every subscriber of a room. Slow
// clients with a full send buffer are skipped rather than blocking the
// bracket update path.
func (h *Hub) BroadcastToRoom(roomID string, event Event) {
	event.RoomID = roomID

	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal ws event", "room", roomID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomID] {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- payload:
			default:
				h.log.Warn("ws client send buffer full, dropping event", "room", roomID)
			}
		}
		client.mu.Unlock()
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// ReadPump drains inbound frames to keep the connection alive. Subscribers
// are read-only; anything they send is discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("ws read error", "room", c.room, "error", err)
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
