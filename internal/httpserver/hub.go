// internal/httpserver/hub.go
//
// WebSocket fan-out. The hub tracks one client per live connection,
// indexed by participant ID and by the room each client is watching,
// and implements the directory's Notifier so engine events reach the
// right sockets. Gorilla connections allow one concurrent writer, so
// every write goes through the client's write lock.
package httpserver

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daile269/zcaro-online/internal/matchmaking"
	"github.com/daile269/zcaro-online/internal/rating"
	"github.com/daile269/zcaro-online/internal/session"
)

// Client is one live websocket connection plus its resolved identity.
type Client struct {
	conn        *websocket.Conn
	participant session.Participant

	writeMu sync.Mutex
}

func (c *Client) send(v any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteJSON(v)
}

// Hub is the connection registry.
type Hub struct {
	mu            sync.RWMutex
	byParticipant map[string]*Client
	rooms         map[string]map[*Client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		byParticipant: make(map[string]*Client),
		rooms:         make(map[string]map[*Client]bool),
	}
}

// Register indexes a freshly upgraded connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byParticipant[c.participant.ID] = c
}

// Unregister drops the connection from every index.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byParticipant[c.participant.ID] == c {
		delete(h.byParticipant, c.participant.ID)
	}
	for roomID, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Watch subscribes c to a room's broadcasts.
func (h *Hub) Watch(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
}

// Unwatch unsubscribes c from a room.
func (h *Hub) Unwatch(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[roomID], c)
	if len(h.rooms[roomID]) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) broadcast(roomID string, v any) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		members = append(members, c)
	}
	h.mu.RUnlock()
	for _, c := range members {
		c.send(v)
	}
}

func (h *Hub) toParticipant(id string, v any) {
	h.mu.RLock()
	c := h.byParticipant[id]
	h.mu.RUnlock()
	if c != nil {
		c.send(v)
	}
}

// ------------------------- directory.Notifier ------------------------------

func (h *Hub) RoomState(roomID string, p session.Payload) {
	h.broadcast(roomID, envelope{Type: "room_state", Room: &p})
}

func (h *Hub) PlayerAway(roomID string, p session.Participant, grace time.Duration) {
	h.broadcast(roomID, envelope{
		Type:        "player_away",
		Participant: &p,
		GraceMs:     grace.Milliseconds(),
	})
}

func (h *Hub) RoomRemoved(roomID, reason string) {
	h.broadcast(roomID, envelope{Type: "room_removed", RoomID: roomID, Reason: reason})
	h.mu.Lock()
	delete(h.rooms, roomID)
	h.mu.Unlock()
}

func (h *Hub) MatchFound(participantID, roomID string, opponent matchmaking.Entry) {
	h.toParticipant(participantID, envelope{
		Type:   "match_found",
		RoomID: roomID,
		Opponent: &session.Participant{
			ID: opponent.ID, Name: opponent.Name, Avatar: opponent.Avatar, Rating: opponent.Rating,
		},
	})
	// The matched player starts receiving room broadcasts right away.
	h.mu.Lock()
	if c := h.byParticipant[participantID]; c != nil {
		if h.rooms[roomID] == nil {
			h.rooms[roomID] = make(map[*Client]bool)
		}
		h.rooms[roomID][c] = true
	}
	h.mu.Unlock()
}

func (h *Hub) RatingChanged(roomID string, changes [2]rating.Change) {
	h.broadcast(roomID, envelope{Type: "rating_changed", Ratings: changes[:]})
}

// envelope is the single outbound message shape; Type selects which
// optional fields are set.
type envelope struct {
	Type        string               `json:"type"`
	RoomID      string               `json:"roomId,omitempty"`
	Room        *session.Payload     `json:"room,omitempty"`
	Move        *session.Move        `json:"move,omitempty"`
	Participant *session.Participant `json:"participant,omitempty"`
	Opponent    *session.Participant `json:"opponent,omitempty"`
	Ratings     []rating.Change      `json:"ratings,omitempty"`
	GraceMs     int64                `json:"graceMs,omitempty"`
	Reason      string               `json:"reason,omitempty"`
	Error       string               `json:"error,omitempty"`
}
