// internal/httpserver/ws.go
//
// The realtime endpoint. Each connection gets a resolved identity
// (authenticated user or generated guest), one reader goroutine, and
// a dispatch switch that translates JSON envelopes into directory
// calls. A read failure or close hands the participant to the directory's
// disconnect path, which drives the reconnect grace machinery.
package httpserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/daile269/zcaro-online/internal/directory"
	"github.com/daile269/zcaro-online/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the inbound message shape; Type selects which fields
// matter.
type wsRequest struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Rated   bool   `json:"rated,omitempty"`
	Private bool   `json:"private,omitempty"`
}

// handleWS upgrades the connection and runs the read loop.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	p := s.wsIdentity(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &Client{conn: conn, participant: p}
	s.hub.Register(c)
	defer func() {
		s.hub.Unregister(c)
		s.dir.Disconnect(p.ID)
	}()

	c.send(envelope{Type: "hello", Participant: &p})

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		s.dispatch(c, req)
	}
}

// wsIdentity resolves the connection to a participant: a valid token
// maps to the persisted user (name, avatar, rating); anyone else
// plays as a generated guest at the default rating.
func (s *Server) wsIdentity(r *http.Request) session.Participant {
	if tok := bearerOrCookie(r); tok != "" {
		if u, err := s.userFromToken(tok); err == nil {
			return session.Participant{ID: u.ID, Name: u.Username, Avatar: u.Avatar, Rating: u.Rating}
		}
	}
	id := uuid.NewString()
	return session.Participant{
		ID:     id,
		Name:   "guest-" + strings.Split(id, "-")[0],
		Rating: 1200,
	}
}

func (s *Server) dispatch(c *Client, req wsRequest) {
	p := c.participant
	switch req.Type {
	case "create_room":
		pl := s.dir.CreateRoom(p, req.Rated, req.Private)
		s.hub.Watch(pl.ID, c)
		c.send(envelope{Type: "room_state", Room: &pl})

	case "join_room":
		// A seat held through a disconnect takes priority over a
		// fresh join, so reconnecting players land back in place.
		pl, err := s.dir.Rejoin(req.RoomID, p.ID)
		if err != nil {
			pl, err = s.dir.JoinRoom(req.RoomID, p)
		}
		if err != nil {
			c.send(envelope{Type: "error", Error: errorCode(err)})
			return
		}
		s.hub.Watch(req.RoomID, c)
		c.send(envelope{Type: "room_state", Room: &pl})

	case "spectate":
		pl, err := s.dir.Spectate(req.RoomID, p)
		if err != nil {
			c.send(envelope{Type: "error", Error: errorCode(err)})
			return
		}
		s.hub.Watch(req.RoomID, c)
		c.send(envelope{Type: "room_state", Room: &pl})

	case "leave_room":
		s.dir.Leave(req.RoomID, p.ID)
		s.hub.Unwatch(req.RoomID, c)

	case "start_round":
		if _, err := s.dir.StartRound(req.RoomID, p.ID); err != nil {
			c.send(envelope{Type: "error", Error: errorCode(err)})
		}

	case "move":
		mv, err := s.dir.MakeMove(req.RoomID, p.ID, req.Row, req.Col)
		if err != nil {
			c.send(envelope{Type: "error", Error: errorCode(err)})
			return
		}
		c.send(envelope{Type: "move_result", RoomID: req.RoomID, Move: &mv})

	case "forfeit":
		if _, err := s.dir.Forfeit(req.RoomID, p.ID); err != nil {
			c.send(envelope{Type: "error", Error: errorCode(err)})
		}

	case "find_match":
		if pl := s.dir.EnqueueMatch(p); pl != nil {
			// match_found and room_state arrive through the hub.
			return
		}
		c.send(envelope{Type: "match_waiting"})

	case "cancel_match":
		s.dir.CancelMatch(p.ID)
		c.send(envelope{Type: "match_canceled"})

	default:
		log.Debug().Str("type", req.Type).Msg("unknown ws message")
		c.send(envelope{Type: "error", Error: "unknown_type"})
	}
}

// errorCode maps engine sentinels to wire codes the client switches
// on.
func errorCode(err error) string {
	switch err {
	case session.ErrInvalidState:
		return "invalid_state"
	case session.ErrNotInRoom:
		return "not_in_room"
	case session.ErrNotYourTurn:
		return "not_your_turn"
	case session.ErrOutOfBounds:
		return "out_of_bounds"
	case session.ErrLockedCell:
		return "locked_cell"
	case session.ErrCellOccupied:
		return "cell_occupied"
	case session.ErrFirstMoveRestricted:
		return "first_move_restricted"
	case session.ErrOpeningDistance:
		return "opening_distance_violation"
	case session.ErrRoomFull:
		return "room_full"
	case session.ErrNotWaiting:
		return "room_not_waiting"
	case session.ErrNotOwner:
		return "not_owner"
	case session.ErrNoOpponent:
		return "no_opponent"
	case session.ErrRoundInProgress:
		return "round_in_progress"
	case directory.ErrRoomNotFound:
		return "room_not_found"
	default:
		return "internal"
	}
}
