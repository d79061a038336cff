// internal/session/snapshot.go
//
// Read models handed to the transport layer: a compact lobby summary
// and the full room payload broadcast on every state change.
package session

import (
	"time"

	"github.com/daile269/zcaro-online/internal/board"
)

// PlayerSummary is one seat as shown in lobby and room payloads.
type PlayerSummary struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Avatar string       `json:"avatar,omitempty"`
	Rating int          `json:"rating"`
	Symbol board.Symbol `json:"symbol"`
	Away   bool         `json:"away,omitempty"`
}

// Snapshot is the lobby view of a room.
type Snapshot struct {
	ID         string          `json:"id"`
	Status     Status          `json:"status"`
	Players    []PlayerSummary `json:"players"`
	Spectators int             `json:"spectators"`
	Rated      bool            `json:"rated"`
	Private    bool            `json:"private"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Payload is the full room state broadcast to occupants.
type Payload struct {
	ID             string          `json:"id"`
	Status         Status          `json:"status"`
	Board          board.Board     `json:"board"`
	Players        []PlayerSummary `json:"players"`
	Spectators     int             `json:"spectators"`
	CurrentTurn    board.Symbol    `json:"currentTurn,omitempty"`
	MoveCount      int             `json:"moveCount"`
	LockedCells    []board.Coord   `json:"lockedCells"`
	FirstMoveCells []board.Coord   `json:"firstMoveCells"`
	Winner         string          `json:"winner,omitempty"`
	WinningCells   []board.Coord   `json:"winningCells,omitempty"`
	Rated          bool            `json:"rated"`
}

func (s *Session) players() []PlayerSummary {
	out := []PlayerSummary{}
	for i := range s.Slots {
		sl := s.Slots[i]
		if sl.State == SlotEmpty {
			continue
		}
		out = append(out, PlayerSummary{
			ID:     sl.Participant.ID,
			Name:   sl.Participant.Name,
			Avatar: sl.Participant.Avatar,
			Rating: sl.Participant.Rating,
			Symbol: sl.Symbol,
			Away:   sl.State == SlotAway,
		})
	}
	return out
}

// Snapshot builds the lobby summary.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:         s.ID,
		Status:     s.Status,
		Players:    s.players(),
		Spectators: len(s.Spectators),
		Rated:      s.Opts.Rated,
		Private:    s.Opts.Private,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// Payload builds the full broadcast state.
func (s *Session) Payload() Payload {
	p := Payload{
		ID:             s.ID,
		Status:         s.Status,
		Board:          s.Board,
		Players:        s.players(),
		Spectators:     len(s.Spectators),
		MoveCount:      s.MoveCount,
		LockedCells:    s.LockedCells,
		FirstMoveCells: s.FirstMoveCells(),
		Winner:         s.Winner,
		WinningCells:   s.WinningCells,
		Rated:          s.Opts.Rated,
	}
	if s.Status == StatusPlaying {
		p.CurrentTurn = s.CurrentTurn
	}
	return p
}
