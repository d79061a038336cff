// internal/session/session.go
//
// State machine for one caro match (a "room").
// Responsibilities:
//   - Player slots, spectators, and room lifecycle
//     (waiting → playing → finished → reset → playing).
//   - The full move-validation pipeline, in order: room state,
//     membership, turn, locked cell, occupancy, opening-cell set,
//     opening-distance rule.
//   - Round bookkeeping: locked cells, opener alternation, move count,
//     win/draw outcome.
//
// Sessions are not safe for concurrent use; the directory package
// serializes every mutation.
package session

import (
	"errors"
	"time"

	"github.com/daile269/zcaro-online/internal/board"
)

// Validation failures: reported to the acting participant only, state
// unchanged.
var (
	ErrInvalidState        = errors.New("room is not accepting moves")
	ErrOutOfBounds         = errors.New("cell is outside the board")
	ErrNotInRoom           = errors.New("participant is not a player in this room")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrLockedCell          = errors.New("cell is locked")
	ErrCellOccupied        = errors.New("cell is occupied")
	ErrFirstMoveRestricted = errors.New("first move must be next to a locked cell")
	ErrOpeningDistance     = errors.New("second stone too close to opening stone")
)

// Structural failures: rejected with no state mutation.
var (
	ErrRoomFull        = errors.New("room already has two players")
	ErrNotWaiting      = errors.New("room is not waiting for players")
	ErrNotOwner        = errors.New("only the room owner may start a round")
	ErrNoOpponent      = errors.New("cannot start without an opponent")
	ErrRoundInProgress = errors.New("round already in progress")
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// WinnerDraw marks a drawn round in Session.Winner; otherwise Winner
// holds the winning symbol, or empty while undecided.
const WinnerDraw = "draw"

// Participant is the resolved identity the transport layer hands us.
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Rating int    `json:"rating"`
}

// SlotState makes the player-slot lifecycle explicit rather than
// encoding it in nil checks.
type SlotState uint8

const (
	SlotEmpty SlotState = iota
	SlotOccupied
	SlotAway // disconnected, inside the reconnect grace window
)

// PlayerSlot is one of the two seats. An Away slot keeps the
// participant's identity, symbol and rating so a rejoin restores them.
type PlayerSlot struct {
	State       SlotState
	Participant Participant
	Symbol      board.Symbol
}

// Options carries the rule constants a session needs. One Options
// value is built from config at startup and shared by every room.
type Options struct {
	BoardSize          int
	LockedCellCount    int
	LockedMinGap       int
	LockedMaxGap       int
	OpeningMinDistance int
	Rated              bool
	Private            bool
}

// Session owns one match's complete mutable state.
type Session struct {
	ID         string
	Opts       Options
	Board      board.Board
	Slots      [2]PlayerSlot
	Spectators []Participant

	Status      Status
	CurrentTurn board.Symbol
	MoveCount   int

	LockedCells    []board.Coord
	firstMoveCells map[board.Coord]bool

	FirstStarterSymbol board.Symbol
	FirstStarterPos    *board.Coord
	LastStarter        board.Symbol

	Winner       string
	WinningCells []board.Coord

	StartedAt time.Time
	UpdatedAt time.Time
	CreatedAt time.Time
}

// New allocates a waiting room with the owner seated in slot 1 as X.
func New(id string, owner Participant, opts Options) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:        id,
		Opts:      opts,
		Board:     board.New(opts.BoardSize),
		Status:    StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Slots[0] = PlayerSlot{State: SlotOccupied, Participant: owner, Symbol: board.SymbolX}
	s.regenerateLocked()
	return s
}

func (s *Session) regenerateLocked() {
	s.LockedCells = board.GenerateLockedCells(
		s.Opts.BoardSize, s.Opts.LockedCellCount, s.Opts.LockedMinGap, s.Opts.LockedMaxGap)
	s.firstMoveCells = board.FirstMoveCells(s.Opts.BoardSize, s.LockedCells)
}

// Join seats joiner in slot 2 with the opposite symbol. The room stays
// waiting until the owner starts the round.
func (s *Session) Join(joiner Participant) error {
	if s.Status != StatusWaiting {
		return ErrNotWaiting
	}
	if s.Slots[1].State != SlotEmpty {
		return ErrRoomFull
	}
	s.Slots[1] = PlayerSlot{State: SlotOccupied, Participant: joiner, Symbol: s.Slots[0].Symbol.Other()}
	s.touch()
	return nil
}

// AddSpectator appends p unless already present. Idempotent by ID.
func (s *Session) AddSpectator(p Participant) {
	for _, sp := range s.Spectators {
		if sp.ID == p.ID {
			return
		}
	}
	s.Spectators = append(s.Spectators, p)
	s.touch()
}

// RemoveSpectator drops the spectator with the given ID, if present.
func (s *Session) RemoveSpectator(id string) {
	for i, sp := range s.Spectators {
		if sp.ID == id {
			s.Spectators = append(s.Spectators[:i], s.Spectators[i+1:]...)
			s.touch()
			return
		}
	}
}

// StartRound begins a new round (or resets a finished one). Owner
// only, only with an opponent seated, and never while a round is
// still being played. Locked cells are regenerated, the board and
// opening state cleared, and the opener alternates relative to the
// previous round (X opens the first).
func (s *Session) StartRound(requesterID string) error {
	if s.Status == StatusPlaying {
		return ErrRoundInProgress
	}
	if s.Slots[0].State == SlotEmpty || s.Slots[0].Participant.ID != requesterID {
		return ErrNotOwner
	}
	if s.Slots[1].State == SlotEmpty {
		return ErrNoOpponent
	}

	opener := board.SymbolX
	if s.LastStarter != board.Empty {
		opener = s.LastStarter.Other()
	}

	s.Board = board.New(s.Opts.BoardSize)
	s.regenerateLocked()
	s.MoveCount = 0
	s.FirstStarterSymbol = board.Empty
	s.FirstStarterPos = nil
	s.Winner = ""
	s.WinningCells = nil
	s.CurrentTurn = opener
	s.LastStarter = opener
	s.Status = StatusPlaying
	s.StartedAt = time.Now().UTC()
	s.touch()
	return nil
}

// Resolve maps a participant ID to its seat and symbol. Every room
// operation that needs "which side is this?" goes through here.
func (s *Session) Resolve(participantID string) (slot int, sym board.Symbol, ok bool) {
	for i := range s.Slots {
		if s.Slots[i].State != SlotEmpty && s.Slots[i].Participant.ID == participantID {
			return i, s.Slots[i].Symbol, true
		}
	}
	return 0, board.Empty, false
}

// Forfeit finishes the round against loserID. With both seats filled
// the other side wins; with one seat already empty the round finishes
// with no winner.
func (s *Session) Forfeit(loserID string) {
	slot, _, ok := s.Resolve(loserID)
	s.Status = StatusFinished
	if ok && s.Slots[1-slot].State != SlotEmpty {
		s.Winner = string(s.Slots[1-slot].Symbol)
	}
	s.touch()
}

// MarkAway flips the participant's seat to Away, keeping identity and
// symbol for a rejoin. Returns false when the ID is not a player.
func (s *Session) MarkAway(participantID string) bool {
	slot, _, ok := s.Resolve(participantID)
	if !ok {
		return false
	}
	s.Slots[slot].State = SlotAway
	s.touch()
	return true
}

// Rejoin restores an Away seat to Occupied. Returns false when the ID
// holds no seat here.
func (s *Session) Rejoin(participantID string) bool {
	slot, _, ok := s.Resolve(participantID)
	if !ok {
		return false
	}
	s.Slots[slot].State = SlotOccupied
	s.touch()
	return true
}

// HasAwaySlot reports whether either seat is waiting out a reconnect
// grace window.
func (s *Session) HasAwaySlot() bool {
	return s.Slots[0].State == SlotAway || s.Slots[1].State == SlotAway
}

// Owner returns the participant in slot 1.
func (s *Session) Owner() Participant { return s.Slots[0].Participant }

func (s *Session) touch() { s.UpdatedAt = time.Now().UTC() }
