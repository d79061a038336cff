// internal/session/move.go
//
// The move pipeline. Validation short-circuits on the first failure,
// in the order the rules are layered: room state, membership, turn,
// locked cell, occupancy, opening-cell set, opening distance. Only a
// fully validated move mutates the board.
package session

import (
	"github.com/daile269/zcaro-online/internal/board"
)

// MoveResult distinguishes the three ways an accepted move can land.
type MoveResult string

const (
	MoveContinue MoveResult = "continue"
	MoveWin      MoveResult = "win"
	MoveDraw     MoveResult = "draw"
)

// Move is the outcome of an accepted placement.
type Move struct {
	Result       MoveResult    `json:"result"`
	Cell         board.Coord   `json:"cell"`
	Symbol       board.Symbol  `json:"symbol"`
	Winner       string        `json:"winner,omitempty"`
	WinningCells []board.Coord `json:"winningCells,omitempty"`
}

// ApplyMove validates and applies one placement by participantID at
// (row, col).
func (s *Session) ApplyMove(participantID string, row, col int) (Move, error) {
	if s.Status != StatusPlaying {
		return Move{}, ErrInvalidState
	}
	_, sym, ok := s.Resolve(participantID)
	if !ok {
		return Move{}, ErrNotInRoom
	}
	if sym != s.CurrentTurn {
		return Move{}, ErrNotYourTurn
	}

	cell := board.Coord{Row: row, Col: col}
	if !s.Board.In(cell) {
		return Move{}, ErrOutOfBounds
	}
	for _, lc := range s.LockedCells {
		if lc == cell {
			return Move{}, ErrLockedCell
		}
	}
	if s.Board.At(cell) != board.Empty {
		return Move{}, ErrCellOccupied
	}

	// The round's very first stone must sit next to a locked cell.
	if s.MoveCount == 0 && !s.firstMoveCells[cell] {
		return Move{}, ErrFirstMoveRestricted
	}

	// Opening-distance rule: the opener's second stone must land at
	// least OpeningMinDistance away from their first. Applies to
	// whichever symbol opened the round.
	if sym == s.FirstStarterSymbol && s.FirstStarterPos != nil && s.stoneCount(sym) == 1 {
		if board.Manhattan(*s.FirstStarterPos, cell) < s.Opts.OpeningMinDistance {
			return Move{}, ErrOpeningDistance
		}
	}

	s.Board.Set(cell, sym)
	if s.MoveCount == 0 {
		s.FirstStarterSymbol = sym
		pos := cell
		s.FirstStarterPos = &pos
	}
	s.MoveCount++
	s.touch()

	if line := board.FindWin(s.Board, cell); line != nil {
		s.Status = StatusFinished
		s.Winner = string(sym)
		s.WinningCells = line
		return Move{Result: MoveWin, Cell: cell, Symbol: sym, Winner: s.Winner, WinningCells: line}, nil
	}
	if board.Full(s.Board, s.LockedCells) {
		s.Status = StatusFinished
		s.Winner = WinnerDraw
		return Move{Result: MoveDraw, Cell: cell, Symbol: sym, Winner: WinnerDraw}, nil
	}

	s.CurrentTurn = sym.Other()
	return Move{Result: MoveContinue, Cell: cell, Symbol: sym}, nil
}

// stoneCount counts sym's stones currently on the board.
func (s *Session) stoneCount(sym board.Symbol) int {
	n := 0
	for r := range s.Board {
		for c := range s.Board[r] {
			if s.Board[r][c] == sym {
				n++
			}
		}
	}
	return n
}

// FirstMoveCells returns the legal opening cells in deterministic
// board order, for broadcast payloads.
func (s *Session) FirstMoveCells() []board.Coord {
	out := make([]board.Coord, 0, len(s.firstMoveCells))
	size := s.Opts.BoardSize
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if s.firstMoveCells[board.Coord{Row: r, Col: c}] {
				out = append(out, board.Coord{Row: r, Col: c})
			}
		}
	}
	return out
}
