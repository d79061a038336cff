// internal/board/board.go
//
// Pure board rules for caro (five-in-a-row on a square grid).
// Responsibilities:
//   - Board construction and bounds/occupancy queries.
//   - Manhattan distance, used by the locked-cell band and the
//     opening-distance rule.
//   - Board-full detection (locked cells never count as playable).
//
// Nothing in this package holds state or performs I/O; the session
// package owns mutation and rule ordering.
package board

// Symbol is the mark a player places. The zero value Empty doubles as
// the unoccupied cell state.
type Symbol string

const (
	Empty   Symbol = ""
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"
)

// Other returns the opposing symbol.
func (s Symbol) Other() Symbol {
	if s == SymbolX {
		return SymbolO
	}
	return SymbolX
}

// Coord addresses one cell, row-major.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is an N×N grid of symbols.
type Board [][]Symbol

// New constructs an empty size×size board.
func New(size int) Board {
	b := make(Board, size)
	for i := range b {
		b[i] = make([]Symbol, size)
	}
	return b
}

// Size returns the board dimension.
func (b Board) Size() int { return len(b) }

// In reports whether c lies on the board.
func (b Board) In(c Coord) bool {
	n := len(b)
	return c.Row >= 0 && c.Row < n && c.Col >= 0 && c.Col < n
}

// At returns the symbol at c. Callers must bounds-check first.
func (b Board) At(c Coord) Symbol { return b[c.Row][c.Col] }

// Set places s at c. Callers must bounds-check first.
func (b Board) Set(c Coord, s Symbol) { b[c.Row][c.Col] = s }

// Manhattan returns |Δrow| + |Δcol| between two cells.
func Manhattan(a, b Coord) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// Full reports whether every playable (non-locked) cell is occupied.
func Full(b Board, locked []Coord) bool {
	skip := make(map[Coord]bool, len(locked))
	for _, c := range locked {
		skip[c] = true
	}
	for r := range b {
		for col := range b[r] {
			c := Coord{Row: r, Col: col}
			if skip[c] {
				continue
			}
			if b.At(c) == Empty {
				return false
			}
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
