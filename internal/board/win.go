// internal/board/win.go
//
// Win detection from the last-placed stone. For each of the four line
// orientations we walk up to four steps in each direction, collecting
// the contiguous same-symbol run in board order; a run of five or
// more is the winning line and is returned whole, even when longer
// than five.
package board

// winLength is the contiguous run required to win.
const winLength = 5

// orientations: horizontal, vertical, and both diagonals. The walk
// goes up to winLength-1 steps each way from the placed cell.
var orientations = [4]Coord{
	{Row: 0, Col: 1},
	{Row: 1, Col: 0},
	{Row: 1, Col: 1},
	{Row: 1, Col: -1},
}

// FindWin returns the winning line containing last, ordered from the
// negative direction to the positive one, or nil when no orientation
// reaches five in a row. The cell at last must already hold the
// symbol being tested.
func FindWin(b Board, last Coord) []Coord {
	sym := b.At(last)
	if sym == Empty {
		return nil
	}
	for _, d := range orientations {
		run := []Coord{}
		// Negative direction first so the run comes out in board order.
		for step := winLength - 1; step >= 1; step-- {
			c := Coord{Row: last.Row - step*d.Row, Col: last.Col - step*d.Col}
			if !b.In(c) || b.At(c) != sym {
				run = run[:0]
				continue
			}
			run = append(run, c)
		}
		run = append(run, last)
		for step := 1; step <= winLength-1; step++ {
			c := Coord{Row: last.Row + step*d.Row, Col: last.Col + step*d.Col}
			if !b.In(c) || b.At(c) != sym {
				break
			}
			run = append(run, c)
		}
		if len(run) >= winLength {
			return run
		}
	}
	return nil
}
