package board

import "testing"

func place(b Board, sym Symbol, cells ...Coord) {
	for _, c := range cells {
		b.Set(c, sym)
	}
}

func TestFindWinHorizontal(t *testing.T) {
	b := New(17)
	place(b, SymbolX, Coord{4, 2}, Coord{4, 3}, Coord{4, 4}, Coord{4, 5}, Coord{4, 6})
	line := FindWin(b, Coord{4, 4})
	if len(line) != 5 {
		t.Fatalf("line length = %d, want 5", len(line))
	}
	if line[0] != (Coord{4, 2}) || line[4] != (Coord{4, 6}) {
		t.Errorf("line not in board order: %v", line)
	}
}

func TestFindWinVerticalFromEndpoint(t *testing.T) {
	b := New(17)
	place(b, SymbolO, Coord{2, 9}, Coord{3, 9}, Coord{4, 9}, Coord{5, 9}, Coord{6, 9})
	if line := FindWin(b, Coord{6, 9}); len(line) != 5 {
		t.Fatalf("vertical win from endpoint not found: %v", line)
	}
}

func TestFindWinDiagonals(t *testing.T) {
	b := New(17)
	place(b, SymbolX, Coord{1, 1}, Coord{2, 2}, Coord{3, 3}, Coord{4, 4}, Coord{5, 5})
	if line := FindWin(b, Coord{3, 3}); len(line) != 5 {
		t.Fatalf("down-right diagonal not found: %v", line)
	}

	b2 := New(17)
	place(b2, SymbolO, Coord{5, 1}, Coord{4, 2}, Coord{3, 3}, Coord{2, 4}, Coord{1, 5})
	line := FindWin(b2, Coord{1, 5})
	if len(line) != 5 {
		t.Fatalf("anti-diagonal not found: %v", line)
	}
}

func TestFindWinOverlongRunReturnedWhole(t *testing.T) {
	b := New(17)
	place(b, SymbolX, Coord{7, 3}, Coord{7, 4}, Coord{7, 5}, Coord{7, 6}, Coord{7, 7}, Coord{7, 8})
	line := FindWin(b, Coord{7, 5})
	if len(line) != 6 {
		t.Fatalf("overlong run truncated: got %d cells, want 6", len(line))
	}
}

func TestFindWinContainsPlacedCell(t *testing.T) {
	b := New(17)
	cells := []Coord{{10, 2}, {10, 3}, {10, 4}, {10, 5}, {10, 6}}
	place(b, SymbolO, cells...)
	for _, last := range cells {
		line := FindWin(b, last)
		found := false
		for _, c := range line {
			if c == last {
				found = true
			}
		}
		if !found {
			t.Errorf("winning line from %v does not contain it: %v", last, line)
		}
	}
}

func TestFindWinNoWin(t *testing.T) {
	b := New(17)
	// Four in a row, broken by the opponent.
	place(b, SymbolX, Coord{8, 4}, Coord{8, 5}, Coord{8, 6}, Coord{8, 7})
	place(b, SymbolO, Coord{8, 8})
	if line := FindWin(b, Coord{8, 7}); line != nil {
		t.Fatalf("four in a row reported as win: %v", line)
	}
	if line := FindWin(b, Coord{0, 0}); line != nil {
		t.Fatalf("empty cell reported a win: %v", line)
	}
}

func TestFindWinGapNotBridged(t *testing.T) {
	b := New(17)
	// X X X X _ X: the walk must stop at the gap.
	place(b, SymbolX, Coord{12, 1}, Coord{12, 2}, Coord{12, 3}, Coord{12, 4}, Coord{12, 6})
	if line := FindWin(b, Coord{12, 4}); line != nil {
		t.Fatalf("gapped run reported as win: %v", line)
	}
}
