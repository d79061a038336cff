// internal/board/locked.go
//
// Locked-cell generation and the derived opening-move set.
// Three cells per round are locked: neither player may ever place on
// them, and the round's first stone must land in their immediate
// neighborhood. Generation is randomized inside a centered candidate
// box with a bounded retry budget; when the budget is exhausted a
// fixed center-relative triangle is used so generation always
// succeeds.
package board

import "math/rand"

// retryBudget bounds the randomized search before falling back to the
// deterministic pattern.
const retryBudget = 300

// fallbackOffsets is the center-relative triangle used when random
// placement cannot satisfy the spacing band. Pairwise Manhattan
// distances are 6, 9 and 9, inside the default [5,10] band.
var fallbackOffsets = [3]Coord{{Row: -3, Col: -3}, {Row: -3, Col: 3}, {Row: 3, Col: 0}}

// GenerateLockedCells picks count distinct cells whose pairwise
// Manhattan distances all lie within [minGap, maxGap], biased toward
// the board center by sampling from the middle half of the grid.
func GenerateLockedCells(size, count, minGap, maxGap int) []Coord {
	lo := size / 4
	hi := size - 1 - size/4
	span := hi - lo + 1

	for attempt := 0; attempt < retryBudget; attempt++ {
		cells := make([]Coord, 0, count)
		ok := true
		for len(cells) < count {
			c := Coord{Row: lo + rand.Intn(span), Col: lo + rand.Intn(span)}
			cells = append(cells, c)
			if !spacedWithin(cells, minGap, maxGap) {
				ok = false
				break
			}
		}
		if ok {
			return cells
		}
	}

	// Deterministic fallback around the center.
	mid := size / 2
	cells := make([]Coord, 0, count)
	for i := 0; i < count; i++ {
		off := fallbackOffsets[i%len(fallbackOffsets)]
		cells = append(cells, Coord{Row: clamp(mid+off.Row, size), Col: clamp(mid+off.Col, size)})
	}
	return cells
}

func clamp(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}

// spacedWithin checks that the newest cell keeps every pair distinct
// and inside the distance band.
func spacedWithin(cells []Coord, minGap, maxGap int) bool {
	last := cells[len(cells)-1]
	for _, c := range cells[:len(cells)-1] {
		d := Manhattan(c, last)
		if d < minGap || d > maxGap {
			return false
		}
	}
	return true
}

// FirstMoveCells derives the set of legal opening cells: the
// 8-neighborhood of every locked cell, clipped to the board, minus
// the locked cells themselves.
func FirstMoveCells(size int, locked []Coord) map[Coord]bool {
	isLocked := make(map[Coord]bool, len(locked))
	for _, c := range locked {
		isLocked[c] = true
	}
	out := make(map[Coord]bool)
	for _, c := range locked {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				n := Coord{Row: c.Row + dr, Col: c.Col + dc}
				if n.Row < 0 || n.Row >= size || n.Col < 0 || n.Col >= size {
					continue
				}
				if isLocked[n] {
					continue
				}
				out[n] = true
			}
		}
	}
	return out
}
