package game

// MarkSet records the numbers an entrant has daubed on one card. It always
// contains FreeCell and only ever grows while the round is live.
type MarkSet map[int]struct{}

// NewMarkSet returns a mark set pre-seeded with the free cell.
func NewMarkSet() MarkSet {
	return MarkSet{FreeCell: {}}
}

// Has reports whether n has been marked.
func (m MarkSet) Has(n int) bool {
	_, ok := m[n]
	return ok
}

// Add marks n. Adding an already-marked number is a no-op.
func (m MarkSet) Add(n int) {
	m[n] = struct{}{}
}

// IsWinning reports whether the marks complete any winning pattern on the
// grid: a full row, a full column, either diagonal, or — classic mode only —
// all four corners. The free cell counts as marked through NewMarkSet.
func IsWinning(grid Grid, marks MarkSet, mode Mode) bool {
	size := mode.Size()

	for r := 0; r < size; r++ {
		full := true
		for c := 0; c < size; c++ {
			if !marks.Has(grid[r][c]) {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	for c := 0; c < size; c++ {
		full := true
		for r := 0; r < size; r++ {
			if !marks.Has(grid[r][c]) {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	d1, d2 := true, true
	for i := 0; i < size; i++ {
		if !marks.Has(grid[i][i]) {
			d1 = false
		}
		if !marks.Has(grid[i][size-1-i]) {
			d2 = false
		}
	}
	if d1 || d2 {
		return true
	}

	if mode == ModeClassic {
		last := size - 1
		if marks.Has(grid[0][0]) && marks.Has(grid[0][last]) &&
			marks.Has(grid[last][0]) && marks.Has(grid[last][last]) {
			return true
		}
	}
	return false
}

// LineProgress returns the best row-or-column completion count on the card,
// used by the presentation layer for per-card progress bars.
func LineProgress(grid Grid, marks MarkSet, mode Mode) (current, total int) {
	size := mode.Size()
	max := 0
	for r := 0; r < size; r++ {
		count := 0
		for c := 0; c < size; c++ {
			if marks.Has(grid[r][c]) {
				count++
			}
		}
		if count > max {
			max = count
		}
	}
	for c := 0; c < size; c++ {
		count := 0
		for r := 0; r < size; r++ {
			if marks.Has(grid[r][c]) {
				count++
			}
		}
		if count > max {
			max = count
		}
	}
	return max, size
}
