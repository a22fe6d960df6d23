package game

import "testing"

func TestGenerateDeterministic(t *testing.T) {
	for _, mode := range []Mode{ModeClassic, ModeMini} {
		for _, id := range []int{1, 7, 42, 399, TotalCardsAvailable} {
			a, err := Generate(id, mode)
			if err != nil {
				t.Fatalf("Generate(%d, %s): %v", id, mode, err)
			}
			b, err := Generate(id, mode)
			if err != nil {
				t.Fatalf("Generate(%d, %s) second call: %v", id, mode, err)
			}
			for r := range a {
				for c := range a[r] {
					if a[r][c] != b[r][c] {
						t.Fatalf("Generate(%d, %s) not deterministic at [%d][%d]: %d vs %d",
							id, mode, r, c, a[r][c], b[r][c])
					}
				}
			}
		}
	}
}

func TestGenerateShape(t *testing.T) {
	tests := []struct {
		mode Mode
		size int
		max  int
	}{
		{ModeClassic, 5, 75},
		{ModeMini, 3, 30},
	}
	for _, tt := range tests {
		grid, err := Generate(10, tt.mode)
		if err != nil {
			t.Fatalf("Generate(10, %s): %v", tt.mode, err)
		}
		if len(grid) != tt.size {
			t.Fatalf("%s: got %d rows, want %d", tt.mode, len(grid), tt.size)
		}
		center := tt.size / 2
		seen := make(map[int]bool)
		for r, row := range grid {
			if len(row) != tt.size {
				t.Fatalf("%s: row %d has %d cells, want %d", tt.mode, r, len(row), tt.size)
			}
			for c, n := range row {
				if r == center && c == center {
					if n != FreeCell {
						t.Fatalf("%s: center cell is %d, want free cell", tt.mode, n)
					}
					continue
				}
				if n < 1 || n > tt.max {
					t.Fatalf("%s: cell [%d][%d]=%d out of pool 1..%d", tt.mode, r, c, n, tt.max)
				}
				if seen[n] {
					t.Fatalf("%s: duplicate number %d on one card", tt.mode, n)
				}
				seen[n] = true
			}
		}
	}
}

func TestGenerateColumnRanges(t *testing.T) {
	grid, err := Generate(3, ModeClassic)
	if err != nil {
		t.Fatal(err)
	}
	for c := 0; c < 5; c++ {
		lo, hi := c*15+1, (c+1)*15
		for r := 0; r < 5; r++ {
			n := grid[r][c]
			if n == FreeCell {
				continue
			}
			if n < lo || n > hi {
				t.Fatalf("column %d cell %d outside %d..%d", c, n, lo, hi)
			}
		}
	}
}

func TestGenerateRejectsBadID(t *testing.T) {
	for _, id := range []int{0, -1, TotalCardsAvailable + 1} {
		if _, err := Generate(id, ModeClassic); err == nil {
			t.Errorf("Generate(%d) accepted out-of-range id", id)
		}
	}
}

func TestGridContains(t *testing.T) {
	grid, err := Generate(12, ModeMini)
	if err != nil {
		t.Fatal(err)
	}
	if !grid.Contains(grid[0][0]) {
		t.Error("Contains missed a grid value")
	}
	if grid.Contains(31) {
		t.Error("Contains reported a number outside the mini pool")
	}
}
