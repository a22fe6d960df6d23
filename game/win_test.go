package game

import "testing"

// fixed 5x5 grid for pattern tests; 0 is the free center cell
var classicGrid = Grid{
	{1, 16, 31, 46, 61},
	{2, 17, 32, 47, 62},
	{3, 18, FreeCell, 48, 63},
	{4, 19, 34, 49, 64},
	{5, 20, 35, 50, 65},
}

func marksOf(nums ...int) MarkSet {
	m := NewMarkSet()
	for _, n := range nums {
		m.Add(n)
	}
	return m
}

func TestIsWinningPatterns(t *testing.T) {
	tests := []struct {
		name  string
		marks MarkSet
		mode  Mode
		want  bool
	}{
		{"empty card", NewMarkSet(), ModeClassic, false},
		{"top row", marksOf(1, 16, 31, 46, 61), ModeClassic, true},
		{"middle row through free cell", marksOf(3, 18, 48, 63), ModeClassic, true},
		{"first column", marksOf(1, 2, 3, 4, 5), ModeClassic, true},
		{"middle column through free cell", marksOf(31, 32, 34, 35), ModeClassic, true},
		{"main diagonal", marksOf(1, 17, 49, 65), ModeClassic, true},
		{"anti diagonal", marksOf(61, 47, 19, 5), ModeClassic, true},
		{"four corners", marksOf(1, 61, 5, 65), ModeClassic, true},
		{"three corners only", marksOf(1, 61, 5), ModeClassic, false},
		// one mark per row and column, no line complete
		{"scattered", marksOf(1, 17, 64, 50), ModeClassic, false},
		{"almost a row", marksOf(1, 16, 31, 46), ModeClassic, false},
	}
	for _, tt := range tests {
		if got := IsWinning(classicGrid, tt.marks, tt.mode); got != tt.want {
			t.Errorf("%s: IsWinning = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMiniHasNoCornerPattern(t *testing.T) {
	grid := Grid{
		{1, 11, 21},
		{2, FreeCell, 22},
		{3, 13, 23},
	}
	corners := marksOf(1, 21, 3, 23)
	if IsWinning(grid, corners, ModeMini) {
		t.Fatal("corner pattern must not win in mini mode")
	}
	if !IsWinning(grid, marksOf(1, 11, 21), ModeMini) {
		t.Fatal("full mini row should win")
	}
	if !IsWinning(grid, marksOf(1, 23), ModeMini) {
		t.Fatal("mini diagonal through the free cell should win")
	}
}

func TestLineProgress(t *testing.T) {
	cur, total := LineProgress(classicGrid, marksOf(1, 16, 31), ModeClassic)
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if cur != 3 {
		t.Fatalf("current = %d, want 3", cur)
	}
	// free cell alone gives every center line one mark
	cur, _ = LineProgress(classicGrid, NewMarkSet(), ModeClassic)
	if cur != 1 {
		t.Fatalf("free-cell progress = %d, want 1", cur)
	}
}

func TestMarkSetMonotonic(t *testing.T) {
	m := NewMarkSet()
	if !m.Has(FreeCell) {
		t.Fatal("new mark set must contain the free cell")
	}
	m.Add(7)
	m.Add(7)
	if len(m) != 2 {
		t.Fatalf("len = %d after double add, want 2", len(m))
	}
}
