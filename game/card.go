package game

import (
	"fmt"
	"math/rand"
)

// FreeCell is the sentinel value of the always-marked center cell.
const FreeCell = 0

// Grid is a square bingo card, row-major. Exactly one cell holds FreeCell.
// Grids are pure functions of (cardID, mode) and are never mutated after
// generation, so they can be recomputed anywhere for verification.
type Grid [][]int

// Generate builds the card grid for a card id. The same (cardID, mode) pair
// always yields the same grid: the shuffle is seeded from both. Classic cards
// use the standard B/I/N/G/O column ranges (1-15, 16-30, ...); mini cards use
// three columns of ten. cardID must be in 1..TotalCardsAvailable.
func Generate(cardID int, mode Mode) (Grid, error) {
	if cardID < 1 || cardID > TotalCardsAvailable {
		return nil, fmt.Errorf("game: card id %d out of range 1..%d", cardID, TotalCardsAvailable)
	}

	size := mode.Size()
	perCol := mode.PoolSize() / size
	rng := rand.New(rand.NewSource(cardSeed(cardID, mode)))

	grid := make(Grid, size)
	for r := range grid {
		grid[r] = make([]int, size)
	}

	for c := 0; c < size; c++ {
		lo := c*perCol + 1
		picks := rng.Perm(perCol)[:size]
		for r := 0; r < size; r++ {
			grid[r][c] = lo + picks[r]
		}
	}

	center := size / 2
	grid[center][center] = FreeCell
	return grid, nil
}

func cardSeed(cardID int, mode Mode) int64 {
	seed := int64(cardID)
	if mode == ModeMini {
		// keep mini decks disjoint from classic ones
		seed += int64(TotalCardsAvailable) * 31
	}
	return seed * 2654435761 // Knuth multiplicative hash, spreads adjacent ids
}

// Values returns the set of numbers on the grid, excluding the free cell.
func (g Grid) Values() map[int]struct{} {
	out := make(map[int]struct{}, len(g)*len(g))
	for _, row := range g {
		for _, n := range row {
			if n != FreeCell {
				out[n] = struct{}{}
			}
		}
	}
	return out
}

// Contains reports whether n appears on the grid.
func (g Grid) Contains(n int) bool {
	for _, row := range g {
		for _, v := range row {
			if v == n {
				return true
			}
		}
	}
	return false
}
