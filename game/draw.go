package game

import (
	"math/rand"
	"time"
)

// drawOrder shuffles the full number pool for the mode once. The round
// replays this fixed permutation for its entire life; it is never
// re-shuffled per tick, so the call sequence is decided the moment play
// begins.
func drawOrder(mode Mode, rng *rand.Rand) []int {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	pool := make([]int, mode.PoolSize())
	for i := range pool {
		pool[i] = i + 1
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool
}
