package game

import "math"

// Pot computes the payable prize: the raw stake across every participant's
// matching entry, minus the house fee, truncated down to a whole unit. It
// never rounds up, so payout can never exceed the stake collected.
func Pot(stakePerCard, cardsHeld, participants int, houseFee float64) int {
	raw := float64(stakePerCard * cardsHeld * participants)
	return int(math.Floor(raw * (1 - houseFee)))
}
