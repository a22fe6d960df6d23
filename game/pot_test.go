package game

import "testing"

func TestPot(t *testing.T) {
	tests := []struct {
		name                string
		stake, cards, users int
		fee                 float64
		want                int
	}{
		{"promotion guide figures", 50, 2, 3, 0.20, 240},
		{"single card two players", 50, 1, 2, 0.20, 80},
		{"floor truncation", 10, 1, 3, 0.25, 22}, // 22.5 never rounds up
		{"zero fee", 10, 1, 2, 0, 20},
		{"mini stakes", 10, 3, 5, 0.20, 120},
	}
	for _, tt := range tests {
		if got := Pot(tt.stake, tt.cards, tt.users, tt.fee); got != tt.want {
			t.Errorf("%s: Pot(%d,%d,%d,%v) = %d, want %d",
				tt.name, tt.stake, tt.cards, tt.users, tt.fee, got, tt.want)
		}
	}
}

// Payout can never exceed the total stake collected for the round.
func TestPotNeverExceedsStake(t *testing.T) {
	for stake := 10; stake <= 100; stake += 10 {
		for users := 1; users <= 10; users++ {
			total := stake * users
			if pot := Pot(stake, 1, users, 0.20); pot > total {
				t.Fatalf("pot %d exceeds collected stake %d", pot, total)
			}
		}
	}
}
