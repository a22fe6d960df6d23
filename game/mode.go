package game

import (
	"fmt"
	"time"
)

// Mode selects the card size and number pool of a round.
type Mode string

const (
	ModeClassic Mode = "classic" // 5x5 grid, numbers 1-75
	ModeMini    Mode = "mini"    // 3x3 grid, numbers 1-30
)

// ParseMode maps a wire string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeClassic:
		return ModeClassic, nil
	case ModeMini:
		return ModeMini, nil
	}
	return "", fmt.Errorf("game: unsupported mode %q", s)
}

// Size returns the grid dimension for the mode.
func (m Mode) Size() int {
	if m == ModeMini {
		return 3
	}
	return 5
}

// PoolSize returns the highest callable number for the mode.
func (m Mode) PoolSize() int {
	if m == ModeMini {
		return 30
	}
	return 75
}

// CallInterval is the cadence between two drawn numbers.
func (m Mode) CallInterval() time.Duration {
	if m == ModeMini {
		return CallIntervalMini
	}
	return CallIntervalClassic
}
