package game

import (
	"fmt"
	"time"
)

// Fixed game parameters. These mirror the operator's promotion guide and are
// deliberately constants rather than flags: every instance must agree on them
// for globally synchronized rounds to work.
const (
	// GlobalRoundInterval quantizes round start instants. Every client and
	// every server derives the same start time from the wall clock alone.
	GlobalRoundInterval = 60 * time.Second

	CallIntervalClassic = 2000 * time.Millisecond
	CallIntervalMini    = 1500 * time.Millisecond

	// HouseFeePercent is the fraction of the raw stake retained by the house.
	HouseFeePercent = 0.20

	MinPlayersToStart   = 2
	TotalCardsAvailable = 400
	MaxCardsPerSession  = 3
)

// Config carries the tunable timing parameters of a round session. The zero
// value is not usable; DefaultConfig returns the production values and tests
// shrink the intervals.
type Config struct {
	RoundInterval time.Duration // quantization step for start instants
	CallClassic   time.Duration // draw cadence, classic mode
	CallMini      time.Duration // draw cadence, mini mode
	HouseFee      float64       // fraction in [0,1)
	MinPlayers    int
	TotalCards    int
	MaxCards      int // cards one entrant may hold

	// MatchTick is the matchmaking gate's poll interval. Zero means one
	// second, the production value.
	MatchTick time.Duration

	// MaxWait bounds matchmaking: if the participant threshold is still unmet
	// this long after the scheduled start, the round is voided and stakes are
	// refunded. Zero means wait indefinitely.
	MaxWait time.Duration

	// Now is the clock source, swappable in tests. Nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns the production parameters.
func DefaultConfig() Config {
	return Config{
		RoundInterval: GlobalRoundInterval,
		CallClassic:   CallIntervalClassic,
		CallMini:      CallIntervalMini,
		HouseFee:      HouseFeePercent,
		MinPlayers:    MinPlayersToStart,
		TotalCards:    TotalCardsAvailable,
		MaxCards:      MaxCardsPerSession,
		MatchTick:     time.Second,
		MaxWait:       5 * GlobalRoundInterval,
	}
}

// Validate reports malformed configuration. A bad config is a construction
// time error; per-round conditions are never routed through here.
func (c Config) Validate() error {
	if c.RoundInterval <= 0 {
		return fmt.Errorf("game: round interval must be positive, got %v", c.RoundInterval)
	}
	if c.CallClassic <= 0 || c.CallMini <= 0 {
		return fmt.Errorf("game: call intervals must be positive, got classic=%v mini=%v", c.CallClassic, c.CallMini)
	}
	if c.HouseFee < 0 || c.HouseFee >= 1 {
		return fmt.Errorf("game: house fee must be in [0,1), got %v", c.HouseFee)
	}
	if c.MinPlayers < 1 {
		return fmt.Errorf("game: min players must be at least 1, got %d", c.MinPlayers)
	}
	if c.TotalCards <= 0 {
		return fmt.Errorf("game: total cards must be positive, got %d", c.TotalCards)
	}
	if c.MaxCards < 1 {
		return fmt.Errorf("game: max cards must be at least 1, got %d", c.MaxCards)
	}
	return nil
}

func (c Config) matchTick() time.Duration {
	if c.MatchTick <= 0 {
		return time.Second
	}
	return c.MatchTick
}

func (c Config) callInterval(m Mode) time.Duration {
	if m == ModeMini {
		return c.CallMini
	}
	return c.CallClassic
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
