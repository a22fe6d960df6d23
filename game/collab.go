package game

import (
	"context"
	"sync"
	"time"
)

// Outcome classifies how an entrant's round ended.
type Outcome string

const (
	OutcomeWon       Outcome = "won"
	OutcomeLost      Outcome = "lost"
	OutcomeAbandoned Outcome = "abandoned"
)

// Record is one immutable settlement entry. It is appended to the history
// collaborator exactly once per entrant per round and never mutated after.
type Record struct {
	ID            string    `json:"id"`
	PlayerID      string    `json:"player_id"`
	Mode          Mode      `json:"game_mode"`
	CardIDs       []int     `json:"card_ids"`
	Stake         int       `json:"stake"`
	Payout        int       `json:"payout"`
	Outcome       Outcome   `json:"status"`
	CalledNumbers []int     `json:"called_numbers"`
	CreatedAt     time.Time `json:"created_at"`
}

// Ledger is the external account service owning player balances. The engine
// never caches balances; every read goes through here.
type Ledger interface {
	Balance(ctx context.Context, playerID string) (float64, error)
	// Adjust applies delta to the player's balance: negative on stake
	// deduction, positive on payout or refund.
	Adjust(ctx context.Context, playerID string, delta float64) error
	IncrementWins(ctx context.Context, playerID string) error
}

// History is the external match-history store. Append failures are reported
// but must never invalidate an already computed settlement.
type History interface {
	Append(ctx context.Context, rec Record) error
	ListRecent(ctx context.Context, playerID string, limit int) ([]Record, error)
}

// Registry is the join/leave presence store keyed by round. It replaces the
// synthetic opponent counts of the legacy client: the matchmaking gate only
// trusts what the registry reports.
type Registry interface {
	Join(ctx context.Context, key RoundKey, playerID string) error
	Leave(ctx context.Context, key RoundKey, playerID string) error
	Count(ctx context.Context, key RoundKey) (int, error)
}

// RoundKey identifies a globally shared round: every entrant whose scheduled
// start instant, mode and stake coincide plays the same round.
type RoundKey struct {
	Mode    Mode  `json:"mode"`
	Stake   int   `json:"stake"`
	StartMS int64 `json:"start_ms"` // epoch millis, quantized to the interval
}

// MemoryRegistry is the in-process Registry used when no shared store is
// configured, and by tests.
type MemoryRegistry struct {
	mu     sync.Mutex
	rounds map[RoundKey]map[string]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{rounds: make(map[RoundKey]map[string]struct{})}
}

func (r *MemoryRegistry) Join(_ context.Context, key RoundKey, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.rounds[key]
	if !ok {
		set = make(map[string]struct{})
		r.rounds[key] = set
	}
	set[playerID] = struct{}{}
	return nil
}

func (r *MemoryRegistry) Leave(_ context.Context, key RoundKey, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.rounds[key]; ok {
		delete(set, playerID)
		if len(set) == 0 {
			delete(r.rounds, key)
		}
	}
	return nil
}

func (r *MemoryRegistry) Count(_ context.Context, key RoundKey) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rounds[key]), nil
}
