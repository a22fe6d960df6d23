package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the round lifecycle. No transition ever leaves StateFinished.
type State string

const (
	StateMatchmaking State = "matchmaking"
	StatePlaying     State = "playing"
	StateFinished    State = "finished"
)

var (
	ErrRoundClosed         = errors.New("game: round no longer accepts entrants")
	ErrInsufficientBalance = errors.New("game: insufficient balance for stake")
	ErrAlreadyJoined       = errors.New("game: player already joined this round")
	ErrNotEntrant          = errors.New("game: player is not in this round")
	ErrTooManyCards        = errors.New("game: card count exceeds session limit")
	ErrNoCards             = errors.New("game: at least one card is required")
)

// Result is the terminal outcome for one entrant.
type Result struct {
	Outcome        Outcome `json:"outcome"`
	Payout         int     `json:"payout"`
	WinningCardIDs []int   `json:"winning_card_ids,omitempty"`
}

type entrant struct {
	playerID string
	cardIDs  []int
	cards    map[int]Grid
	marks    map[int]MarkSet
	autoplay bool
	stake    int
	settled  bool
	result   Result
}

// Round is one authoritative, globally synchronized bingo round. All entrants
// whose (mode, stake, start instant) coincide share it. Mark sets and the
// drawn list are owned here and mutated only under mu; everything readers see
// comes out of Snapshot.
type Round struct {
	key      RoundKey
	cfg      Config
	ledger   Ledger
	history  History
	registry Registry
	onChange func(Snapshot)

	mu       sync.Mutex
	state    State
	entrants map[string]*entrant
	drawn    []int
	drawnSet map[int]struct{}
	order    []int
	next     int
	frozen   int // participant count at the matchmaking->playing transition
	winner   string

	start    time.Time
	done     chan struct{}
	doneOnce sync.Once
	rng      *rand.Rand
}

// NewRound builds a round for the given key. onChange, when non-nil, receives
// a snapshot after every observable state change (the transport layer fans it
// out to subscribers). Config problems are fatal here, not at play time.
func NewRound(key RoundKey, cfg Config, ledger Ledger, history History, registry Registry, onChange func(Snapshot)) (*Round, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if key.Stake <= 0 {
		return nil, fmt.Errorf("game: stake must be positive, got %d", key.Stake)
	}
	return &Round{
		key:      key,
		cfg:      cfg,
		ledger:   ledger,
		history:  history,
		registry: registry,
		onChange: onChange,
		state:    StateMatchmaking,
		entrants: make(map[string]*entrant),
		drawnSet: make(map[int]struct{}),
		start:    time.UnixMilli(key.StartMS),
		done:     make(chan struct{}),
	}, nil
}

// SeedDraws fixes the draw permutation's random source. Test hook; a nil rng
// keeps the time-seeded default.
func (r *Round) SeedDraws(rng *rand.Rand) {
	r.mu.Lock()
	r.rng = rng
	r.mu.Unlock()
}

// Key returns the round identity.
func (r *Round) Key() RoundKey { return r.key }

// Join admits a player with the cards they selected. The stake is debited
// immediately; a player who cannot cover it is declined before anything else
// happens. Joining is only possible while the round is in matchmaking.
func (r *Round) Join(ctx context.Context, playerID string, cardIDs []int) error {
	if len(cardIDs) == 0 {
		return ErrNoCards
	}
	if len(cardIDs) > r.cfg.MaxCards {
		return ErrTooManyCards
	}

	cards := make(map[int]Grid, len(cardIDs))
	for _, id := range cardIDs {
		grid, err := Generate(id, r.key.Mode)
		if err != nil {
			return err
		}
		if _, dup := cards[id]; dup {
			return fmt.Errorf("game: duplicate card id %d", id)
		}
		cards[id] = grid
	}

	stake := r.key.Stake * len(cardIDs)
	balance, err := r.ledger.Balance(ctx, playerID)
	if err != nil {
		return fmt.Errorf("game: balance check: %w", err)
	}
	if balance < float64(stake) {
		return ErrInsufficientBalance
	}

	r.mu.Lock()
	if r.state != StateMatchmaking {
		r.mu.Unlock()
		return ErrRoundClosed
	}
	if _, ok := r.entrants[playerID]; ok {
		r.mu.Unlock()
		return ErrAlreadyJoined
	}
	e := &entrant{
		playerID: playerID,
		cardIDs:  append([]int(nil), cardIDs...),
		cards:    cards,
		marks:    make(map[int]MarkSet, len(cards)),
		stake:    stake,
	}
	for id := range cards {
		e.marks[id] = NewMarkSet()
	}
	r.entrants[playerID] = e
	r.mu.Unlock()

	if err := r.ledger.Adjust(ctx, playerID, -float64(stake)); err != nil {
		r.mu.Lock()
		delete(r.entrants, playerID)
		r.mu.Unlock()
		return fmt.Errorf("game: stake deduction: %w", err)
	}
	if err := r.registry.Join(ctx, r.key, playerID); err != nil {
		log.Printf("[Round %s] registry join failed for %s: %v", r.key, playerID, err)
	}

	r.notify()
	return nil
}

// Start launches the matchmaking loop. It returns immediately; the round
// drives itself from timers until it reaches StateFinished.
func (r *Round) Start() {
	go r.runMatchmaking()
}

// runMatchmaking ticks once a second until both gate conditions hold: the
// scheduled instant has passed and the registry reports at least MinPlayers.
// Passing the instant alone never starts the round.
func (r *Round) runMatchmaking() {
	ticker := time.NewTicker(r.cfg.matchTick())
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
		}

		now := r.cfg.now()
		count := r.participantCount()

		r.mu.Lock()
		if r.state != StateMatchmaking {
			r.mu.Unlock()
			return
		}
		if !now.Before(r.start) && count >= r.cfg.MinPlayers {
			r.state = StatePlaying
			r.frozen = count
			r.order = drawOrder(r.key.Mode, r.rng)
			r.mu.Unlock()
			log.Printf("[Round %s] playing with %d participants", r.key, count)
			r.notify()
			go r.runDraws()
			return
		}
		expired := r.cfg.MaxWait > 0 && now.Sub(r.start) > r.cfg.MaxWait
		r.mu.Unlock()

		if expired {
			r.void()
			return
		}
		r.notify()
	}
}

// runDraws emits the next number from the fixed permutation on the mode's
// cadence. A draw is recorded before any win evaluation sees it. The loop
// ends on cancellation or pool exhaustion; exhaustion without a declared
// winner is a house win for everyone still in.
func (r *Round) runDraws() {
	ticker := time.NewTicker(r.cfg.callInterval(r.key.Mode))
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
		}

		r.mu.Lock()
		if r.state != StatePlaying {
			r.mu.Unlock()
			return
		}
		if r.next >= len(r.order) {
			r.mu.Unlock()
			r.settleExhausted()
			return
		}
		n := r.order[r.next]
		r.next++
		r.drawn = append(r.drawn, n)
		r.drawnSet[n] = struct{}{}
		auto := r.autoCatchUpLocked()
		r.mu.Unlock()

		r.notify()

		// auto-play declares on the first winning state it produces
		for _, playerID := range auto {
			if _, err := r.Declare(context.Background(), playerID); err == nil {
				return
			}
		}
	}
}

// autoCatchUpLocked daubs every drawn number on auto-play cards and returns
// the players whose cards became winning. Caller holds mu.
func (r *Round) autoCatchUpLocked() []string {
	var winners []string
	for _, e := range r.entrants {
		if !e.autoplay || e.settled {
			continue
		}
		for id, grid := range e.cards {
			marks := e.marks[id]
			for n := range r.drawnSet {
				if grid.Contains(n) {
					marks.Add(n)
				}
			}
			if IsWinning(grid, marks, r.key.Mode) {
				winners = append(winners, e.playerID)
				break
			}
		}
	}
	sort.Strings(winners)
	return winners
}

// Mark daubs a number on one of the player's cards. Daubing a number that has
// not been drawn, or that is not on the card, is silently ignored — it is a
// player mis-click, not an error.
func (r *Round) Mark(playerID string, cardID, number int) error {
	r.mu.Lock()
	e, ok := r.entrants[playerID]
	if !ok {
		r.mu.Unlock()
		return ErrNotEntrant
	}
	if r.state != StatePlaying || e.settled {
		r.mu.Unlock()
		return nil
	}
	grid, held := e.cards[cardID]
	if !held {
		r.mu.Unlock()
		return fmt.Errorf("game: player %s does not hold card %d", playerID, cardID)
	}
	if _, drawn := r.drawnSet[number]; drawn && grid.Contains(number) {
		e.marks[cardID].Add(number)
	}
	r.mu.Unlock()

	r.notify()
	return nil
}

// SetAutoplay toggles automatic daubing for the player. Enabling it catches
// up every already-drawn number on the next draw tick.
func (r *Round) SetAutoplay(playerID string, enabled bool) error {
	r.mu.Lock()
	e, ok := r.entrants[playerID]
	if !ok {
		r.mu.Unlock()
		return ErrNotEntrant
	}
	e.autoplay = enabled
	r.mu.Unlock()
	return nil
}

// Declare resolves a bingo call. The first declare that holds a winning card
// takes the whole pot and finishes the round; every other entrant resolves as
// lost. A declare with no winning card forfeits: that entrant is settled lost
// on the spot while the round continues for the rest. Declares are serialized
// by the round mutex, which is the whole tie-break rule.
func (r *Round) Declare(ctx context.Context, playerID string) (Result, error) {
	r.mu.Lock()
	e, ok := r.entrants[playerID]
	if !ok {
		r.mu.Unlock()
		return Result{}, ErrNotEntrant
	}
	if r.state != StatePlaying || e.settled {
		settled, res := e.settled, e.result
		r.mu.Unlock()
		if settled {
			return res, nil
		}
		return Result{}, ErrRoundClosed
	}

	var winning []int
	for _, id := range e.cardIDs {
		if IsWinning(e.cards[id], e.marks[id], r.key.Mode) {
			winning = append(winning, id)
		}
	}

	if len(winning) == 0 {
		// forfeits the round; not silently ignored
		res := Result{Outcome: OutcomeLost, Payout: 0}
		e.settled = true
		e.result = res
		drawn := append([]int(nil), r.drawn...)
		remaining := r.unsettledLocked()
		if remaining == 0 {
			r.state = StateFinished
		}
		r.mu.Unlock()

		log.Printf("[Round %s] player %s declared without a winning card", r.key, playerID)
		r.settle(ctx, e, res, drawn)
		if remaining == 0 {
			r.finish()
		}
		r.notify()
		return res, nil
	}

	pot := Pot(r.key.Stake, len(e.cardIDs), r.frozen, r.cfg.HouseFee)
	res := Result{Outcome: OutcomeWon, Payout: pot, WinningCardIDs: winning}
	e.settled = true
	e.result = res
	r.winner = playerID
	// the decision ends the round here; no draw may land while the
	// collaborator I/O below is still in flight
	r.state = StateFinished
	drawn := append([]int(nil), r.drawn...)
	losers := make([]*entrant, 0, len(r.entrants))
	for _, other := range r.entrants {
		if !other.settled {
			other.settled = true
			other.result = Result{Outcome: OutcomeLost, Payout: 0}
			losers = append(losers, other)
		}
	}
	r.mu.Unlock()

	log.Printf("[Round %s] player %s wins %d with cards %v", r.key, playerID, pot, winning)
	r.settle(ctx, e, res, drawn)
	for _, l := range losers {
		r.settle(ctx, l, l.result, drawn)
	}
	r.finish()
	r.notify()
	return res, nil
}

// Leave abandons the round for one player: outcome abandoned, payout zero,
// stake forfeited. When the last entrant leaves, the round's timers stop.
// Leaving after the round finished, or racing a terminal tick, is a no-op
// that just returns the already-settled result.
func (r *Round) Leave(ctx context.Context, playerID string) (Result, error) {
	r.mu.Lock()
	e, ok := r.entrants[playerID]
	if !ok {
		r.mu.Unlock()
		return Result{}, ErrNotEntrant
	}
	if e.settled {
		res := e.result
		r.mu.Unlock()
		return res, nil
	}
	res := Result{Outcome: OutcomeAbandoned, Payout: 0}
	e.settled = true
	e.result = res
	drawn := append([]int(nil), r.drawn...)
	remaining := r.unsettledLocked()
	if remaining == 0 {
		r.state = StateFinished
	}
	r.mu.Unlock()

	if err := r.registry.Leave(ctx, r.key, playerID); err != nil {
		log.Printf("[Round %s] registry leave failed for %s: %v", r.key, playerID, err)
	}
	r.settle(ctx, e, res, drawn)
	if remaining == 0 {
		r.finish()
	}
	r.notify()
	return res, nil
}

// settleExhausted resolves every remaining entrant as lost once the pool ran
// dry with no declared winner.
func (r *Round) settleExhausted() {
	r.mu.Lock()
	if r.state == StateFinished {
		r.mu.Unlock()
		return
	}
	r.state = StateFinished
	drawn := append([]int(nil), r.drawn...)
	var remaining []*entrant
	for _, e := range r.entrants {
		if !e.settled {
			e.settled = true
			e.result = Result{Outcome: OutcomeLost, Payout: 0}
			remaining = append(remaining, e)
		}
	}
	r.mu.Unlock()

	log.Printf("[Round %s] pool exhausted, house wins over %d entrants", r.key, len(remaining))
	ctx := context.Background()
	for _, e := range remaining {
		r.settle(ctx, e, e.result, drawn)
	}
	r.finish()
	r.notify()
}

// void cancels a round whose participant threshold was never met within
// MaxWait. Stakes go back to the entrants; nothing was drawn, so no
// settlement record is written.
func (r *Round) void() {
	r.mu.Lock()
	if r.state == StateFinished {
		r.mu.Unlock()
		return
	}
	// closing the entry window before the refunds go out keeps a racing
	// Join from debiting a stake nobody would ever return
	r.state = StateFinished
	var refunds []*entrant
	for _, e := range r.entrants {
		if !e.settled {
			e.settled = true
			e.result = Result{Outcome: OutcomeAbandoned, Payout: 0}
			refunds = append(refunds, e)
		}
	}
	r.mu.Unlock()

	log.Printf("[Round %s] voided below player threshold, refunding %d entrants", r.key, len(refunds))
	ctx := context.Background()
	for _, e := range refunds {
		if err := r.ledger.Adjust(ctx, e.playerID, float64(e.stake)); err != nil {
			log.Printf("[Round %s] refund failed for %s: %v", r.key, e.playerID, err)
		}
		if err := r.registry.Leave(ctx, r.key, e.playerID); err != nil {
			log.Printf("[Round %s] registry leave failed for %s: %v", r.key, e.playerID, err)
		}
	}
	r.finish()
	r.notify()
}

// settle performs the two side effects of a terminal outcome: the ledger
// credit (won only) and the immutable history record (always). Both are
// attempted even when one fails; a failure is logged and the in-memory
// result the player already saw stands.
func (r *Round) settle(ctx context.Context, e *entrant, res Result, drawn []int) {
	if res.Outcome == OutcomeWon {
		if err := r.ledger.Adjust(ctx, e.playerID, float64(res.Payout)); err != nil {
			log.Printf("[Round %s] payout credit failed for %s: %v", r.key, e.playerID, err)
		}
		if err := r.ledger.IncrementWins(ctx, e.playerID); err != nil {
			log.Printf("[Round %s] win counter failed for %s: %v", r.key, e.playerID, err)
		}
	}
	rec := Record{
		ID:            uuid.NewString(),
		PlayerID:      e.playerID,
		Mode:          r.key.Mode,
		CardIDs:       append([]int(nil), e.cardIDs...),
		Stake:         e.stake,
		Payout:        res.Payout,
		Outcome:       res.Outcome,
		CalledNumbers: drawn,
		CreatedAt:     r.cfg.now(),
	}
	if err := r.history.Append(ctx, rec); err != nil {
		log.Printf("[Round %s] history append failed for %s: %v", r.key, e.playerID, err)
	}
}

// finish transitions to StateFinished exactly once and stops both timers.
// Safe to call from any path, any number of times.
func (r *Round) finish() {
	r.mu.Lock()
	r.state = StateFinished
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
}

// Done is closed when the round reaches StateFinished.
func (r *Round) Done() <-chan struct{} { return r.done }

func (r *Round) unsettledLocked() int {
	n := 0
	for _, e := range r.entrants {
		if !e.settled {
			n++
		}
	}
	return n
}

func (r *Round) participantCount() int {
	count, err := r.registry.Count(context.Background(), r.key)
	if err != nil {
		log.Printf("[Round %s] registry count failed: %v", r.key, err)
		r.mu.Lock()
		count = len(r.entrants)
		r.mu.Unlock()
	}
	return count
}

func (r *Round) notify() {
	if r.onChange == nil {
		return
	}
	r.onChange(r.Snapshot())
}

// String renders the round key for log prefixes.
func (k RoundKey) String() string {
	return fmt.Sprintf("%s/%d@%d", k.Mode, k.Stake, k.StartMS)
}
