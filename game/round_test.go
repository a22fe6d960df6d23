package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"
)

type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]float64
	wins     map[string]int
}

func newFakeLedger(players ...string) *fakeLedger {
	l := &fakeLedger{balances: make(map[string]float64), wins: make(map[string]int)}
	for _, p := range players {
		l.balances[p] = 1000
	}
	return l
}

func (l *fakeLedger) Balance(_ context.Context, playerID string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[playerID], nil
}

func (l *fakeLedger) Adjust(_ context.Context, playerID string, delta float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[playerID] += delta
	return nil
}

func (l *fakeLedger) IncrementWins(_ context.Context, playerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.wins[playerID]++
	return nil
}

func (l *fakeLedger) balance(playerID string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[playerID]
}

type fakeHistory struct {
	mu   sync.Mutex
	recs []Record
}

func (h *fakeHistory) Append(_ context.Context, rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
	return nil
}

func (h *fakeHistory) ListRecent(_ context.Context, playerID string, limit int) ([]Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Record
	for i := len(h.recs) - 1; i >= 0 && len(out) < limit; i-- {
		if h.recs[i].PlayerID == playerID {
			out = append(out, h.recs[i])
		}
	}
	return out, nil
}

func (h *fakeHistory) record(playerID string) (Record, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.recs {
		if r.PlayerID == playerID {
			return r, true
		}
	}
	return Record{}, false
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MatchTick = 3 * time.Millisecond
	cfg.CallClassic = 3 * time.Millisecond
	cfg.CallMini = 2 * time.Millisecond
	cfg.MaxWait = 0
	return cfg
}

func testKey(mode Mode, stake int) RoundKey {
	// scheduled instant already reached so the gate waits on players only
	return RoundKey{Mode: mode, Stake: stake, StartMS: time.Now().Add(-10 * time.Millisecond).UnixMilli()}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestGateHoldsBelowThreshold(t *testing.T) {
	ledger := newFakeLedger("p1")
	round, err := NewRound(testKey(ModeClassic, 50), testConfig(), ledger, &fakeHistory{}, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := round.Join(context.Background(), "p1", []int{1}); err != nil {
		t.Fatal(err)
	}
	round.Start()
	defer round.finish()

	time.Sleep(60 * time.Millisecond)
	if st := round.StateNow(); st != StateMatchmaking {
		t.Fatalf("round reached %s with one player below threshold", st)
	}
}

func TestRoundStartsWhenGateSatisfied(t *testing.T) {
	ledger := newFakeLedger("p1", "p2")
	round, err := NewRound(testKey(ModeClassic, 50), testConfig(), ledger, &fakeHistory{}, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"p1", "p2"} {
		if err := round.Join(context.Background(), p, []int{1, 2}); err != nil {
			t.Fatal(err)
		}
	}
	// stake debited at admission: 2 cards x 50
	if got := ledger.balance("p1"); got != 900 {
		t.Fatalf("balance after join = %v, want 900", got)
	}

	round.Start()
	defer round.finish()

	waitFor(t, "playing state", func() bool { return round.StateNow() == StatePlaying })
	waitFor(t, "first draws", func() bool { return len(round.Snapshot().Drawn) >= 3 })

	snap := round.Snapshot()
	if snap.Participants != 2 {
		t.Fatalf("frozen participants = %d, want 2", snap.Participants)
	}
	seen := make(map[int]bool)
	for _, n := range snap.Drawn {
		if seen[n] {
			t.Fatalf("duplicate draw %d", n)
		}
		if n < 1 || n > 75 {
			t.Fatalf("draw %d outside pool", n)
		}
		seen[n] = true
	}
}

func TestJoinValidation(t *testing.T) {
	ledger := newFakeLedger("rich")
	ledger.balances["poor"] = 10
	round, err := NewRound(testKey(ModeClassic, 50), testConfig(), ledger, &fakeHistory{}, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := round.Join(ctx, "poor", []int{1}); err != ErrInsufficientBalance {
		t.Errorf("poor join: got %v, want ErrInsufficientBalance", err)
	}
	if err := round.Join(ctx, "rich", []int{1, 2, 3, 4}); err != ErrTooManyCards {
		t.Errorf("four cards: got %v, want ErrTooManyCards", err)
	}
	if err := round.Join(ctx, "rich", []int{0}); err == nil {
		t.Error("card id 0 accepted")
	}
	if err := round.Join(ctx, "rich", nil); err != ErrNoCards {
		t.Errorf("no cards: got %v, want ErrNoCards", err)
	}
	if err := round.Join(ctx, "rich", []int{5}); err != nil {
		t.Fatal(err)
	}
	if err := round.Join(ctx, "rich", []int{6}); err != ErrAlreadyJoined {
		t.Errorf("double join: got %v, want ErrAlreadyJoined", err)
	}
	if got := ledger.balance("poor"); got != 10 {
		t.Errorf("declined join touched the balance: %v", got)
	}
}

func TestDeclareWithoutWinForfeits(t *testing.T) {
	ledger := newFakeLedger("p1", "p2")
	history := &fakeHistory{}
	round, err := NewRound(testKey(ModeClassic, 50), testConfig(), ledger, history, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, p := range []string{"p1", "p2"} {
		if err := round.Join(ctx, p, []int{joinCard(p)}); err != nil {
			t.Fatal(err)
		}
	}
	round.Start()
	defer round.finish()
	waitFor(t, "playing state", func() bool { return round.StateNow() == StatePlaying })
	waitFor(t, "a draw", func() bool { return len(round.Snapshot().Drawn) >= 1 })

	res, err := round.Declare(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeLost || res.Payout != 0 {
		t.Fatalf("forfeit declare: got %+v, want lost/0", res)
	}
	rec, ok := history.record("p1")
	if !ok {
		t.Fatal("no settlement record for forfeiting player")
	}
	if rec.Outcome != OutcomeLost || rec.Payout != 0 {
		t.Fatalf("record %+v, want lost/0", rec)
	}
	// the other entrant is still live, the round goes on
	if st := round.StateNow(); st == StateFinished {
		t.Fatal("round finished although an entrant remains")
	}
	// a second declare just returns the settled result
	again, err := round.Declare(ctx, "p1")
	if err != nil || again.Outcome != OutcomeLost {
		t.Fatalf("repeat declare: %+v, %v", again, err)
	}
}

func TestLeaveAbandons(t *testing.T) {
	ledger := newFakeLedger("p1", "p2")
	history := &fakeHistory{}
	round, err := NewRound(testKey(ModeClassic, 50), testConfig(), ledger, history, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, p := range []string{"p1", "p2"} {
		if err := round.Join(ctx, p, []int{joinCard(p)}); err != nil {
			t.Fatal(err)
		}
	}
	round.Start()
	waitFor(t, "playing state", func() bool { return round.StateNow() == StatePlaying })

	res, err := round.Leave(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeAbandoned || res.Payout != 0 {
		t.Fatalf("leave: got %+v, want abandoned/0", res)
	}
	if got := ledger.balance("p1"); got != 950 {
		t.Fatalf("abandon must not refund: balance %v", got)
	}

	// last entrant out stops the draw timers
	if _, err := round.Leave(ctx, "p2"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "finished state", func() bool { return round.StateNow() == StateFinished })
	n := len(round.Snapshot().Drawn)
	time.Sleep(30 * time.Millisecond)
	if after := len(round.Snapshot().Drawn); after != n {
		t.Fatalf("draws continued after everyone left: %d -> %d", n, after)
	}

	// leaving again races nothing and returns the settled result
	again, err := round.Leave(ctx, "p1")
	if err != nil || again.Outcome != OutcomeAbandoned {
		t.Fatalf("repeat leave: %+v, %v", again, err)
	}
}

func TestPoolExhaustionIsHouseWin(t *testing.T) {
	ledger := newFakeLedger("p1", "p2")
	history := &fakeHistory{}
	round, err := NewRound(testKey(ModeMini, 10), testConfig(), ledger, history, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, p := range []string{"p1", "p2"} {
		if err := round.Join(ctx, p, []int{joinCard(p)}); err != nil {
			t.Fatal(err)
		}
	}
	round.Start()

	<-round.Done()
	snap := round.Snapshot()
	if len(snap.Drawn) != 30 {
		t.Fatalf("drew %d numbers, want the full mini pool of 30", len(snap.Drawn))
	}
	for _, p := range []string{"p1", "p2"} {
		rec, ok := history.record(p)
		if !ok {
			t.Fatalf("no record for %s", p)
		}
		if rec.Outcome != OutcomeLost || rec.Payout != 0 {
			t.Fatalf("%s: record %+v, want lost/0", p, rec)
		}
		if len(rec.CalledNumbers) != 30 {
			t.Fatalf("%s: record carries %d called numbers, want 30", p, len(rec.CalledNumbers))
		}
	}
}

func TestVoidRefundsBelowThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWait = 20 * time.Millisecond
	ledger := newFakeLedger("p1")
	history := &fakeHistory{}
	round, err := NewRound(testKey(ModeClassic, 50), cfg, ledger, history, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := round.Join(context.Background(), "p1", []int{1}); err != nil {
		t.Fatal(err)
	}
	round.Start()

	<-round.Done()
	if got := ledger.balance("p1"); got != 1000 {
		t.Fatalf("void must refund the stake: balance %v", got)
	}
	if _, ok := history.record("p1"); ok {
		t.Fatal("voided round wrote a settlement record")
	}
}

// End-to-end: classic mode, bet 50, one card each, two participants. p1 plays
// on auto-daub, so the engine catches up marks after every draw and declares
// the moment a pattern completes. Payout = floor(50*1*2*0.8) = 80.
func TestEndToEndAutoplayWin(t *testing.T) {
	ledger := newFakeLedger("p1", "p2")
	history := &fakeHistory{}
	round, err := NewRound(testKey(ModeClassic, 50), testConfig(), ledger, history, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	round.SeedDraws(rand.New(rand.NewSource(7)))

	ctx := context.Background()
	if err := round.Join(ctx, "p1", []int{7}); err != nil {
		t.Fatal(err)
	}
	if err := round.Join(ctx, "p2", []int{8}); err != nil {
		t.Fatal(err)
	}
	if err := round.SetAutoplay("p1", true); err != nil {
		t.Fatal(err)
	}
	if err := round.SetAutoplay("p2", false); err != nil {
		t.Fatal(err)
	}
	round.Start()

	<-round.Done()
	rec, ok := history.record("p1")
	if !ok {
		t.Fatal("no settlement record for p1")
	}
	if rec.Outcome != OutcomeWon {
		// p2 never declares, so the only other terminal path is exhaustion;
		// either way p1's card must have completed a line well before that
		t.Fatalf("p1 outcome %s, want won", rec.Outcome)
	}
	if rec.Payout != 80 {
		t.Fatalf("payout %d, want 80", rec.Payout)
	}
	if len(rec.CardIDs) != 1 || rec.CardIDs[0] != 7 {
		t.Fatalf("record cards %v, want [7]", rec.CardIDs)
	}
	if got := ledger.balance("p1"); got != 1000-50+80 {
		t.Fatalf("p1 balance %v, want 1030", got)
	}
	if ledger.wins["p1"] != 1 {
		t.Fatalf("p1 wins %d, want 1", ledger.wins["p1"])
	}
	if rec2, ok := history.record("p2"); !ok || rec2.Outcome != OutcomeLost {
		t.Fatalf("p2 record %+v, want lost", rec2)
	}
	if got := ledger.balance("p2"); got != 950 {
		t.Fatalf("p2 balance %v, want 950", got)
	}
}

// joinCard gives each test player a distinct card id.
func joinCard(playerID string) int {
	sum := 0
	for _, r := range playerID {
		sum += int(r)
	}
	return sum%TotalCardsAvailable + 1
}

// slowLedger stretches every balance adjustment, modeling a database that is
// slower than the draw cadence.
type slowLedger struct {
	*fakeLedger
	delay time.Duration
}

func (l *slowLedger) Adjust(ctx context.Context, playerID string, delta float64) error {
	time.Sleep(l.delay)
	return l.fakeLedger.Adjust(ctx, playerID, delta)
}

func TestDrawsStopAtWinningDeclare(t *testing.T) {
	ledger := &slowLedger{fakeLedger: newFakeLedger("p1", "p2"), delay: 30 * time.Millisecond}
	history := &fakeHistory{}
	round, err := NewRound(testKey(ModeClassic, 50), testConfig(), ledger, history, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, p := range []string{"p1", "p2"} {
		if err := round.Join(ctx, p, []int{joinCard(p)}); err != nil {
			t.Fatal(err)
		}
	}
	round.Start()
	defer round.finish()
	waitFor(t, "playing state", func() bool { return round.StateNow() == StatePlaying })
	waitFor(t, "a few draws", func() bool { return len(round.Snapshot().Drawn) >= 2 })

	// complete the card directly so the declare lands at a known instant
	// while the draw ticker is still running
	round.mu.Lock()
	e := round.entrants["p1"]
	card := e.cardIDs[0]
	for n := range e.cards[card].Values() {
		e.marks[card].Add(n)
	}
	round.mu.Unlock()

	res, err := round.Declare(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeWon {
		t.Fatalf("declare on a full card: %+v", res)
	}

	rec, ok := history.record("p1")
	if !ok {
		t.Fatal("no settlement record for winner")
	}
	snap := round.Snapshot()
	if len(snap.Drawn) != len(rec.CalledNumbers) {
		t.Fatalf("drawn list grew during settlement: snapshot has %d numbers, record has %d",
			len(snap.Drawn), len(rec.CalledNumbers))
	}
	time.Sleep(20 * time.Millisecond)
	if n := len(round.Snapshot().Drawn); n != len(snap.Drawn) {
		t.Fatalf("draws continued after the round finished: %d -> %d", len(snap.Drawn), n)
	}
}

func TestSnapshotReportsPerEntrantPotential(t *testing.T) {
	ledger := newFakeLedger("p1", "p2")
	round, err := NewRound(testKey(ModeClassic, 50), testConfig(), ledger, &fakeHistory{}, NewMemoryRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := round.Join(ctx, "p1", []int{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := round.Join(ctx, "p2", []int{3}); err != nil {
		t.Fatal(err)
	}

	// 50 x cards x 2 players x 0.8, floored
	snap := round.Snapshot()
	if got := snap.Entrants["p1"].Potential; got != 160 {
		t.Fatalf("two-card potential = %d, want 160", got)
	}
	if got := snap.Entrants["p2"].Potential; got != 80 {
		t.Fatalf("one-card potential = %d, want 80", got)
	}
	if snap.Pot != 80 {
		t.Fatalf("headline pot = %d, want single-card figure 80", snap.Pot)
	}
}
