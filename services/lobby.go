package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/betesebbet/bingo-backend/config"
	"github.com/betesebbet/bingo-backend/game"
	"github.com/betesebbet/bingo-backend/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAlreadyInRound rejects a join while the player still holds live stake in
// another round. Stacking rounds would strand the first round's stake with no
// way left to mark, declare, or leave it.
var ErrAlreadyInRound = errors.New("services: player already has a live round")

// disconnectGrace is how long a player's round membership survives a dropped
// socket. A reconnect inside the window picks the round back up; only after
// it expires does the drop count as an abandon.
var disconnectGrace = 10 * time.Second

// historyStore is what the lobby needs from match history: the round engine's
// append/list contract plus the live per-player feed.
type historyStore interface {
	game.History
	Subscribe(playerID string) (<-chan game.Record, func())
}

// Lobby fans one stake level's WebSocket clients in and out of the
// authoritative rounds for that stake. Rounds themselves live in the game
// package; the lobby only routes intents and broadcasts snapshots.
type Lobby struct {
	Stake    int
	cfg      game.Config
	ledger   game.Ledger
	history  historyStore
	registry game.Registry
	db       *gorm.DB

	mu          sync.RWMutex
	clients     map[string]*Client
	rounds      map[game.RoundKey]*game.Round
	memberships map[string]game.RoundKey
	audits      map[game.RoundKey]uint       // round key -> GameRound row id
	lastState   map[game.RoundKey]game.State // last status written to the audit row
}

var (
	Lobbies   = make(map[int]*Lobby)
	LobbiesMu sync.Mutex
)

// InitLobbyService builds one lobby per configured stake. The presence
// registry is shared: Redis when REDIS_URL is set, in-process otherwise.
func InitLobbyService(db *gorm.DB) {
	var registry game.Registry
	if addr := config.RedisURL(); addr != "" {
		redisReg, err := NewRedisRegistry(addr)
		if err != nil {
			log.Fatalf("[FATAL] presence registry: %v", err)
		}
		registry = redisReg
		log.Printf("[Init] Using Redis presence registry at %s", addr)
	} else {
		registry = game.NewMemoryRegistry()
		log.Println("[Init] Using in-process presence registry")
	}

	cfg := game.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] game config: %v", err)
	}

	ledger := NewGormLedger(db)
	history := NewGormHistory(db)

	LobbiesMu.Lock()
	for _, stake := range config.Stakes {
		Lobbies[stake] = &Lobby{
			Stake:       stake,
			cfg:         cfg,
			ledger:      ledger,
			history:     history,
			registry:    registry,
			db:          db,
			clients:     make(map[string]*Client),
			rounds:      make(map[game.RoundKey]*game.Round),
			memberships: make(map[string]game.RoundKey),
			audits:      make(map[game.RoundKey]uint),
			lastState:   make(map[game.RoundKey]game.State),
		}
	}
	LobbiesMu.Unlock()
	log.Printf("[Init] Started %d lobbies", len(config.Stakes))
}

// -------------------- Client management --------------------

func (l *Lobby) addClient(c *Client) {
	l.mu.Lock()
	if old, ok := l.clients[c.playerID]; ok {
		old.Close()
	}
	l.clients[c.playerID] = c
	l.mu.Unlock()

	go c.writePump()
	go c.readPump()
	go l.forwardHistory(c)

	log.Printf("[Lobby %d] player %s connected (total=%d)", l.Stake, c.playerID, l.clientCount())
}

// removeClient tears down one connection. Only the connection currently
// registered for the player deregisters them; a connection that was replaced
// by a reconnect closes without touching the player's round. The membership
// itself survives disconnectGrace, so a network blip is not an abandon.
func (l *Lobby) removeClient(c *Client) {
	c.Close()

	l.mu.Lock()
	if l.clients[c.playerID] != c {
		l.mu.Unlock()
		return
	}
	delete(l.clients, c.playerID)
	l.mu.Unlock()
	log.Printf("[Lobby %d] player %s disconnected", l.Stake, c.playerID)

	go func() {
		time.Sleep(disconnectGrace)
		l.mu.RLock()
		_, reconnected := l.clients[c.playerID]
		l.mu.RUnlock()
		if reconnected {
			return
		}
		l.LeaveRound(context.Background(), c.playerID)
	}()
}

func (l *Lobby) clientCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

// forwardHistory pushes newly settled records for this player down their
// socket until it closes.
func (l *Lobby) forwardHistory(c *Client) {
	feed, cancel := l.history.Subscribe(c.playerID)
	defer cancel()
	for {
		select {
		case <-c.closed:
			return
		case rec, ok := <-feed:
			if !ok {
				return
			}
			c.sendJSON(map[string]any{"type": "history", "record": rec})
		}
	}
}

// -------------------- Round routing --------------------

// JoinRound admits the player into the pending round for the mode: the
// oldest round still in matchmaking if one is waiting on its player
// threshold, otherwise a fresh round at the next clock boundary. A player
// with unsettled stake in a prior round is rejected until that round
// resolves them.
func (l *Lobby) JoinRound(ctx context.Context, playerID string, mode game.Mode, cardIDs []int) (game.Snapshot, error) {
	l.mu.RLock()
	key, member := l.memberships[playerID]
	prior := l.rounds[key]
	l.mu.RUnlock()
	if member && prior != nil && prior.StateNow() != game.StateFinished {
		if es, in := prior.Snapshot().Entrants[playerID]; in && !es.Settled {
			return game.Snapshot{}, ErrAlreadyInRound
		}
	}

	round := l.pendingRound(mode)
	if err := round.Join(ctx, playerID, cardIDs); err != nil {
		return game.Snapshot{}, err
	}

	l.mu.Lock()
	l.memberships[playerID] = round.Key()
	l.mu.Unlock()
	return round.Snapshot(), nil
}

func (l *Lobby) pendingRound(mode game.Mode) *game.Round {
	l.mu.Lock()
	defer l.mu.Unlock()

	var keys []game.RoundKey
	for key := range l.rounds {
		if key.Mode == mode {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].StartMS < keys[j].StartMS })
	for _, key := range keys {
		if l.rounds[key].StateNow() == game.StateMatchmaking {
			return l.rounds[key]
		}
	}

	start := game.NextRoundStart(time.Now(), l.cfg.RoundInterval)
	key := game.RoundKey{Mode: mode, Stake: l.Stake, StartMS: start.UnixMilli()}
	round, err := game.NewRound(key, l.cfg, l.ledger, l.history, l.registry, l.broadcast)
	if err != nil {
		// config was validated at init; a failure here means a programming error
		log.Fatalf("[Lobby %d] round construction: %v", l.Stake, err)
	}
	l.rounds[key] = round

	go l.openAudit(key)
	round.Start()
	go l.watch(round)
	log.Printf("[Lobby %d] opened round %s", l.Stake, key)
	return round
}

func (l *Lobby) playerRound(playerID string) (*game.Round, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	key, ok := l.memberships[playerID]
	if !ok {
		return nil, false
	}
	round, ok := l.rounds[key]
	return round, ok
}

// Mark routes a manual daub.
func (l *Lobby) Mark(playerID string, cardID, number int) error {
	round, ok := l.playerRound(playerID)
	if !ok {
		return game.ErrNotEntrant
	}
	return round.Mark(playerID, cardID, number)
}

// SetAutoplay routes the auto-daub toggle.
func (l *Lobby) SetAutoplay(playerID string, enabled bool) error {
	round, ok := l.playerRound(playerID)
	if !ok {
		return game.ErrNotEntrant
	}
	return round.SetAutoplay(playerID, enabled)
}

// DeclareBingo routes a bingo call and reports the settled result back.
func (l *Lobby) DeclareBingo(ctx context.Context, playerID string) (game.Result, error) {
	round, ok := l.playerRound(playerID)
	if !ok {
		return game.Result{}, game.ErrNotEntrant
	}
	return round.Declare(ctx, playerID)
}

// LeaveRound abandons the player's current round, if any.
func (l *Lobby) LeaveRound(ctx context.Context, playerID string) (game.Result, error) {
	round, ok := l.playerRound(playerID)
	if !ok {
		return game.Result{}, game.ErrNotEntrant
	}
	res, err := round.Leave(ctx, playerID)
	if err == nil {
		l.mu.Lock()
		delete(l.memberships, playerID)
		l.mu.Unlock()
	}
	return res, err
}

// watch finalizes the audit row once the round ends and retires the round
// after a grace period for late snapshot reads.
func (l *Lobby) watch(round *game.Round) {
	<-round.Done()
	key := round.Key()
	l.closeAudit(key, round.Snapshot())

	l.mu.Lock()
	for playerID, member := range l.memberships {
		if member == key {
			delete(l.memberships, playerID)
		}
	}
	l.mu.Unlock()

	time.Sleep(30 * time.Second)
	l.mu.Lock()
	delete(l.rounds, key)
	delete(l.audits, key)
	delete(l.lastState, key)
	l.mu.Unlock()
}

// -------------------- Broadcast --------------------

// broadcast pushes a round snapshot to every connected client in the lobby
// and keeps the audit row's status column in step with the round state.
func (l *Lobby) broadcast(snap game.Snapshot) {
	l.mu.RLock()
	clients := make([]*Client, 0, len(l.clients))
	for _, c := range l.clients {
		clients = append(clients, c)
	}
	l.mu.RUnlock()

	msg := map[string]any{"type": "round_state", "round": snap}
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Lobby %d] marshal snapshot: %v", l.Stake, err)
		return
	}
	for _, c := range clients {
		c.send(b)
	}

	l.trackState(snap)
}

func (l *Lobby) trackState(snap game.Snapshot) {
	l.mu.Lock()
	prev := l.lastState[snap.Key]
	if prev == snap.State {
		l.mu.Unlock()
		return
	}
	l.lastState[snap.Key] = snap.State
	rowID, ok := l.audits[snap.Key]
	l.mu.Unlock()

	if !ok || snap.State != game.StatePlaying {
		return
	}
	if err := l.db.Model(&models.GameRound{}).Where("id = ?", rowID).
		Updates(map[string]any{"status": string(snap.State), "participants": snap.Participants}).Error; err != nil {
		log.Printf("[Lobby %d] audit update %s: %v", l.Stake, snap.Key, err)
	}
}

// -------------------- Audit rows --------------------

func (l *Lobby) openAudit(key game.RoundKey) {
	row := models.GameRound{
		Mode:        string(key.Mode),
		Stake:       key.Stake,
		Status:      string(game.StateMatchmaking),
		StartMS:     key.StartMS,
		NumbersJSON: datatypes.JSON([]byte("[]")),
		StartTime:   time.UnixMilli(key.StartMS),
	}
	if err := l.db.Create(&row).Error; err != nil {
		log.Printf("[Lobby %d] audit create %s: %v", l.Stake, key, err)
		return
	}
	l.mu.Lock()
	l.audits[key] = row.ID
	l.mu.Unlock()
}

func (l *Lobby) closeAudit(key game.RoundKey, snap game.Snapshot) {
	l.mu.RLock()
	rowID, ok := l.audits[key]
	l.mu.RUnlock()
	if !ok {
		return
	}

	numbers, err := json.Marshal(snap.Drawn)
	if err != nil {
		numbers = []byte("[]")
	}
	updates := map[string]any{
		"status":       string(game.StateFinished),
		"participants": snap.Participants,
		"numbers_json": datatypes.JSON(numbers),
		"end_time":     time.Now(),
	}
	if err := l.db.Model(&models.GameRound{}).Where("id = ?", rowID).Updates(updates).Error; err != nil {
		log.Printf("[Lobby %d] audit close %s: %v", l.Stake, key, err)
	}
}
