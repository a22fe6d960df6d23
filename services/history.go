package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/betesebbet/bingo-backend/game"
	"github.com/betesebbet/bingo-backend/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormHistory is the match-history collaborator: append-only settlement rows
// plus an in-process push channel per player for the live activity feed.
type GormHistory struct {
	db *gorm.DB

	mu   sync.Mutex
	subs map[string]map[chan game.Record]struct{}
}

func NewGormHistory(db *gorm.DB) *GormHistory {
	return &GormHistory{
		db:   db,
		subs: make(map[string]map[chan game.Record]struct{}),
	}
}

func (h *GormHistory) Append(ctx context.Context, rec game.Record) error {
	cardIDs, err := json.Marshal(rec.CardIDs)
	if err != nil {
		return fmt.Errorf("history: marshal card ids: %w", err)
	}
	called, err := json.Marshal(rec.CalledNumbers)
	if err != nil {
		return fmt.Errorf("history: marshal called numbers: %w", err)
	}

	row := models.GameHistory{
		ID:            rec.ID,
		UserID:        rec.PlayerID,
		GameMode:      string(rec.Mode),
		CardIDs:       datatypes.JSON(cardIDs),
		Stake:         rec.Stake,
		Payout:        rec.Payout,
		Status:        string(rec.Outcome),
		CalledNumbers: datatypes.JSON(called),
		CreatedAt:     rec.CreatedAt,
	}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("history: append: %w", err)
	}

	h.push(rec)
	return nil
}

func (h *GormHistory) ListRecent(ctx context.Context, playerID string, limit int) ([]game.Record, error) {
	var rows []models.GameHistory
	err := h.db.WithContext(ctx).
		Where("user_id = ?", playerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("history: list recent: %w", err)
	}

	out := make([]game.Record, 0, len(rows))
	for _, row := range rows {
		rec := game.Record{
			ID:        row.ID,
			PlayerID:  row.UserID,
			Mode:      game.Mode(row.GameMode),
			Stake:     row.Stake,
			Payout:    row.Payout,
			Outcome:   game.Outcome(row.Status),
			CreatedAt: row.CreatedAt,
		}
		if err := json.Unmarshal(row.CardIDs, &rec.CardIDs); err != nil {
			log.Printf("[History] corrupt card ids on record %s: %v", row.ID, err)
		}
		if err := json.Unmarshal(row.CalledNumbers, &rec.CalledNumbers); err != nil {
			log.Printf("[History] corrupt called numbers on record %s: %v", row.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Subscribe delivers every record appended for the player until cancel is
// called. Slow consumers drop records rather than block settlement.
func (h *GormHistory) Subscribe(playerID string) (<-chan game.Record, func()) {
	ch := make(chan game.Record, 8)

	h.mu.Lock()
	set, ok := h.subs[playerID]
	if !ok {
		set = make(map[chan game.Record]struct{})
		h.subs[playerID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[playerID]; ok {
			if _, live := set[ch]; live {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, playerID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *GormHistory) push(rec game.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[rec.PlayerID] {
		select {
		case ch <- rec:
		default:
			log.Printf("[History] dropping feed record for %s", rec.PlayerID)
		}
	}
}
