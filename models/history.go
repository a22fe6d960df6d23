package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameHistory is one immutable settlement record. Rows are append-only; the
// engine never updates or deletes them.
type GameHistory struct {
	ID            string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string         `gorm:"index;type:uuid" json:"user_id"`
	GameMode      string         `json:"game_mode"`
	CardIDs       datatypes.JSON `json:"card_ids"`
	Stake         int            `json:"stake"`
	Payout        int            `json:"payout"`
	Status        string         `json:"status"` // won | lost | abandoned
	CalledNumbers datatypes.JSON `json:"called_numbers"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}
