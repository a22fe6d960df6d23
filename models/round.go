package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameRound is the audit row for one authoritative round: who it was keyed
// for, when it ran and every number it called, in order.
type GameRound struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Mode         string         `json:"mode"` // classic | mini
	Stake        int            `json:"stake"`
	Status       string         `json:"status"` // matchmaking | playing | finished
	StartMS      int64          `gorm:"index" json:"start_ms"`
	Participants int            `json:"participants"`
	NumbersJSON  datatypes.JSON `json:"numbers_drawn"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
