package models

import "time"

type User struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex" json:"telegram_id"`
	Username   string    `json:"username"`
	Mobile     string    `json:"mobile"`
	Balance    float64   `json:"balance"`
	Wins       int       `json:"wins"`
	Referrals  int       `json:"referrals"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
