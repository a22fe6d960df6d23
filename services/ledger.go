package services

import (
	"context"
	"fmt"

	"github.com/betesebbet/bingo-backend/models"
	"gorm.io/gorm"
)

// GormLedger is the account collaborator backed by the users table. Each
// adjustment is a single UPDATE with an expression, so concurrent rounds
// never clobber each other's deltas.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Balance(ctx context.Context, playerID string) (float64, error) {
	var user models.User
	if err := l.db.WithContext(ctx).First(&user, "id = ?", playerID).Error; err != nil {
		return 0, fmt.Errorf("ledger: fetch user %s: %w", playerID, err)
	}
	return user.Balance, nil
}

func (l *GormLedger) Adjust(ctx context.Context, playerID string, delta float64) error {
	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", playerID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("ledger: adjust %s by %v: %w", playerID, delta, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("ledger: adjust %s: user not found", playerID)
	}
	return nil
}

func (l *GormLedger) IncrementWins(ctx context.Context, playerID string) error {
	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", playerID).
		UpdateColumn("wins", gorm.Expr("wins + 1"))
	if res.Error != nil {
		return fmt.Errorf("ledger: increment wins %s: %w", playerID, res.Error)
	}
	return nil
}
