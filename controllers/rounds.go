package controllers

import (
	"net/http"
	"time"

	"github.com/betesebbet/bingo-backend/config"
	"github.com/betesebbet/bingo-backend/game"
	"github.com/betesebbet/bingo-backend/models"
	"github.com/gin-gonic/gin"
)

// ListRounds returns the most recent audit rows across all stakes.
func ListRounds(c *gin.Context) {
	var rounds []models.GameRound
	if err := config.DB.Order("created_at DESC").Limit(50).Find(&rounds).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rounds"})
		return
	}
	c.JSON(http.StatusOK, rounds)
}

// NextRound reports the globally synchronized start instant for the coming
// round window. Every caller inside the same window gets the same answer.
func NextRound(c *gin.Context) {
	now := time.Now()
	start := game.NextRoundStart(now, game.GlobalRoundInterval)
	c.JSON(http.StatusOK, gin.H{
		"start_ms":          start.UnixMilli(),
		"seconds_remaining": game.SecondsRemaining(start, now),
		"min_players":       game.MinPlayersToStart,
	})
}
