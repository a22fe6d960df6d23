package controllers

import (
	"net/http"
	"strconv"

	"github.com/betesebbet/bingo-backend/config"
	"github.com/betesebbet/bingo-backend/services"
	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 20

// ListHistory serves a player's activity feed, most recent first.
func ListHistory(c *gin.Context) {
	playerID := c.Param("player_id")

	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1..100"})
			return
		}
		limit = n
	}

	history := services.NewGormHistory(config.DB)
	records, err := history.ListRecent(c.Request.Context(), playerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, records)
}
