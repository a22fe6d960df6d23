package controllers

import (
	"net/http"
	"strconv"

	"github.com/betesebbet/bingo-backend/game"
	"github.com/betesebbet/bingo-backend/services"
	"github.com/gin-gonic/gin"
)

// ListCards serves the card gallery for a mode. Grids are deterministic, so
// the client can verify any card it is dealt against this endpoint.
func ListCards(c *gin.Context) {
	mode, err := game.ParseMode(c.DefaultQuery("mode", string(game.ModeClassic)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cards, err := services.ListCards(mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build deck"})
		return
	}
	c.JSON(http.StatusOK, cards)
}

// GetCard serves a single card grid.
func GetCard(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	mode, err := game.ParseMode(c.DefaultQuery("mode", string(game.ModeClassic)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card, err := services.CardByID(id, mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, card)
}
