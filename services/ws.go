package services

import (
	"log"
	"net/http"
	"strconv"

	"github.com/betesebbet/bingo-backend/config"
	"github.com/betesebbet/bingo-backend/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWebSocket attaches a player to the lobby for the requested stake.
// The player id must belong to a registered user; the socket then carries
// round snapshots down and intents up.
func HandleWebSocket(c *gin.Context) {
	stake, _ := strconv.Atoi(c.Param("stake"))
	LobbiesMu.Lock()
	lobby, ok := Lobbies[stake]
	LobbiesMu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "stake not supported"})
		return
	}

	playerID := c.Query("player")
	if playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing player query param"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", playerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	client := newClient(user.ID, conn, lobby)
	log.Printf("[WS] New client: player=%s lobby=%d", user.ID, lobby.Stake)
	lobby.addClient(client)
}
