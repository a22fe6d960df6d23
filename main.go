package main

import (
	"net/http"
	"os"
	"time"

	"github.com/betesebbet/bingo-backend/config"
	"github.com/betesebbet/bingo-backend/routes"
	"github.com/betesebbet/bingo-backend/services"
	"github.com/betesebbet/bingo-backend/utils/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupRouter initializes Gin routes and middleware
func setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket arena endpoint, one lobby per stake
	r.GET("/ws/:stake", services.HandleWebSocket)

	return r
}

func main() {
	config.InitEnv()

	db := config.SetupDatabase()

	// Authoritative round lobbies, one per stake
	services.InitLobbyService(db)

	router := setupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	logger.Infof("Bingo arena backend starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
