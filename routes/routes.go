package routes

import (
	"github.com/betesebbet/bingo-backend/controllers"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// ----------------------
	// User routes
	// ----------------------
	api.POST("/users", controllers.RegisterUser)
	api.GET("/users/:telegram_id", controllers.GetUser)

	// ----------------------
	// Card gallery
	// ----------------------
	api.GET("/cards", controllers.ListCards)
	api.GET("/cards/:id", controllers.GetCard)

	// ----------------------
	// Round routes
	// ----------------------
	api.GET("/rounds", controllers.ListRounds)
	api.GET("/rounds/next", controllers.NextRound)

	// ----------------------
	// Activity feed
	// ----------------------
	api.GET("/history/:player_id", controllers.ListHistory)

	// ----------------------
	// Wallet routes
	// ----------------------
	api.POST("/deposit", controllers.Deposit)
	api.POST("/withdraw", controllers.Withdraw)
}
