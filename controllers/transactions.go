package controllers

import (
	"net/http"
	"time"

	"github.com/betesebbet/bingo-backend/config"
	"github.com/betesebbet/bingo-backend/models"

	"github.com/gin-gonic/gin"
)

type depositRequest struct {
	UserID string  `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// Deposit credits a user's wallet.
func Deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	user.Balance += req.Amount
	if err := tx.Save(&user).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update balance"})
		return
	}

	record := models.Transaction{
		UserID:       user.ID,
		Type:         models.DepositTransaction,
		Amount:       req.Amount,
		BalanceAfter: user.Balance,
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}

	tx.Commit()
	c.JSON(http.StatusCreated, record)
}

type withdrawRequest struct {
	UserID  string  `json:"user_id" binding:"required"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Method  string  `json:"method"`
	Account string  `json:"account"`
}

// Withdraw debits a user's wallet. Withdrawals follow the operator rules:
// a minimum amount and a daily service window.
func Withdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Amount < config.MinWithdrawal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount below minimum withdrawal"})
		return
	}
	hour := time.Now().Hour()
	if hour < config.WithdrawalStartHour || hour >= config.WithdrawalEndHour {
		c.JSON(http.StatusForbidden, gin.H{"error": "Withdrawals are closed at this hour"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.Balance < req.Amount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	user.Balance -= req.Amount
	if err := tx.Save(&user).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update balance"})
		return
	}

	record := models.Transaction{
		UserID:       user.ID,
		Type:         models.WithdrawTransaction,
		Amount:       req.Amount,
		BalanceAfter: user.Balance,
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}

	tx.Commit()
	c.JSON(http.StatusCreated, record)
}
