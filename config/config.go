package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Wallet rules carried over from the operator's promotion guide. These gate
// the thin wallet endpoints, not the round engine itself.
const (
	MinWithdrawal       = 100.0
	WithdrawalStartHour = 3  // 03:00
	WithdrawalEndHour   = 18 // 18:00
)

// Stakes lists the bet amounts the arena offers a lobby for.
var Stakes = []int{10, 20, 50, 100}

// InitEnv loads .env and validates required variables.
func InitEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	if os.Getenv("DATABASE_URL") == "" {
		log.Fatal("[FATAL] DATABASE_URL is required in .env or environment")
	}
}

// RedisURL returns the optional shared presence store address. Empty means
// the in-process registry is used.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}
