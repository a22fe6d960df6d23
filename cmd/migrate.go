package main

import (
	"log"

	"github.com/betesebbet/bingo-backend/config"
)

func main() {
	config.InitEnv()
	db := config.SetupDatabase() // connects + migrates
	_ = db
	log.Println("Database migration completed successfully")
}
