package main

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/modchat/modchat/internal/config"
	"github.com/modchat/modchat/internal/repository/postgres"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Database.Enabled() {
		panic("DATABASE_URL is not set")
	}

	fmt.Println("Applying migrations...")

	if err := postgres.RunMigrations(cfg.Database.URL, "file://migrations"); err != nil {
		panic(fmt.Sprintf("Failed to run migrations: %v", err))
	}

	fmt.Println("Migrations applied successfully")
}
