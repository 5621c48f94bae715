// Command seed loads a demo population for local development.
package main

import (
	"os"

	"github.com/hilo-match/hilo/internal/config"
	"github.com/hilo-match/hilo/internal/db"
	"github.com/hilo-match/hilo/internal/logger"
)

func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	if err := db.Seed(database); err != nil {
		log.Error("seeding failed", "err", err)
		os.Exit(1)
	}
	log.Info("seed data loaded")
}
