package main

import (
	"net/http"

	"github.com/joho/godotenv"

	"barback/b/internal/api"
	"barback/b/internal/config"
	"barback/b/internal/database"
	"barback/b/internal/logger"
	"barback/b/internal/migrations"
	"barback/b/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New()

	db := database.Connect(cfg.DatabaseDSN, log)
	defer db.Close()

	migrations.Run(db, log)
	seed.LoadProducts(db, "assets/products.csv", log)

	handler := api.New(db, cfg.Secret, log)

	log.Infof("BarBack back-office server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
