package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/config"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/logging"
	"github.com/sandeepyadav08/IIM-Admission-Portal/internal/store/postgres"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if err := postgres.Migrate(cfg.DatabaseURL, *direction); err != nil {
		logger.Error("migrate", "direction", *direction, "err", err)
		os.Exit(1)
	}
	logger.Info("migrations complete", "direction", *direction)
}
