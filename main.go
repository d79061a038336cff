package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/daile269/zcaro-online/internal/config"
	"github.com/daile269/zcaro-online/internal/directory"
	"github.com/daile269/zcaro-online/internal/httpserver"
	"github.com/daile269/zcaro-online/internal/rating"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	cfg := config.Load()

	db, err := openDB(cfg.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ratings := rating.NewSQLStore(db)
	updater := rating.NewUpdater(ratings)
	hub := httpserver.NewHub()
	dir := directory.New(cfg, updater, directory.NewSQLArchiver(db), hub)

	// Periodic matchmaking sweep: expands tolerance windows over time
	// even when no new enqueue arrives.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dir.RunSweeper(ctx)

	srv := httpserver.New(cfg, dir, hub, db, ratings)
	log.Info().Str("port", cfg.Port).Int("board", cfg.BoardSize).Msg("starting zcaro-online")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
