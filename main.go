// main.go
//
// Entry point for the Pano server.
// Startup order:
//   - .env, log level, configuration
//   - country table and puzzle catalog (fatal when invalid)
//   - database + migrations, telemetry sink, session store pruning
//   - HTTP server, stopped gracefully on SIGINT/SIGTERM

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pano/internal/account"
	"github.com/robalobadob/pano/internal/catalog"
	"github.com/robalobadob/pano/internal/config"
	"github.com/robalobadob/pano/internal/countries"
	"github.com/robalobadob/pano/internal/daily"
	"github.com/robalobadob/pano/internal/database"
	"github.com/robalobadob/pano/internal/httpserver"
	"github.com/robalobadob/pano/internal/store"
	"github.com/robalobadob/pano/internal/telemetry"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	table, err := countries.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load country table")
	}
	cat, err := catalog.Init(cfg.PuzzlesDir, table)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.PuzzlesDir).Msg("failed to load puzzles")
	}
	log.Info().Int("puzzles", cat.Len()).Int("countries", table.Len()).Msg("catalog loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.DatabaseType).Msg("failed to open database")
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	sink := telemetry.NewSink(telemetry.NewDBWriter(db), cfg.TelemetryBuffer)
	sessions := store.NewMemoryStore()
	go store.Run(ctx, sessions, cfg.SessionIdleTTL, 0)

	srv := httpserver.New(httpserver.Deps{
		Config:    cfg,
		Sessions:  sessions,
		Catalog:   cat,
		Countries: table,
		Ledger:    daily.NewStore(db),
		Accounts:  account.NewService(db),
		Sink:      sink,
	})
	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("db", cfg.DatabaseType).Msg("starting pano server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Close(closeCtx); err != nil {
		log.Warn().Err(err).Int64("dropped", sink.Dropped()).Msg("telemetry backlog not flushed")
	}
	log.Info().Int64("events", sink.Written()).Msg("stopped")
}
