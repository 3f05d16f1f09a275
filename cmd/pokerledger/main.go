package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/susu3304/pokerledger/internal/api"
	"github.com/susu3304/pokerledger/internal/bot"
	"github.com/susu3304/pokerledger/internal/config"
	"github.com/susu3304/pokerledger/internal/db"
	"github.com/susu3304/pokerledger/internal/ledger"
	"github.com/susu3304/pokerledger/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info")
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()
	svc := ledger.NewService(store)

	// Discord bot is optional
	if cfg.DiscordToken != "" {
		discordBot, err := bot.New(cfg, svc, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create discord bot")
		}
		if err := discordBot.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start discord bot")
		}
		defer func() {
			if err := discordBot.Stop(); err != nil {
				log.Warn().Err(err).Msg("failed to close discord session")
			}
		}()
	} else {
		log.Info().Msg("DISCORD_TOKEN not set, bot disabled")
	}

	server := api.New(cfg, svc, log).Server()
	go func() {
		log.Info().Str("addr", server.Addr).Msg("API server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("API server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("API server shutdown")
	}
}

// openStore connects to PostgreSQL when DATABASE_URL is set and falls back to
// an in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ledger.Store, func()) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store; data is lost on exit")
		return ledger.NewMemoryStore(), func() {}
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(ctx); err != nil {
		database.Close()
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database ready")
	return database, database.Close
}
