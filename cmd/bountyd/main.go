// Package main is the entry point for the bounty tracker daemon.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bounty-tracker/internal/app"
	"bounty-tracker/internal/config"
)

const healthInterval = time.Minute

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	configureLogging(cfg.Log)

	log.Info().Msg("Configuration loaded successfully")

	// Cancelled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := application.Start(ctx); err != nil {
		application.Stop()
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	log.Info().Msg("Bounty tracker is running")

	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := application.HealthCheck(ctx); err != nil {
				log.Warn().Err(err).Msg("Health check failed")
			}
		case <-ctx.Done():
			log.Info().Msg("Received shutdown signal")
			application.Stop()
			log.Info().Msg("Bounty tracker stopped gracefully")
			return
		}
	}
}

func configureLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.Pretty {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
