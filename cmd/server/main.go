package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/defeedco/doomscroll/pkg/api"
	"github.com/defeedco/doomscroll/pkg/config"
	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/gallery/providers"
	"github.com/defeedco/doomscroll/pkg/lib/log"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	err := run()
	if err != nil {
		panic(err)
	}
}

func run() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := log.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := initServer(logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

func initServer(logger *zerolog.Logger, config *config.Config) (*api.Server, error) {
	fallback, err := gallery.LoadStaticFallback(config.Gallery.FallbackFile)
	if err != nil {
		return nil, fmt.Errorf("load fallback list: %w", err)
	}

	tiers, err := providers.BuildTiers(&config.Providers, config.Gallery.Policy(), logger)
	if err != nil {
		return nil, fmt.Errorf("build tiers: %w", err)
	}

	newAggregator := func() *gallery.Aggregator {
		return gallery.NewAggregator(tiers, fallback, logger,
			gallery.WithProviderTimeout(config.Gallery.ProviderTimeout),
		)
	}

	sessions := api.NewSessionStore(newAggregator, config.Gallery.PageSize, config.Gallery.SessionTTL, logger)

	return api.NewServer(logger, &config.API, sessions, fallback), nil
}
