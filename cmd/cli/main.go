package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/defeedco/doomscroll/pkg/config"
	"github.com/defeedco/doomscroll/pkg/gallery"
	"github.com/defeedco/doomscroll/pkg/gallery/providers"
	"github.com/defeedco/doomscroll/pkg/lib/log"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	tierHeader     = color.New(color.FgCyan, color.Bold)
	fallbackHeader = color.New(color.FgYellow, color.Bold)
	errorText      = color.New(color.FgRed, color.Bold)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "doomscroll",
		Short:         "Scroll through Doom images from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load batches through the tiered aggregator",
		Long:  "Load batches the way the gallery does and print one image URL per line. Logs go to stderr.",
		RunE:  runLoad,
	}
	loadCmd.Flags().IntP("batches", "b", 1, "Number of batches to load")
	loadCmd.Flags().IntP("count", "c", 0, "Images per batch (defaults to GALLERY_PAGE_SIZE)")

	fallbackCmd := &cobra.Command{
		Use:   "fallback",
		Short: "Print a window of the static fallback list",
		RunE:  runFallback,
	}
	fallbackCmd.Flags().IntP("page", "p", 0, "Page index")
	fallbackCmd.Flags().IntP("count", "c", 0, "Images per page (defaults to GALLERY_PAGE_SIZE)")

	rootCmd.AddCommand(loadCmd, fallbackCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		errorText.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zerolog.Logger, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := log.NewLoggerWithWriter(&cfg.Log, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}

func countFlag(cmd *cobra.Command, cfg *config.Config) (int, error) {
	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		return 0, err
	}
	if count == 0 {
		count = cfg.Gallery.PageSize
	}
	if count < 0 {
		return 0, fmt.Errorf("count must be positive, got %d", count)
	}
	return count, nil
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	batches, err := cmd.Flags().GetInt("batches")
	if err != nil {
		return err
	}
	count, err := countFlag(cmd, cfg)
	if err != nil {
		return err
	}

	fallback, err := gallery.LoadStaticFallback(cfg.Gallery.FallbackFile)
	if err != nil {
		return fmt.Errorf("load fallback list: %w", err)
	}

	tiers, err := providers.BuildTiers(&cfg.Providers, cfg.Gallery.Policy(), logger)
	if err != nil {
		return fmt.Errorf("build tiers: %w", err)
	}

	aggregator := gallery.NewAggregator(tiers, fallback, logger,
		gallery.WithProviderTimeout(cfg.Gallery.ProviderTimeout),
	)
	paginator := gallery.NewPaginator(aggregator, count, logger)
	sink := gallery.NewWriterSink(cmd.OutOrStdout())

	for i := 0; i < batches; i++ {
		batch, err := paginator.LoadMore(cmd.Context(), sink)
		if err != nil {
			return fmt.Errorf("load batch %d: %w", i, err)
		}

		header := tierHeader
		source := batch.Tier
		if batch.Fallback {
			header = fallbackHeader
			source = "fallback"
		}
		header.Fprintf(cmd.ErrOrStderr(), "# batch %d, page %d: %d images from %s\n", i, batch.Page, len(batch.Images), source)

		if batch.Exhausted {
			break
		}
	}

	return nil
}

func runFallback(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	page, err := cmd.Flags().GetInt("page")
	if err != nil {
		return err
	}
	count, err := countFlag(cmd, cfg)
	if err != nil {
		return err
	}

	fallback, err := gallery.LoadStaticFallback(cfg.Gallery.FallbackFile)
	if err != nil {
		return fmt.Errorf("load fallback list: %w", err)
	}

	return gallery.NewWriterSink(cmd.OutOrStdout()).Render(cmd.Context(), fallback.Window(page, count))
}
