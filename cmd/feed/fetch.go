package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"subscanFeed/internal/chain"
	"subscanFeed/internal/config"
	"subscanFeed/internal/fetcher"
	"subscanFeed/internal/model"
	"subscanFeed/internal/storage"
	"subscanFeed/internal/storage/postgres"
	"subscanFeed/internal/subscan"
)

const flushSize = 100

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Network == "" {
		return fmt.Errorf("network is required")
	}
	if cfg.Module == "" || cfg.Event == "" {
		return fmt.Errorf("module and event are required")
	}
	if !cfg.ExplorerDisabled() {
		if cfg.APIKey == "" {
			return fmt.Errorf("api key is required")
		}
		if cfg.RPCURL == "" {
			return fmt.Errorf("rpc url is required")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var heightSource fetcher.HeightSource
	if !cfg.ExplorerDisabled() {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		heightSource = chainClient
	}

	var sink storage.Storage
	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sink = store
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	explorer := subscan.NewClient(cfg.Network, cfg.APIKey, nil, logger)

	feed := fetcher.New(fetcher.Config{
		PageSize:  cfg.PageSize,
		RangeSize: cfg.RangeSize,
		RateDelay: cfg.RateDelay,
		Disabled:  cfg.ExplorerDisabled(),
	}, explorer, heightSource, logger)

	logger.Info("fetch start",
		zap.String("network", cfg.Network),
		zap.String("module", cfg.Module),
		zap.String("event", cfg.Event),
		zap.Uint64("from", cfg.FromBlock),
		zap.Int("page_size", cfg.PageSize),
		zap.Uint64("range_size", cfg.RangeSize),
		zap.Duration("rate_delay", cfg.RateDelay),
	)

	total := 0
	batch := make([]model.NormalizedEvent, 0, flushSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.PutEventBatch(ctx, batch); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for event, err := range feed.Stream(ctx, cfg.Module, cfg.Event, cfg.FromBlock, nil) {
		if err != nil {
			return err
		}
		batch = append(batch, event)
		if len(batch) >= flushSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("fetch complete", zap.Int("events", total))
	return nil
}
