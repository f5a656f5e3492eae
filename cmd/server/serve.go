package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lumen/pkg/characters"
	"lumen/pkg/events"
	"lumen/pkg/metrics"
	"lumen/pkg/server"
	"lumen/pkg/shared/config"
	"lumen/pkg/storage"
	"lumen/pkg/storage/postgres"
	"lumen/pkg/storage/s3store"
)

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = addr
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("storage") {
		cfg.Storage = storageKind
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defs := characters.NewRegistry()
	spawns, err := loadDefinitions(cfg.Definitions, defs)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
	}()
	logger.Info("storage ready", "backend", cfg.Storage)

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		publisher = &events.NoopPublisher{}
		logger.Info("events disabled (LUMEN_NATS_URL not set)")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
	}()

	gs, err := server.NewGameServer(server.Options{
		Config:      cfg,
		Store:       store,
		Definitions: defs,
		Spawns:      spawns,
		Publisher:   publisher,
		Metrics:     metrics.New(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	logger.Info("lumen server started", "addr", cfg.Addr, "tick", cfg.TickInterval.String())
	if err := gs.Run(ctx); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func loadDefinitions(path string, defs *characters.Registry) ([]characters.Spawn, error) {
	if path == "" {
		return characters.DefaultSpawns(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := characters.LoadConfiguration(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs.Apply(cfg)
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		return postgres.New(cfg.DatabaseURL)
	case config.StorageS3:
		return s3store.New(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3Endpoint)
	case config.StorageFile:
		return storage.NewFileStore(cfg.DataDir)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}
