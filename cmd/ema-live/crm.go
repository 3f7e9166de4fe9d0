package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koscakluka/ema-live/core/crm"
	"github.com/koscakluka/ema-live/core/crm/server"
	"github.com/koscakluka/ema-live/core/crm/store"
	"github.com/koscakluka/ema-live/internal/config"
	"github.com/spf13/cobra"
)

func newCRMCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crm",
		Short: "Run the CRM backend",
	}
	cmd.AddCommand(newCRMServeCmd(configPath))
	return cmd
}

func newCRMServeCmd(configPath *string) *cobra.Command {
	var addr, storeKind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lead and visit CRM over HTTP",
		Long:  "Starts the CRM HTTP service the assistant's functions call. Leads and visits are kept in memory or in a SQLite file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if storeKind != "" {
				cfg.Server.Store = storeKind
			}
			return serveCRM(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8001)")
	cmd.Flags().StringVar(&storeKind, "store", "", "record store: memory or sqlite")
	return cmd
}

func serveCRM(cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

	repo, closeRepo, err := openStore(cfg.Server)
	if err != nil {
		return err
	}
	defer closeRepo()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, server.StartOpts{
		Service: crm.NewService(repo, crm.WithLogger(logger)),
		Addr:    cfg.Server.Addr,
		Out:     cmd.OutOrStdout(),
		Logger:  logger,
	})
}

func openStore(cfg config.ServerConfig) (crm.Repository, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemory(), func() {}, nil
	case config.StoreSQLite:
		repo, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { repo.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
