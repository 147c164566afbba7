package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/slotbook-api/internal/config"
	"github.com/jwalitptl/slotbook-api/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "slotbook",
		Short:         "Doctor slot booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Console: cfg.Log.Console})
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for the configured database driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg.Database, true)
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			log.Info().Str("driver", cfg.Database.Driver).Msg("migration complete")
			return nil
		},
	}
}
