package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridwatch/nemsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nemsync",
	Short: "Electricity market data ingestion and aggregation",
	Long:  "Polls the NEM data portal for dispatch, price, adequacy and bid publications, stores them idempotently, and serves multi-resolution queries and daily market metrics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
