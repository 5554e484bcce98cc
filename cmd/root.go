package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/summitline/trailprep/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "trailprep",
	Short: "Hiking-trail data preparation pipeline",
	Long:  "Scrapes hiking-trail listings, normalizes their columns into a fixed schema, and geocodes each trail's starting point via a public geocoding service.",
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
