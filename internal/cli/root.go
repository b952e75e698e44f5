// Package cli provides the jobscout command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/jobscout/internal/config"
	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Collect job posts from groups and feeds",
	Long: "jobscout polls Facebook groups and RSS feeds, keeps the posts that match " +
		"your keywords, stores each one exactly once and pushes new ones to Telegram.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads the configuration from the environment and builds the logger.
func setup() (*config.Config, logger.Logger) {
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog)
}
