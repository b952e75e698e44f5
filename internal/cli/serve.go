package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/jobscout/internal/app"
)

var (
	serveNoAPI       bool
	serveNoScheduler bool
	serveNoBot       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the poller, the API and the Telegram bot",
	RunE:  serveAction,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoAPI, "no-api", false, "do not serve the HTTP API")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "do not poll sources")
	serveCmd.Flags().BoolVar(&serveNoBot, "no-bot", false, "do not start the Telegram bot")
	rootCmd.AddCommand(serveCmd)
}

func serveAction(cmd *cobra.Command, _ []string) error {
	opts := app.Options{API: !serveNoAPI, Scheduler: !serveNoScheduler, Bot: !serveNoBot}
	if !opts.API && !opts.Scheduler && !opts.Bot {
		return errors.New("nothing to run: every component is disabled")
	}

	cfg, log := setup()
	defer func() { _ = log.Sync() }()

	a, err := app.New(cmd.Context(), cfg, log, opts)
	if err != nil {
		return err
	}
	return a.Run(cmd.Context())
}
