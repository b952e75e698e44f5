package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/jobscout/internal/app"
	"github.com/MrSnakeDoc/jobscout/internal/scheduler"
)

var pollFormat string

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run one polling cycle and exit",
	RunE:  pollAction,
}

func init() {
	pollCmd.Flags().StringVar(&pollFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(pollCmd)
}

func pollAction(cmd *cobra.Command, _ []string) error {
	if pollFormat != "terminal" && pollFormat != "json" {
		return fmt.Errorf("unknown format %q (want terminal or json)", pollFormat)
	}

	cfg, log := setup()
	defer func() { _ = log.Sync() }()

	a, err := app.New(cmd.Context(), cfg, log, app.Options{Scheduler: true})
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.PollOnce(cmd.Context())
	if pollFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
	} else {
		printReport(cmd, report)
	}
	return err
}

func printReport(cmd *cobra.Command, r scheduler.CycleReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sources:     %d (%d failed)\n", r.Sources, r.Failed)
	fmt.Fprintf(out, "candidates:  %d (%d matched keywords)\n", r.Candidates, r.Accepted)
	fmt.Fprintf(out, "stored:      %d new, %d duplicates\n", r.Inserted, r.Duplicates)
	if r.SubmitErrors > 0 {
		fmt.Fprintf(out, "errors:      %d submissions failed\n", r.SubmitErrors)
	}
	if r.LeaseSkipped {
		fmt.Fprintln(out, "skipped:     another instance holds the polling lease")
	}
	fmt.Fprintf(out, "duration:    %s\n", r.Duration().Round(time.Millisecond))
}
