package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/jobscout/internal/app"
	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/sources/seed"
)

var sourcesFormat string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage polled sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every source",
	Args:  cobra.NoArgs,
	RunE:  sourcesListAction,
}

var sourcesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Add or refresh sources from a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE:  sourcesImportAction,
}

func init() {
	sourcesListCmd.Flags().StringVar(&sourcesFormat, "format", "terminal", "output format: terminal, json")
	sourcesCmd.AddCommand(sourcesListCmd, sourcesImportCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func sourcesListAction(cmd *cobra.Command, _ []string) error {
	cfg, log := setup()
	defer func() { _ = log.Sync() }()

	st, err := app.OpenStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	list, err := st.ListSources(cmd.Context())
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	switch sourcesFormat {
	case "json":
		if list == nil {
			list = []domain.Source{}
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(list)
	case "terminal", "":
		return printSources(cmd.OutOrStdout(), list)
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", sourcesFormat)
	}
}

func printSources(w io.Writer, list []domain.Source) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No sources yet. Add one with 'jobscout sources import' or the web app.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tNAME\tPROVIDER\tENABLED")
	for _, s := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", s.ID, s.SourceID, s.Name, s.Provider, s.Enabled)
	}
	return tw.Flush()
}

func sourcesImportAction(cmd *cobra.Command, args []string) error {
	f, err := seed.NewLoader(args[0]).Load()
	if err != nil {
		return err
	}

	cfg, log := setup()
	defer func() { _ = log.Sync() }()

	st, err := app.OpenStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	res, err := seed.Import(cmd.Context(), st, f, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d saved, %d toggled, %d invalid\n", res.Saved, res.Toggled, res.Invalid)
	return nil
}
