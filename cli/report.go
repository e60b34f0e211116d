package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	reportFrom string
	reportTo   string
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Load an export and print the summary in the terminal",
	Long: `Load an export, replace the Eventos table and print the metric tiles,
distinct events, per-user counts and hour-of-day histogram.

Examples:
  eventdash report eventos.csv
  eventdash report eventos.csv --from 2024-01-01 --to 2024-01-31`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "first day of the range (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "last day of the range, inclusive (YYYY-MM-DD)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	from, err := parseDateFlag(reportFrom, a.location)
	if err != nil {
		return err
	}
	to, err := parseDateFlag(reportTo, a.location)
	if err != nil {
		return err
	}

	session, err := a.loadFile(ctx, args[0])
	if err != nil {
		return err
	}
	ds := session.Current()

	// Read back from the store so the report reflects what was persisted.
	stored, err := a.store.FetchAll(ctx)
	if err != nil {
		a.logger.Error("Failed to fetch events from DB for the report: %v", err)
	} else {
		for i := range stored {
			stored[i].Timestamp = stored[i].Timestamp.In(a.location)
		}
		ds.Events = stored
	}

	if len(ds.Events) == 0 {
		a.logger.Warn("All rows were dropped during normalization")
	}

	a.insights.Print(os.Stdout, a.insights.Generate(ds, from, to))
	return nil
}
