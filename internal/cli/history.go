package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"arkfeed.dev/arkfeed/internal/history"
	"arkfeed.dev/arkfeed/internal/output"
)

// newHistoryCmd creates the history command
func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		limit  int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, cleanup, err := flags.openContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := rc.History.List(limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			printHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")

	return cmd
}

func printHistory(w io.Writer, records []history.Record) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No runs recorded yet.")
		return
	}

	for _, rec := range records {
		// Pad before coloring so escape codes don't break alignment.
		status := output.ColorStatus(fmt.Sprintf("%-9s", rec.Status))
		line := fmt.Sprintf("%s  %s  %-8s  %6.1fs  ",
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			rec.Trigger,
			rec.Duration().Seconds(),
		)
		switch {
		case rec.Error != "":
			line += fmt.Sprintf("%s: %s", rec.Phase, rec.Error)
		case rec.CommitSHA != "":
			line += fmt.Sprintf("%s %s", short(rec.CommitSHA), rec.Message)
		default:
			line += output.Dim(short(rec.RunID))
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
