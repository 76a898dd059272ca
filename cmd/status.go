package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/dlog/internal/stats"
	"github.com/Tiliavir/dlog/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running entry or today's total",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	t := now()
	out := cmd.OutOrStdout()
	f := app.formatter(out)

	last, err := app.Repo.Last()
	if err != nil {
		return err
	}

	if !last.Null() && last.To == 0 {
		elapsed := int64(last.Duration(t).Seconds())
		fmt.Fprintln(out, "Running:")
		if last.Activity != "" {
			fmt.Fprintf(out, "  Activity: %s\n", f.Core(last))
		}
		fmt.Fprintf(out, "  Since: %s\n", f.Time(last.Start()))
		fmt.Fprintf(out, "  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(elapsed))
		return nil
	}

	entries, err := app.Repo.ReadAll(0)
	if err != nil {
		return err
	}
	from, to := stats.Range(stats.Today, t)
	today := stats.Durations(entries, stats.Filter{From: from, To: to}, t)

	fmt.Fprintln(out, "No running entry.")
	fmt.Fprintf(out, "Today: %s logged in %d entries.\n", timecalc.FormatDuration(int64(today.Total.Seconds())), today.Entries)
	return nil
}
