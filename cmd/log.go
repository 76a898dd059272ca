package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/dlog/internal/pager"
)

var (
	logLimit    int
	logComments bool
	logNoPager  bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List entries grouped by day",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "l", 0, "Only show the last n entries (0 shows all)")
	logCmd.Flags().BoolVarP(&logComments, "comments", "c", false, "Show comments below their entries")
	logCmd.Flags().BoolVarP(&logNoPager, "no-pager", "P", false, "Print without a pager")
}

func runLog(cmd *cobra.Command, args []string) error {
	if logLimit < 0 {
		return fmt.Errorf("invalid --limit %d: must not be negative", logLimit)
	}
	entries, err := app.Repo.ReadAll(logLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No entries yet!")
		return nil
	}

	p, err := openPager(cmd, logNoPager)
	if err != nil {
		return err
	}
	if err := app.formatter(p).Log(p, entries, now(), logComments); err != nil {
		p.Close()
		return err
	}
	return p.Close()
}

// openPager returns the output of a long listing.
func openPager(cmd *cobra.Command, disabled bool) (*pager.Pager, error) {
	command := pager.Command(app.Config.Pager)
	if disabled {
		command = ""
	}
	app.Log.Debug("opening pager")
	return pager.Open(cmd.OutOrStdout(), command)
}
