package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/dlog/internal/model"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new time entry",
	Long: `Start a new time entry now. Describe it later with "dlog fill".

A running entry has to be filled before another one can be started.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	t := now()

	last, err := app.Repo.Last()
	if err != nil {
		return err
	}
	if !last.Null() && !last.Complete(t) {
		return ErrIncompleteEntry
	}

	entry := model.Entry{From: t.Unix()}
	if err := app.Repo.Append(entry); err != nil {
		return err
	}

	f := app.formatter(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "Started entry at %s.\n", f.Time(t))
	return nil
}
