package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/dlog/internal/storage"
)

var removeYes bool

var removeCmd = &cobra.Command{
	Use:   "remove [n]",
	Short: "Remove a time entry",
	Long: `Remove the n-th entry counted from the end. Asks for confirmation first.

  dlog remove       removes the last entry
  dlog remove 2     removes the second-to-last entry`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")
}

func runRemove(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	t := now()

	index := 1
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid entry number %q: must be a positive integer", args[0])
		}
		index = n
	}

	entries, err := app.Repo.ReadAll(index)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrNoEntry
	}
	if len(entries) < index {
		return fmt.Errorf("%w: %d of %d", storage.ErrIndexOutOfRange, index, len(entries))
	}
	entry := entries[0]

	f := app.formatter(out)
	desc := "entry " + f.Entry(entry, t)
	if entry.To == 0 {
		desc = "incomplete entry started " + f.DateTime(entry.Start())
	}

	if !removeYes {
		ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Do you want to remove %s?", desc))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "No entry removed.")
			return nil
		}
	}

	if err := app.Repo.Remove(index); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %s.\n", desc)
	return nil
}
