package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/dlog/internal/msgraph"
	"github.com/Tiliavir/dlog/internal/timecalc"
)

var (
	outlookSyncFrom    string
	outlookSyncTo      string
	outlookSyncDate    string
	outlookSyncToday   bool
	outlookSyncDryRun  bool
	outlookSyncProject string
	outlookSyncTZ      string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import finished Outlook calendar events as entries",
	Long: `Import finished Outlook calendar events as complete entries.

Imported entries are tagged +outlook and remember their event, so running
sync again updates moved events instead of adding them twice.`,
	Args: cobra.NoArgs,
	RunE: runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncToday, "today", false, "Sync only today (default)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVar(&outlookSyncProject, "project", "", "Project for imported events (default from config)")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (default from config)")
	outlookSyncCmd.MarkFlagsMutuallyExclusive("date", "from")
	outlookSyncCmd.MarkFlagsMutuallyExclusive("date", "to")
	outlookSyncCmd.MarkFlagsMutuallyExclusive("today", "date")
	outlookSyncCmd.MarkFlagsMutuallyExclusive("today", "from")
	outlookCmd.AddCommand(outlookSyncCmd)
}

// syncRange returns the days to import, defaulting to today.
func syncRange(t time.Time) (time.Time, time.Time, error) {
	parse := func(flag, value string) (time.Time, error) {
		d, err := time.ParseInLocation(time.DateOnly, value, t.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --%s value %q: %w", flag, value, err)
		}
		return d, nil
	}

	switch {
	case outlookSyncDate != "":
		d, err := parse("date", outlookSyncDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return timecalc.StartOfDay(d), timecalc.EndOfDay(d), nil

	case outlookSyncFrom != "" || outlookSyncTo != "":
		if outlookSyncFrom == "" {
			return time.Time{}, time.Time{}, errors.New("--from is required when --to is specified")
		}
		from, err := parse("from", outlookSyncFrom)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to := t
		if outlookSyncTo != "" {
			if to, err = parse("to", outlookSyncTo); err != nil {
				return time.Time{}, time.Time{}, err
			}
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, errors.New("--to must not be before --from")
		}
		return timecalc.StartOfDay(from), timecalc.EndOfDay(to), nil

	default:
		return timecalc.StartOfDay(t), timecalc.EndOfDay(t), nil
	}
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	t := now()

	from, to, err := syncRange(t)
	if err != nil {
		return err
	}

	cfg := app.Config.Outlook
	project := cfg.DefaultProject
	if outlookSyncProject != "" {
		project = outlookSyncProject
	}
	timezone := cfg.Timezone
	if outlookSyncTZ != "" {
		timezone = outlookSyncTZ
	}

	tokenPath, err := app.Locator.File(msgraph.TokenFile)
	if err != nil {
		return err
	}

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Syncing Outlook events (%s to %s)%s...\n\n",
		from.Format(time.DateOnly), to.Format(time.DateOnly), dryTag)

	ctx := cmd.Context()
	auth := msgraph.Auth{
		TenantID:  cfg.TenantID,
		ClientID:  cfg.ClientID,
		TokenPath: tokenPath,
		Prompt:    out,
		Log:       app.Log,
	}
	tok, oauthCfg, err := auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	client := msgraph.NewClient(ctx, tok, oauthCfg, tokenPath)

	events, err := client.GetCalendarView(ctx, from, to, timezone)
	if err != nil {
		return fmt.Errorf("failed to fetch calendar events: %w", err)
	}
	app.Log.Debug("fetched calendar events")

	result, err := msgraph.SyncEvents(app.Repo, events, msgraph.SyncOptions{
		DryRun:   outlookSyncDryRun,
		Project:  project,
		Timezone: timezone,
		Now:      now,
		Out:      out,
		Log:      app.Log,
	})
	if err != nil {
		return fmt.Errorf("sync error: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  %d imported\n", result.Imported)
	fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(out, "  %d updated\n", result.Updated)
	if result.Errors > 0 {
		return fmt.Errorf("%d events could not be imported", result.Errors)
	}
	return nil
}
