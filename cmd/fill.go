package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/dlog/internal/model"
	"github.com/Tiliavir/dlog/internal/storage"
	"github.com/Tiliavir/dlog/internal/timecalc"
)

var (
	// ErrMissingActivity is returned by fill when no activity is known.
	ErrMissingActivity = errors.New("please specify at least an activity")
	// ErrTooManyBounds is returned when from, to and duration are all given.
	ErrTooManyBounds = errors.New("only two of --from, --to and --duration can be used")
)

var (
	fillFrom     string
	fillTo       string
	fillDuration string
	fillMessage  string
	fillUpdate   bool
	fillNew      bool
)

var fillCmd = &cobra.Command{
	Use:   "fill <activity>[:<project>] [+<tag>...]",
	Short: "Fill the time since the last entry with a new entry",
	Long: `Fill the time between the end of the last entry and now with a new entry.

A running entry started with "dlog start" is completed instead. Activity,
project and tags may contain spaces:

  dlog fill gaming:cyberpunk 2077 +single player +pc`,
	RunE: runFill,
}

func init() {
	fillCmd.Flags().StringVarP(&fillFrom, "from", "f", "", "Date-time, time or temporal expression when the entry started")
	fillCmd.Flags().StringVarP(&fillTo, "to", "t", "", "Date-time, time or temporal expression when the entry stopped")
	fillCmd.Flags().StringVarP(&fillDuration, "duration", "d", "", "How long the entry lasted, e.g. 1:30:00 or 90 minutes")
	fillCmd.Flags().StringVarP(&fillMessage, "message", "m", "", "Comment for the entry")
	fillCmd.Flags().BoolVarP(&fillUpdate, "update", "u", false, "Update the last entry instead of adding a new one")
	fillCmd.Flags().BoolVarP(&fillNew, "new", "n", false, "Add a new entry even when it matches the last one")
	fillCmd.MarkFlagsMutuallyExclusive("update", "new")
}

// fillRequest holds the parsed input of a fill.
type fillRequest struct {
	Core     model.Core
	Comment  *string
	From     time.Time
	To       time.Time
	Duration time.Duration
	Update   bool
	New      bool
	// Merge folds an entry identical to the last one into it.
	Merge    bool
}

// buildFill derives the entry to store from the last entry and req. update
// reports whether it replaces last instead of following it.
func buildFill(last model.Entry, req fillRequest, now time.Time) (model.Entry, bool, error) {
	if !req.From.IsZero() && !req.To.IsZero() && req.Duration != 0 {
		return model.Entry{}, false, ErrTooManyBounds
	}
	if last.Null() && req.From.IsZero() {
		return model.Entry{}, false, ErrNoEntry
	}

	continues := !last.Null() && (req.Update || !last.Complete(now))

	var e model.Entry
	if continues {
		e = last
		e.Tags = append([]string(nil), last.Tags...)
	}
	if req.Core.Activity != "" {
		e.Activity = req.Core.Activity
	}
	if req.Core.Project != "" {
		e.Project = req.Core.Project
	}
	if len(req.Core.Tags) > 0 {
		e.Tags = req.Core.Tags
	}
	if e.Activity == "" {
		return model.Entry{}, false, ErrMissingActivity
	}
	if req.Comment != nil {
		e.Comment = *req.Comment
	}

	merge := req.Merge && !req.New
	switch {
	case !req.From.IsZero():
		e.From = req.From.Unix()
	case !continues && merge && e.ContentEquals(last):
		e.From = last.From
	case !continues:
		e.From = last.To
	}

	e.To = canonicalTo(time.Unix(e.From, 0).In(now.Location()), req.To, now).Unix()
	if req.Duration != 0 {
		secs := int64(req.Duration / time.Second)
		if !req.To.IsZero() {
			e.From = e.To - secs
		} else {
			e.To = e.From + secs
		}
	}

	if !e.Valid(now) {
		return e, false, fmt.Errorf("%w: %s", storage.ErrInvalidEntry, e.Activity)
	}

	update := false
	switch {
	case last.Null() || req.New:
	case continues:
		update = true
	case e.From == last.From:
		update = merge && e.ContentEquals(last)
	}
	return e, update, nil
}

// canonicalTo returns the end of an entry starting at from. A to on a later
// day that still lies more than a day after from is read as the same time
// of the previous day, so "fill -t 00:30" right after midnight works.
func canonicalTo(from, to, now time.Time) time.Time {
	if to.IsZero() {
		return now.Truncate(time.Second)
	}
	if timecalc.Midnight(from).Before(timecalc.Midnight(to)) {
		if prev := to.AddDate(0, 0, -1); from.Before(prev) {
			return prev
		}
	}
	return to
}

func runFill(cmd *cobra.Command, args []string) error {
	t := now()
	out := cmd.OutOrStdout()

	req, err := fillRequestFromFlags(cmd, args, t)
	if err != nil {
		return err
	}

	last, err := app.Repo.Last()
	if err != nil {
		return err
	}
	entry, update, err := buildFill(last, req, t)
	if err != nil {
		return err
	}

	if !update && app.Config.ConfirmNew {
		known, err := knownCore(entry)
		if err != nil {
			return err
		}
		if !known {
			f := app.formatter(out)
			ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("%s has not been used before. Add it anyway?", f.Core(entry)))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No entry added.")
				return nil
			}
		}
	}

	if update {
		err = app.Repo.Overwrite(1, entry)
	} else {
		err = app.Repo.Append(entry)
	}
	if err != nil {
		return err
	}

	f := app.formatter(out)
	if update {
		diff := entry.Duration(t) - last.Duration(t)
		sign := "+"
		if diff < 0 {
			sign = ""
		}
		fmt.Fprintf(out, "Updated entry %s %s.\n", f.Entry(entry, t), f.Muted("["+sign+timecalc.FormatPeriod(diff, timecalc.Days, false)+"]"))
		return nil
	}
	fmt.Fprintf(out, "Filled entry %s.\n", f.Entry(entry, t))
	return nil
}

func fillRequestFromFlags(cmd *cobra.Command, args []string, t time.Time) (fillRequest, error) {
	core, err := model.ParseCore(args)
	if err != nil {
		return fillRequest{}, err
	}
	req := fillRequest{
		Core:   core,
		Update: fillUpdate,
		New:    fillNew,
		Merge:  app.Config.AutoMerge,
	}
	if cmd.Flags().Changed("message") {
		msg := model.Sanitize(fillMessage)
		req.Comment = &msg
	}
	if fillFrom != "" {
		if req.From, err = timecalc.ParseDateTime(fillFrom, t, app.timeLayouts()...); err != nil {
			return fillRequest{}, fmt.Errorf("--from: %w", err)
		}
	}
	if fillTo != "" {
		if req.To, err = timecalc.ParseDateTime(fillTo, t, app.timeLayouts()...); err != nil {
			return fillRequest{}, fmt.Errorf("--to: %w", err)
		}
	}
	if fillDuration != "" {
		if req.Duration, err = timecalc.ParseDuration(fillDuration); err != nil {
			return fillRequest{}, fmt.Errorf("--duration: %w", err)
		}
	}
	return req, nil
}

// knownCore reports whether an earlier entry has the same activity and
// project as e.
func knownCore(e model.Entry) (bool, error) {
	entries, err := app.Repo.ReadAll(0)
	if err != nil {
		return false, err
	}
	for _, other := range entries {
		if other.Activity == e.Activity && other.Project == e.Project {
			return true, nil
		}
	}
	return false, nil
}

// confirm asks question and reports whether the answer was yes.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s (y/n) ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
