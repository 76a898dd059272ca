package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/dlog/internal/format"
	"github.com/Tiliavir/dlog/internal/model"
	"github.com/Tiliavir/dlog/internal/stats"
	"github.com/Tiliavir/dlog/internal/timecalc"
)

// summaryFlags are shared by summary and count.
type summaryFlags struct {
	text     string
	comment  string
	from     string
	to       string
	day      bool
	week     bool
	thisWeek bool
	year     bool
	all      bool
	limit    int
	noPager  bool
	hours    bool
}

var (
	summaryOpts summaryFlags
	countOpts   summaryFlags
)

var summaryCmd = &cobra.Command{
	Use:   "summary [<activity>[:<project>] [+<tag>...]]",
	Short: "Show the time spent per activity, project and tag",
	Long: `Show the total time spent on activities, projects and tags within a time
frame. Without a time frame the last thirty days are summarized.

Activity and project are fully matched while tags must all be present.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatistics(cmd, args, &summaryOpts, false)
	},
}

var countCmd = &cobra.Command{
	Use:   "count [<activity>[:<project>] [+<tag>...]]",
	Short: "Count the entries per activity, project and tag",
	Long: `Count how often activities, projects and tags were logged within a time
frame. Without a time frame the last thirty days are counted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatistics(cmd, args, &countOpts, true)
	},
}

func init() {
	summaryOpts.register(summaryCmd, true)
	countOpts.register(countCmd, false)
}

func (o *summaryFlags) register(cmd *cobra.Command, durations bool) {
	fs := cmd.Flags()
	fs.StringVarP(&o.text, "string", "s", "", "Only entries containing this text in activity, project, tags or comment")
	fs.StringVarP(&o.comment, "comment", "c", "", "Only entries containing this text in their comment")
	fs.StringVarP(&o.from, "from", "f", "", "Only entries starting after this date-time")
	fs.StringVarP(&o.to, "to", "t", "", "Only entries starting before this date-time")
	fs.BoolVarP(&o.day, "day", "d", false, "Only entries from today")
	fs.BoolVarP(&o.week, "week", "w", false, "Only entries from the past seven days")
	fs.BoolVar(&o.thisWeek, "this-week", false, "Only entries from the current ISO week")
	fs.BoolVarP(&o.year, "year", "y", false, "Only entries from the past year")
	fs.BoolVarP(&o.all, "all", "a", false, "All entries")
	fs.IntVarP(&o.limit, "limit", "l", 0, "Only the last n matching entries")
	fs.BoolVarP(&o.noPager, "no-pager", "P", false, "Print without a pager")
	if durations {
		fs.BoolVar(&o.hours, "hours", false, "Show totals in hours instead of days")
	}

	periods := []string{"day", "week", "this-week", "year", "all"}
	for _, p := range periods {
		cmd.MarkFlagsMutuallyExclusive(p, "from")
		cmd.MarkFlagsMutuallyExclusive(p, "to")
	}
	cmd.MarkFlagsMutuallyExclusive(periods...)
}

func (o *summaryFlags) period() stats.Period {
	switch {
	case o.day:
		return stats.Today
	case o.week:
		return stats.LastWeek
	case o.thisWeek:
		return stats.ThisWeek
	case o.year:
		return stats.LastYear
	case o.all:
		return stats.All
	default:
		return stats.LastMonth
	}
}

// filter builds the statistics filter from the flags and the positional
// activity, project and tags.
func (o *summaryFlags) filter(args []string, t time.Time) (stats.Filter, error) {
	core, err := model.ParseCore(args)
	if err != nil {
		return stats.Filter{}, err
	}
	if o.limit < 0 {
		return stats.Filter{}, fmt.Errorf("invalid --limit %d: must not be negative", o.limit)
	}

	from, to := stats.Range(o.period(), t)
	if o.from != "" {
		if from, err = timecalc.ParseDateTime(o.from, t, app.timeLayouts()...); err != nil {
			return stats.Filter{}, fmt.Errorf("--from: %w", err)
		}
	}
	if o.to != "" {
		if to, err = timecalc.ParseDateTime(o.to, t, app.timeLayouts()...); err != nil {
			return stats.Filter{}, fmt.Errorf("--to: %w", err)
		}
	}
	if !to.After(from) {
		return stats.Filter{}, fmt.Errorf("the start point %s must be before the end point %s",
			from.Format(time.DateTime), to.Format(time.DateTime))
	}

	return stats.Filter{
		From:    from,
		To:      to,
		Text:    o.text,
		Comment: o.comment,
		Core:    core,
		Limit:   o.limit,
	}, nil
}

func runStatistics(cmd *cobra.Command, args []string, o *summaryFlags, counts bool) error {
	t := now()
	filter, err := o.filter(args, t)
	if err != nil {
		return err
	}

	entries, err := app.Repo.ReadAll(0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No entries yet!")
		return nil
	}

	p, err := openPager(cmd, o.noPager)
	if err != nil {
		return err
	}
	if err := writeStatistics(p, entries, filter, o, counts, t); err != nil {
		p.Close()
		return err
	}
	return p.Close()
}

func writeStatistics(w io.Writer, entries []model.Entry, filter stats.Filter, o *summaryFlags, counts bool, t time.Time) error {
	f := app.formatter(w)

	header := fmt.Sprintf("Summary of entries between %s and %s", f.DateTime(filter.From), f.DateTime(filter.To))
	if counts {
		header = fmt.Sprintf("Count of entries between %s and %s", f.DateTime(filter.From), f.DateTime(filter.To))
	}
	if o.thisWeek {
		header += " (" + timecalc.ISOWeekLabel(t) + ")"
	}
	if _, err := fmt.Fprintf(w, "%s\n\n", header); err != nil {
		return err
	}

	if counts {
		return format.WriteStatistics(w, f, stats.Counts(entries, filter, t), f.CountValue)
	}
	largest := timecalc.Days
	if o.hours {
		largest = timecalc.Hours
	}
	return format.WriteStatistics(w, f, stats.Durations(entries, filter, t), f.DurationValue(largest))
}
