package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Tiliavir/dlog/internal/model"
	"github.com/Tiliavir/dlog/internal/timecalc"
)

// Layouts are the Go time layouts used for times and dates.
type Layouts struct {
	Time     string
	Date     string
	LongDate string
}

// Formatter renders dlog values with terminal styles.
type Formatter struct {
	layouts Layouts
	s       styles
}

// New returns a formatter for output written to w.
func New(w io.Writer, layouts Layouts, color bool) *Formatter {
	return &Formatter{layouts: layouts, s: newStyles(newRenderer(w, color))}
}

// Core renders "activity:project +tag +tag".
func (f *Formatter) Core(e model.Entry) string {
	var b strings.Builder
	b.WriteString(f.s.activity.Render(e.Activity))
	if e.Project != "" {
		b.WriteString(f.s.muted.Render(":"))
		b.WriteString(f.s.project.Render(e.Project))
	}
	for _, t := range e.Tags {
		b.WriteByte(' ')
		b.WriteString(f.s.tag.Render("+" + t))
	}
	return b.String()
}

// Time renders the time of day of t.
func (f *Formatter) Time(t time.Time) string {
	return f.s.time.Render(t.Format(f.layouts.Time))
}

// DateTime renders t as date and time.
func (f *Formatter) DateTime(t time.Time) string {
	return f.s.time.Render(t.Format(f.layouts.Date + " " + f.layouts.Time))
}

// Day renders the long date of t, marking today and yesterday.
func (f *Formatter) Day(t, now time.Time) string {
	label := t.Format(f.layouts.LongDate)
	switch {
	case timecalc.SameDay(t, now):
		label += " (today)"
	case timecalc.SameDay(t, now.AddDate(0, 0, -1)):
		label += " (yesterday)"
	}
	return f.s.date.Render(label)
}

// Duration renders d with FormatPeriod.
func (f *Formatter) Duration(d time.Duration, largest timecalc.TimePeriod) string {
	return f.s.duration.Render(timecalc.FormatPeriod(d, largest, false))
}

// Entry renders a one-line description of e: its core, its time span and
// its duration. A running entry shows "now" as its end.
func (f *Formatter) Entry(e model.Entry, now time.Time) string {
	end := f.s.muted.Render("now")
	if e.To != 0 {
		end = f.Time(e.End())
	}
	return fmt.Sprintf("%s (%s - %s) [%s]", f.name(e), f.Time(e.Start()), end, f.Duration(e.Duration(now), timecalc.Days))
}

// name renders the core of e, or a placeholder while it has no activity.
func (f *Formatter) name(e model.Entry) string {
	if e.Activity == "" {
		return f.s.muted.Render("<running>")
	}
	return f.Core(e)
}

// Muted renders s in the muted style.
func (f *Formatter) Muted(s string) string {
	return f.s.muted.Render(s)
}

// Header renders a section header.
func (f *Formatter) Header(s string) string {
	return f.s.header.Render(s)
}

// Log writes entries newest first, grouped by the day they started. Each day
// starts with its date and total duration. Comments are printed below their
// entry when comments is set.
func (f *Formatter) Log(w io.Writer, entries []model.Entry, now time.Time, comments bool) error {
	var day time.Time
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if i == len(entries)-1 || !timecalc.SameDay(e.Start(), day) {
			day = e.Start()
			if i != len(entries)-1 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			total := dayTotal(entries[:i+1], day, now)
			if _, err := fmt.Fprintf(w, "%s %s\n", f.Day(day, now), f.Muted("["+timecalc.FormatPeriod(total, timecalc.Hours, false)+"]")); err != nil {
				return err
			}
		}

		end := f.s.muted.Render(fmt.Sprintf("%*s", len(now.Format(f.layouts.Time)), "now"))
		if e.To != 0 {
			end = f.Time(e.End())
		}
		if _, err := fmt.Fprintf(w, "  %s - %s  %s  %s\n",
			f.Time(e.Start()), end,
			f.s.duration.Render(timecalc.FormatPeriod(e.Duration(now), timecalc.Hours, true)),
			f.name(e)); err != nil {
			return err
		}
		if comments && e.Comment != "" {
			if _, err := fmt.Fprintf(w, "      %s\n", f.Muted(e.Comment)); err != nil {
				return err
			}
		}
	}
	return nil
}

// dayTotal sums the durations of the entries starting on day. entries are
// ordered oldest first, so the scan stops at the first earlier day.
func dayTotal(entries []model.Entry, day, now time.Time) time.Duration {
	var total time.Duration
	for i := len(entries) - 1; i >= 0; i-- {
		if !timecalc.SameDay(entries[i].Start(), day) {
			break
		}
		total += entries[i].Duration(now)
	}
	return total
}
