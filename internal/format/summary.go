package format

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/dlog/internal/stats"
	"github.com/Tiliavir/dlog/internal/timecalc"
)

const (
	fieldWidth = 40
	valueWidth = 16
)

// WriteStatistics prints the sections of s: the total, activities with
// their activity:project breakdown, projects and tags. value renders a
// single total.
func WriteStatistics[T stats.Number](w io.Writer, f *Formatter, s *stats.Statistics[T], value func(T) string) error {
	p := &printer{w: w}
	p.row(f, f.Header("Total"), value(s.Total))
	p.line("")

	p.line(f.Header("Activities"))
	for _, r := range stats.Sorted(s.Activities) {
		p.row(f, f.s.activity.Render(r.Key), value(r.Value))
	}
	for _, r := range stats.Sorted(s.ActivitiesProjects) {
		activity, project := splitKey(r.Key)
		p.row(f, f.s.activity.Render(activity)+f.Muted(":")+f.s.project.Render(project), value(r.Value))
	}

	if len(s.Projects) > 0 {
		p.line("")
		p.line(f.Header("Projects"))
		for _, r := range stats.Sorted(s.Projects) {
			p.row(f, f.s.project.Render(r.Key), value(r.Value))
		}
	}
	if len(s.Tags) > 0 {
		p.line("")
		p.line(f.Header("Tags"))
		for _, r := range stats.Sorted(s.Tags) {
			p.row(f, f.s.tag.Render("+"+r.Key), value(r.Value))
		}
	}
	return p.err
}

// DurationValue renders summary durations with largest as the biggest unit.
func (f *Formatter) DurationValue(largest timecalc.TimePeriod) func(time.Duration) string {
	return func(d time.Duration) string {
		return f.Duration(d, largest)
	}
}

// CountValue renders summary counts.
func (f *Formatter) CountValue(n int) string {
	return f.s.duration.Render(fmt.Sprintf("%d", n))
}

// splitKey splits an "activity:project" key at its first colon after
// position 0, matching how the key was built.
func splitKey(key string) (string, string) {
	for i := 1; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

// row prints a label padded to the field width and a right-aligned value.
// Widths are measured without escape sequences.
func (p *printer) row(f *Formatter, label, value string) {
	pad := fieldWidth - lipgloss.Width(label)
	if pad < 1 {
		pad = 1
	}
	vpad := valueWidth - lipgloss.Width(value)
	if vpad < 0 {
		vpad = 0
	}
	p.line(fmt.Sprintf("%s%*s%*s%s", label, pad, "", vpad, "", value))
}
