// Package format renders entries and statistics for the terminal.
package format

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors used across dlog output.
var Colors = struct {
	Activity lipgloss.AdaptiveColor
	Project  lipgloss.AdaptiveColor
	Tag      lipgloss.AdaptiveColor
	Time     lipgloss.AdaptiveColor
	Duration lipgloss.AdaptiveColor
	Date     lipgloss.AdaptiveColor
	Muted    lipgloss.AdaptiveColor
	Error    lipgloss.AdaptiveColor
}{
	Activity: lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#F9E2AF"},
	Project:  lipgloss.AdaptiveColor{Light: "#2B6CB0", Dark: "#89B4FA"},
	Tag:      lipgloss.AdaptiveColor{Light: "#2F855A", Dark: "#A6E3A1"},
	Time:     lipgloss.AdaptiveColor{Light: "#97266D", Dark: "#CBA6F7"},
	Duration: lipgloss.AdaptiveColor{Light: "#B83280", Dark: "#F5C2E7"},
	Date:     lipgloss.AdaptiveColor{Light: "#276749", Dark: "#94E2D5"},
	Muted:    lipgloss.AdaptiveColor{Light: "#718096", Dark: "#6C7086"},
	Error:    lipgloss.AdaptiveColor{Light: "#C53030", Dark: "#F38BA8"},
}

type styles struct {
	activity lipgloss.Style
	project  lipgloss.Style
	tag      lipgloss.Style
	time     lipgloss.Style
	duration lipgloss.Style
	date     lipgloss.Style
	muted    lipgloss.Style
	header   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		activity: r.NewStyle().Foreground(Colors.Activity).Bold(true),
		project:  r.NewStyle().Foreground(Colors.Project),
		tag:      r.NewStyle().Foreground(Colors.Tag),
		time:     r.NewStyle().Foreground(Colors.Time),
		duration: r.NewStyle().Foreground(Colors.Duration),
		date:     r.NewStyle().Foreground(Colors.Date).Bold(true),
		muted:    r.NewStyle().Foreground(Colors.Muted),
		header:   r.NewStyle().Bold(true).Underline(true),
	}
}

// newRenderer returns a renderer for w. Without color every style renders
// as plain text.
func newRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}
