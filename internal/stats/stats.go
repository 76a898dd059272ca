// Package stats aggregates entries by activity, project and tag.
package stats

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/Tiliavir/dlog/internal/model"
	"github.com/Tiliavir/dlog/internal/timecalc"
)

// Period selects the time frame of a summary when no explicit bounds are
// given.
type Period int

const (
	// LastMonth covers the past thirty days and is the default.
	LastMonth Period = iota
	Today
	LastWeek
	ThisWeek
	LastYear
	All
)

// Range returns the bounds of p relative to now.
func Range(p Period, now time.Time) (time.Time, time.Time) {
	today := timecalc.StartOfDay(now)
	switch p {
	case Today:
		return today, now
	case LastWeek:
		return today.AddDate(0, 0, -7), now
	case ThisWeek:
		monday, _ := timecalc.WeekRange(now)
		return monday, now
	case LastYear:
		return today.AddDate(0, 0, -365), now
	case All:
		return time.Unix(0, 0).In(now.Location()), now
	default:
		return today.AddDate(0, 0, -30), now
	}
}

// Filter selects the entries that take part in a summary.
type Filter struct {
	From time.Time
	To   time.Time
	// Text must occur in the activity, project, a tag or the comment.
	Text string
	// Comment must occur in the comment.
	Comment string
	// Core fully matches activity and project when set; every tag of Core
	// must be among the entry's tags.
	Core model.Core
	// Limit stops after that many matching entries, newest first. 0 means
	// no limit.
	Limit int
}

// Match reports whether e passes every content criterion of f. The time
// frame is checked by Collect.
func (f Filter) Match(e model.Entry) bool {
	if f.Text != "" &&
		!strings.Contains(e.Activity, f.Text) &&
		!strings.Contains(e.Project, f.Text) &&
		!strings.Contains(e.Comment, f.Text) &&
		!slices.ContainsFunc(e.Tags, func(t string) bool { return strings.Contains(t, f.Text) }) {
		return false
	}
	if f.Core.Activity != "" && e.Activity != f.Core.Activity {
		return false
	}
	if f.Core.Project != "" && e.Project != f.Core.Project {
		return false
	}
	if f.Comment != "" && !strings.Contains(e.Comment, f.Comment) {
		return false
	}
	for _, t := range f.Core.Tags {
		if !e.HasTag(t) {
			return false
		}
	}
	return true
}

// Number is the value type statistics are summed in.
type Number interface {
	~int | ~int64
}

// Statistics holds per-key totals.
type Statistics[T Number] struct {
	Total              T
	Entries            int
	Activities         map[string]T
	ActivitiesProjects map[string]T
	Projects           map[string]T
	Tags               map[string]T
}

func newStatistics[T Number]() *Statistics[T] {
	return &Statistics[T]{
		Activities:         make(map[string]T),
		ActivitiesProjects: make(map[string]T),
		Projects:           make(map[string]T),
		Tags:               make(map[string]T),
	}
}

func (s *Statistics[T]) add(e model.Entry, v T) {
	s.Total += v
	s.Entries++
	addKey(s.Activities, e.Activity, v)
	if e.Project != "" {
		addKey(s.ActivitiesProjects, e.Activity+":"+e.Project, v)
	}
	addKey(s.Projects, e.Project, v)
	for _, t := range e.Tags {
		addKey(s.Tags, t, v)
	}
}

func addKey[T Number](m map[string]T, key string, v T) {
	if key == "" {
		return
	}
	m[key] += v
}

// Collect walks entries, ordered oldest first, from the newest backwards
// and sums value for every complete entry that starts inside the time
// frame of f and matches it.
func Collect[T Number](entries []model.Entry, f Filter, now time.Time, value func(model.Entry) T) *Statistics[T] {
	s := newStatistics[T]()
	from, to := f.From.Unix(), f.To.Unix()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.From < from {
			break
		}
		if !e.Complete(now) || e.From > to || !f.Match(e) {
			continue
		}
		s.add(e, value(e))
		if f.Limit > 0 && s.Entries >= f.Limit {
			break
		}
	}
	return s
}

// Durations sums the time spent per key.
func Durations(entries []model.Entry, f Filter, now time.Time) *Statistics[time.Duration] {
	return Collect(entries, f, now, func(e model.Entry) time.Duration { return e.Duration(now) })
}

// Counts counts the entries per key.
func Counts(entries []model.Entry, f Filter, now time.Time) *Statistics[int] {
	return Collect(entries, f, now, func(model.Entry) int { return 1 })
}

// Row is one key of a statistics map.
type Row[T Number] struct {
	Key   string
	Value T
}

// Sorted returns the rows of m, largest value first. Ties are ordered by key.
func Sorted[T Number](m map[string]T) []Row[T] {
	rows := make([]Row[T], 0, len(m))
	for k, v := range m {
		rows = append(rows, Row[T]{Key: k, Value: v})
	}
	slices.SortFunc(rows, func(a, b Row[T]) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return rows
}
