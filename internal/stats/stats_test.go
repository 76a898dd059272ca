package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/dlog/internal/model"
	"github.com/Tiliavir/dlog/internal/stats"
)

var now = time.Date(2026, 2, 27, 18, 0, 0, 0, time.UTC)

func at(day, hour int) int64 {
	return time.Date(2026, 2, day, hour, 0, 0, 0, time.UTC).Unix()
}

func sample() []model.Entry {
	return []model.Entry{
		{From: at(1, 9), To: at(1, 10), Activity: "old"},
		{From: at(25, 9), To: at(25, 11), Activity: "code", Project: "dlog", Tags: []string{"go"}},
		{From: at(26, 9), To: at(26, 10), Activity: "meeting", Tags: []string{"outlook"}, Comment: "weekly sync"},
		{From: at(27, 9), To: at(27, 12), Activity: "code", Project: "dlog", Tags: []string{"go", "review"}},
		{From: at(27, 13), To: at(27, 14), Activity: "code", Project: "site"},
		{From: at(27, 15)},
	}
}

func TestRange(t *testing.T) {
	today := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		period stats.Period
		from   time.Time
	}{
		{stats.LastMonth, today.AddDate(0, 0, -30)},
		{stats.Today, today},
		{stats.LastWeek, today.AddDate(0, 0, -7)},
		{stats.ThisWeek, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)},
		{stats.LastYear, today.AddDate(0, 0, -365)},
		{stats.All, time.Unix(0, 0)},
	}
	for _, tt := range tests {
		from, to := stats.Range(tt.period, now)
		assert.True(t, tt.from.Equal(from), "period %d: got %v", tt.period, from)
		assert.Equal(t, now, to)
	}
}

func TestDurations(t *testing.T) {
	from, to := stats.Range(stats.LastWeek, now)
	s := stats.Durations(sample(), stats.Filter{From: from, To: to}, now)

	assert.Equal(t, 7*time.Hour, s.Total)
	assert.Equal(t, 4, s.Entries)
	assert.Equal(t, map[string]time.Duration{"code": 6 * time.Hour, "meeting": time.Hour}, s.Activities)
	assert.Equal(t, map[string]time.Duration{"code:dlog": 5 * time.Hour, "code:site": time.Hour}, s.ActivitiesProjects)
	assert.Equal(t, map[string]time.Duration{"dlog": 5 * time.Hour, "site": time.Hour}, s.Projects)
	assert.Equal(t, map[string]time.Duration{"go": 5 * time.Hour, "review": 3 * time.Hour, "outlook": time.Hour}, s.Tags)
}

func TestCounts(t *testing.T) {
	s := stats.Counts(sample(), stats.Filter{From: time.Unix(0, 0), To: now}, now)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.Activities["code"])
	assert.Equal(t, 1, s.Activities["old"])
}

func TestCollect_Filters(t *testing.T) {
	from, to := stats.Range(stats.All, now)
	tests := []struct {
		name   string
		filter stats.Filter
		want   int
	}{
		{"text in comment", stats.Filter{Text: "weekly"}, 1},
		{"text in tag", stats.Filter{Text: "rev"}, 1},
		{"comment", stats.Filter{Comment: "sync"}, 1},
		{"activity", stats.Filter{Core: model.Core{Activity: "code"}}, 3},
		{"activity and project", stats.Filter{Core: model.Core{Activity: "code", Project: "dlog"}}, 2},
		{"tags", stats.Filter{Core: model.Core{Tags: []string{"go", "review"}}}, 1},
		{"limit", stats.Filter{Limit: 2}, 2},
		{"to bound", stats.Filter{To: time.Unix(at(26, 12), 0)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.filter
			f.From = from
			if f.To.IsZero() {
				f.To = to
			}
			s := stats.Counts(sample(), f, now)
			assert.Equal(t, tt.want, s.Total)
		})
	}
}

func TestSorted(t *testing.T) {
	rows := stats.Sorted(map[string]int{"b": 2, "a": 2, "c": 5})
	require.Len(t, rows, 3)
	assert.Equal(t, []stats.Row[int]{{Key: "c", Value: 5}, {Key: "a", Value: 2}, {Key: "b", Value: 2}}, rows)
}
