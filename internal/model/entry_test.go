package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/dlog/internal/model"
)

var now = time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)

func TestEntry_Valid(t *testing.T) {
	n := now.Unix()
	tests := []struct {
		name  string
		entry model.Entry
		want  bool
	}{
		{"null", model.Entry{}, false},
		{"open", model.Entry{From: n - 60}, true},
		{"closed", model.Entry{From: n - 60, To: n}, true},
		{"zero length", model.Entry{From: n - 60, To: n - 60}, true},
		{"end before start", model.Entry{From: n - 60, To: n - 120}, false},
		{"start in future", model.Entry{From: n + 1}, false},
		{"end in future", model.Entry{From: n - 60, To: n + 1}, false},
		{"negative start", model.Entry{From: -5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Valid(now))
		})
	}
}

func TestEntry_Complete(t *testing.T) {
	n := now.Unix()
	assert.False(t, model.Entry{From: n - 60, Activity: "work"}.Complete(now))
	assert.False(t, model.Entry{From: n - 60, To: n}.Complete(now))
	assert.True(t, model.Entry{From: n - 60, To: n, Activity: "work"}.Complete(now))
}

func TestEntry_Null(t *testing.T) {
	assert.True(t, model.Entry{}.Null())
	assert.True(t, model.Entry{Tags: []string{}}.Null())
	assert.False(t, model.Entry{Comment: "x"}.Null())
	assert.False(t, model.Entry{Tags: []string{"a"}}.Null())
}

func TestEntry_Duration(t *testing.T) {
	n := now.Unix()
	assert.Equal(t, 90*time.Second, model.Entry{From: n - 90, To: n}.Duration(now))
	assert.Equal(t, 30*time.Second, model.Entry{From: n - 30}.Duration(now))
	assert.Equal(t, time.Duration(0), model.Entry{}.Duration(now))
}

func TestDedupTags(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, model.DedupTags([]string{"b", "a", "b", "", "a"}))
	assert.Nil(t, model.DedupTags(nil))
	assert.Nil(t, model.DedupTags([]string{""}))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Sprint Planning Room 1", model.Sanitize(`"Sprint, Planning"`+"\nRoom 1"))
}

func TestParseCore(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		want  model.Core
	}{
		{
			name:  "activity only",
			words: []string{"shower"},
			want:  model.Core{Activity: "shower"},
		},
		{
			name:  "activity and project with tag",
			words: []string{"watch:yt", "+my-favorite-channel"},
			want:  model.Core{Activity: "watch", Project: "yt", Tags: []string{"my-favorite-channel"}},
		},
		{
			name:  "spaces everywhere",
			words: []string{"gaming:cyberpunk", "2077", "+single", "player", "+pc"},
			want:  model.Core{Activity: "gaming", Project: "cyberpunk 2077", Tags: []string{"single player", "pc"}},
		},
		{
			name:  "leading colon stays in activity",
			words: []string{":wave"},
			want:  model.Core{Activity: ":wave"},
		},
		{
			name:  "duplicate tags",
			words: []string{"code", "+go", "+go"},
			want:  model.Core{Activity: "code", Tags: []string{"go"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ParseCore(tt.words)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCore_RejectsForbiddenChars(t *testing.T) {
	for _, w := range []string{`say "hi"`, "a,b"} {
		_, err := model.ParseCore([]string{w})
		assert.True(t, errors.Is(err, model.ErrForbiddenChar), "input %q", w)
	}
}

func TestCore_String(t *testing.T) {
	c := model.Core{Activity: "watch", Project: "yt", Tags: []string{"a", "b c"}}
	assert.Equal(t, "watch:yt +a +b c", c.String())
}
