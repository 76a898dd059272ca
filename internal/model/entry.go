package model

import (
	"errors"
	"strings"
	"time"
)

// ErrForbiddenChar is returned when user input contains a character the
// entries file cannot represent.
var ErrForbiddenChar = errors.New("commas and quotes are not allowed")

// Entry represents a single tracked time entry.
//
// From and To are POSIX timestamps in seconds; 0 means unset. An entry with
// To == 0 is incomplete (still running).
type Entry struct {
	From     int64    `json:"from" yaml:"from"`
	To       int64    `json:"to" yaml:"to"`
	Activity string   `json:"activity" yaml:"activity"`
	Project  string   `json:"project" yaml:"project"`
	Tags     []string `json:"tags" yaml:"tags"`
	Comment  string   `json:"comment" yaml:"comment"`
}

// Valid reports whether the entry has a start, an end that is either unset
// or not before the start, and no timestamp after now.
func (e Entry) Valid(now time.Time) bool {
	n := now.Unix()
	return e.From > 0 &&
		(e.To == 0 || e.To >= e.From) &&
		e.From <= n &&
		e.To <= n
}

// Complete reports whether the entry is valid, stopped and named.
func (e Entry) Complete(now time.Time) bool {
	return e.Valid(now) && e.To > 0 && e.Activity != ""
}

// Null reports whether every field holds its zero value. A null entry is
// the tombstone passed to storage to delete a record.
func (e Entry) Null() bool {
	return e.From == 0 &&
		e.To == 0 &&
		e.Activity == "" &&
		e.Project == "" &&
		len(e.Tags) == 0 &&
		e.Comment == ""
}

// Start returns From as a local time.
func (e Entry) Start() time.Time {
	return time.Unix(e.From, 0)
}

// End returns To as a local time, or the zero time when unset.
func (e Entry) End() time.Time {
	if e.To == 0 {
		return time.Time{}
	}
	return time.Unix(e.To, 0)
}

// Duration returns the length of a stopped entry, or the time elapsed
// until now for a running one.
func (e Entry) Duration(now time.Time) time.Duration {
	if e.From == 0 {
		return 0
	}
	to := e.To
	if to == 0 {
		to = now.Unix()
	}
	return time.Duration(to-e.From) * time.Second
}

// ContentEquals reports whether two entries share activity, project and tags.
func (e Entry) ContentEquals(other Entry) bool {
	if e.Activity != other.Activity || e.Project != other.Project {
		return false
	}
	if len(e.Tags) != len(other.Tags) {
		return false
	}
	for i := range e.Tags {
		if e.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

// HasTag reports whether tag is one of the entry's tags.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DedupTags drops empty and repeated tags while keeping first-seen order.
func DedupTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Sanitize removes characters that cannot be stored in the entries file.
// Line breaks become spaces.
func Sanitize(s string) string {
	r := strings.NewReplacer(`"`, "", ",", "", "\r\n", " ", "\n", " ", "\r", " ")
	return strings.TrimSpace(r.Replace(s))
}

// Storable reports whether s can be written without escaping.
func Storable(s string) bool {
	return !strings.ContainsAny(s, "\",\r\n")
}
