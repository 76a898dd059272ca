package model

import (
	"fmt"
	"strings"
)

// Core is the user-facing part of an entry: what was done, in which
// project, with which tags.
type Core struct {
	Activity string
	Project  string
	Tags     []string
}

// ParseCore parses words in the form
//
//	<activity>[:<project>] [+<tag>...]
//
// Words preceding the first tag make up the activity. A word starting with
// '+' opens a new tag and any following plain words are appended to that
// tag, so activities, projects and tags may all contain spaces.
func ParseCore(words []string) (Core, error) {
	var (
		activity strings.Builder
		tags     []string
	)
	for _, w := range words {
		if w == "" {
			continue
		}
		if !Storable(w) {
			return Core{}, fmt.Errorf("invalid input %q: %w", w, ErrForbiddenChar)
		}
		switch {
		case strings.HasPrefix(w, "+"):
			tags = append(tags, w[1:])
		case len(tags) == 0:
			if activity.Len() > 0 {
				activity.WriteByte(' ')
			}
			activity.WriteString(w)
		default:
			tags[len(tags)-1] += " " + w
		}
	}

	var c Core
	a := activity.String()
	// A leading colon is part of the activity, not a project separator.
	if i := strings.Index(a, ":"); i > 0 {
		c.Activity = strings.TrimSpace(a[:i])
		c.Project = strings.TrimSpace(a[i+1:])
	} else {
		c.Activity = strings.TrimSpace(a)
	}
	for i := range tags {
		tags[i] = strings.TrimSpace(tags[i])
	}
	c.Tags = DedupTags(tags)
	return c, nil
}

// String renders the core back into its command-line form.
func (c Core) String() string {
	var b strings.Builder
	b.WriteString(c.Activity)
	if c.Project != "" {
		b.WriteByte(':')
		b.WriteString(c.Project)
	}
	for _, t := range c.Tags {
		b.WriteString(" +")
		b.WriteString(t)
	}
	return b.String()
}

// Empty reports whether no part of the core was given.
func (c Core) Empty() bool {
	return c.Activity == "" && c.Project == "" && len(c.Tags) == 0
}
