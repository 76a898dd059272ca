package msgraph

import (
	"cmp"
	"fmt"
	"hash/fnv"
	"io"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/dlog/internal/model"
	"github.com/Tiliavir/dlog/internal/storage"
	"github.com/Tiliavir/dlog/internal/timecalc"
)

// SourceTag marks every imported entry.
const SourceTag = "outlook"

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	DryRun   bool
	Project  string
	Timezone string
	Now      func() time.Time
	// Out receives one progress line per event.
	Out io.Writer
	Log *zap.Logger
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// buildComment combines bodyPreview and location into a single storable line.
func buildComment(event CalendarEvent) string {
	var parts []string
	for _, p := range []string{event.BodyPreview, event.Location.DisplayName} {
		if p = model.Sanitize(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " @ ")
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	if event.IsCancelled {
		return true
	}
	if event.IsAllDay {
		return true
	}
	if event.Sensitivity == "private" {
		return true
	}
	if event.ShowAs == "free" {
		return true
	}
	if event.Start.DateTime == "" || event.End.DateTime == "" {
		return true
	}
	return false
}

// EventTag returns the tag identifying entries imported from the event
// with the given Graph ID.
func EventTag(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return fmt.Sprintf("%s:%08x", SourceTag, h.Sum32())
}

// MapEventToEntry converts a Graph CalendarEvent into a complete entry
// tagged with SourceTag and the event's EventTag.
func MapEventToEntry(event CalendarEvent, timezone, project string) (model.Entry, error) {
	startTime, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing start time: %w", err)
	}
	endTime, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing end time: %w", err)
	}

	subject := model.Sanitize(event.Subject)
	if subject == "" {
		subject = "meeting"
	}
	return model.Entry{
		From:     startTime.Unix(),
		To:       endTime.Unix(),
		Activity: subject,
		Project:  model.Sanitize(project),
		Tags:     []string{SourceTag, EventTag(event.ID)},
		Comment:  buildComment(event),
	}, nil
}

// findByEventTag returns the index of the entry carrying tag, or -1.
func findByEventTag(entries []model.Entry, tag string) int {
	return slices.IndexFunc(entries, func(e model.Entry) bool { return e.HasTag(tag) })
}

func sameImport(a, b model.Entry) bool {
	return a.From == b.From && a.To == b.To && a.Comment == b.Comment && a.ContentEquals(b)
}

// SyncEvents imports events into repo. Events already imported are matched
// by their EventTag and updated when they changed. Entries not created by
// the importer are never modified. All changes are written with a single
// rewrite, ordered by start time.
func SyncEvents(repo *storage.Repository, events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	entries, err := repo.ReadAll(0)
	if err != nil {
		return result, err
	}
	// A running entry stays at the tail whatever gets imported.
	var running []model.Entry
	if n := len(entries); n > 0 && entries[n-1].To == 0 {
		running = []model.Entry{entries[n-1]}
		entries = slices.Clip(entries[:n-1])
	}

	changed := false
	for _, event := range events {
		if shouldSkip(event) {
			log.Debug("skipping event", zap.String("subject", event.Subject))
			continue
		}

		entry, err := MapEventToEntry(event, opts.Timezone, opts.Project)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		if !entry.Complete(now()) {
			fmt.Fprintf(out, "  - Skipped:  %s (not finished)\n", entry.Activity)
			result.Skipped++
			continue
		}
		dur := timecalc.FormatDuration(entry.To - entry.From)

		if i := findByEventTag(entries, EventTag(event.ID)); i >= 0 {
			if sameImport(entries[i], entry) {
				fmt.Fprintf(out, "  - Skipped:  %s (already exists)\n", entry.Activity)
				result.Skipped++
				continue
			}
			entries[i] = entry
			changed = true
			fmt.Fprintf(out, "  ^ Updated:  %s (%s)\n", entry.Activity, dur)
			result.Updated++
			continue
		}

		entries = append(entries, entry)
		changed = true
		fmt.Fprintf(out, "  + Imported: %s (%s)\n", entry.Activity, dur)
		result.Imported++
	}

	if !changed || opts.DryRun {
		return result, nil
	}
	slices.SortStableFunc(entries, func(a, b model.Entry) int { return cmp.Compare(a.From, b.From) })
	entries = append(entries, running...)
	if err := repo.Rewrite(entries); err != nil {
		return result, fmt.Errorf("saving imported entries: %w", err)
	}
	return result, nil
}
