package msgraph_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/Tiliavir/dlog/internal/model"
	"github.com/Tiliavir/dlog/internal/msgraph"
	"github.com/Tiliavir/dlog/internal/storage"
)

var now = time.Date(2026, 2, 27, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newRepo(t *testing.T) *storage.Repository {
	t.Helper()
	return storage.New(filepath.Join(t.TempDir(), storage.EntriesFile), storage.WithClock(clock))
}

func syncOpts() msgraph.SyncOptions {
	return msgraph.SyncOptions{Project: "meetings", Timezone: "UTC", Now: clock}
}

func readAll(t *testing.T, repo *storage.Repository) []model.Entry {
	t.Helper()
	entries, err := repo.ReadAll(0)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return entries
}

func makeEvent(id, subject, start, end string) msgraph.CalendarEvent {
	return msgraph.CalendarEvent{
		ID:          id,
		Subject:     subject,
		BodyPreview: "",
		IsAllDay:    false,
		IsCancelled: false,
		Sensitivity: "normal",
		ShowAs:      "busy",
		Start: struct {
			DateTime string `json:"dateTime"`
			TimeZone string `json:"timeZone"`
		}{DateTime: start, TimeZone: "UTC"},
		End: struct {
			DateTime string `json:"dateTime"`
			TimeZone string `json:"timeZone"`
		}{DateTime: end, TimeZone: "UTC"},
	}
}

func TestMapEventToEntry(t *testing.T) {
	event := makeEvent("ext-id-1", "Sprint Planning", "2026-02-27T09:00:00.0000000", "2026-02-27T10:30:00.0000000")
	entry, err := msgraph.MapEventToEntry(event, "UTC", "meetings")
	if err != nil {
		t.Fatalf("MapEventToEntry: %v", err)
	}
	if entry.Activity != "Sprint Planning" {
		t.Errorf("Activity = %q, want %q", entry.Activity, "Sprint Planning")
	}
	if entry.Project != "meetings" {
		t.Errorf("Project = %q, want %q", entry.Project, "meetings")
	}
	if got := entry.To - entry.From; got != 5400 {
		t.Errorf("duration = %d, want 5400", got)
	}
	if want := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC).Unix(); entry.From != want {
		t.Errorf("From = %d, want %d", entry.From, want)
	}
	if !entry.HasTag(msgraph.SourceTag) {
		t.Error("expected 'outlook' tag")
	}
	if !entry.HasTag(msgraph.EventTag("ext-id-1")) {
		t.Error("expected event tag")
	}
}

func TestMapEventToEntry_Timezone(t *testing.T) {
	event := makeEvent("ext-tz", "Standup", "2026-02-27T09:00:00", "2026-02-27T09:15:00")
	entry, err := msgraph.MapEventToEntry(event, "Europe/Berlin", "meetings")
	if err != nil {
		t.Fatalf("MapEventToEntry: %v", err)
	}
	if want := time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC).Unix(); entry.From != want {
		t.Errorf("From = %d, want %d", entry.From, want)
	}
}

func TestMapEventToEntry_SanitizesText(t *testing.T) {
	event := makeEvent("ext-id-2", `Review "Q1, Q2"`, "2026-02-27T10:00:00", "2026-02-27T10:15:00")
	event.BodyPreview = "Daily standup,\r\nbring notes"
	event.Location.DisplayName = "Zoom"

	entry, err := msgraph.MapEventToEntry(event, "UTC", "Meetings")
	if err != nil {
		t.Fatalf("MapEventToEntry: %v", err)
	}
	if entry.Activity != "Review Q1 Q2" {
		t.Errorf("Activity = %q, want %q", entry.Activity, "Review Q1 Q2")
	}
	if entry.Comment != "Daily standup bring notes @ Zoom" {
		t.Errorf("Comment = %q, want %q", entry.Comment, "Daily standup bring notes @ Zoom")
	}
	if storage.Serialize(entry, now) == "" {
		t.Error("mapped entry does not serialize")
	}
}

func TestEventTag(t *testing.T) {
	a, b := msgraph.EventTag("AAMkAGI2TG93AAA="), msgraph.EventTag("AAMkAGI2TG93AAB=")
	if a == b {
		t.Errorf("EventTag collision for distinct IDs: %q", a)
	}
	if a != msgraph.EventTag("AAMkAGI2TG93AAA=") {
		t.Error("EventTag is not stable")
	}
	if len(a) != len("outlook:")+8 {
		t.Errorf("EventTag = %q, want outlook:<8 hex digits>", a)
	}
}

func TestSyncEvents_Import(t *testing.T) {
	repo := newRepo(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00"),
	}
	var out bytes.Buffer
	opts := syncOpts()
	opts.Out = &out

	result, err := msgraph.SyncEvents(repo, events, opts)
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("Imported = %d, want 1", result.Imported)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}
	if !bytes.Contains(out.Bytes(), []byte("Imported: Architecture Board (1h 30m)")) {
		t.Errorf("unexpected progress output %q", out.String())
	}

	entries := readAll(t, repo)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if !entries[0].HasTag(msgraph.EventTag("ext-1")) {
		t.Errorf("Tags = %v, want event tag", entries[0].Tags)
	}
}

func TestSyncEvents_Idempotent(t *testing.T) {
	repo := newRepo(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00"),
	}

	r1, err := msgraph.SyncEvents(repo, events, syncOpts())
	if err != nil {
		t.Fatalf("first SyncEvents: %v", err)
	}
	if r1.Imported != 1 {
		t.Errorf("first sync: Imported = %d, want 1", r1.Imported)
	}

	// Second sync must not duplicate.
	r2, err := msgraph.SyncEvents(repo, events, syncOpts())
	if err != nil {
		t.Fatalf("second SyncEvents: %v", err)
	}
	if r2.Imported != 0 {
		t.Errorf("second sync: Imported = %d, want 0 (idempotent)", r2.Imported)
	}
	if r2.Skipped != 1 {
		t.Errorf("second sync: Skipped = %d, want 1", r2.Skipped)
	}

	if n := len(readAll(t, repo)); n != 1 {
		t.Fatalf("entries = %d after 2 syncs, want 1", n)
	}
}

func TestSyncEvents_Update(t *testing.T) {
	repo := newRepo(t)
	event := makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00")

	if _, err := msgraph.SyncEvents(repo, []msgraph.CalendarEvent{event}, syncOpts()); err != nil {
		t.Fatalf("first SyncEvents: %v", err)
	}

	event.Subject = "Architecture Board (updated)"
	event.End.DateTime = "2026-02-27T11:00:00"

	r2, err := msgraph.SyncEvents(repo, []msgraph.CalendarEvent{event}, syncOpts())
	if err != nil {
		t.Fatalf("second SyncEvents: %v", err)
	}
	if r2.Updated != 1 {
		t.Errorf("Updated = %d, want 1", r2.Updated)
	}

	entries := readAll(t, repo)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Activity != "Architecture Board (updated)" {
		t.Errorf("Activity = %q, want updated", entries[0].Activity)
	}
	if got := entries[0].To - entries[0].From; got != 7200 {
		t.Errorf("duration = %d, want 7200", got)
	}
}

func TestSyncEvents_SkipFiltered(t *testing.T) {
	repo := newRepo(t)

	tests := []struct {
		name  string
		event msgraph.CalendarEvent
	}{
		{
			name: "cancelled",
			event: func() msgraph.CalendarEvent {
				e := makeEvent("c1", "Cancelled", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.IsCancelled = true
				return e
			}(),
		},
		{
			name: "all-day",
			event: func() msgraph.CalendarEvent {
				e := makeEvent("c2", "All Day", "2026-02-27T00:00:00", "2026-02-28T00:00:00")
				e.IsAllDay = true
				return e
			}(),
		},
		{
			name: "private",
			event: func() msgraph.CalendarEvent {
				e := makeEvent("c3", "Private", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.Sensitivity = "private"
				return e
			}(),
		},
		{
			name: "free",
			event: func() msgraph.CalendarEvent {
				e := makeEvent("c4", "Free Block", "2026-02-27T09:00:00", "2026-02-27T10:00:00")
				e.ShowAs = "free"
				return e
			}(),
		},
		{
			name:  "not finished",
			event: makeEvent("c5", "Late Call", "2026-02-27T17:30:00", "2026-02-27T18:30:00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := msgraph.SyncEvents(repo, []msgraph.CalendarEvent{tt.event}, syncOpts())
			if err != nil {
				t.Fatalf("SyncEvents: %v", err)
			}
			if r.Imported != 0 {
				t.Errorf("expected 0 imported for %s event, got %d", tt.name, r.Imported)
			}
		})
	}
	if n := len(readAll(t, repo)); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}

func TestSyncEvents_DryRun(t *testing.T) {
	repo := newRepo(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-dry", "Dry Run Event", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
	}
	opts := syncOpts()
	opts.DryRun = true

	result, err := msgraph.SyncEvents(repo, events, opts)
	if err != nil {
		t.Fatalf("SyncEvents dry-run: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("dry-run Imported = %d, want 1", result.Imported)
	}
	if n := len(readAll(t, repo)); n != 0 {
		t.Errorf("dry-run wrote %d entries, want 0", n)
	}
}

func TestSyncEvents_PreservesManualEntries(t *testing.T) {
	repo := newRepo(t)
	manual := model.Entry{
		From:     time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC).Unix(),
		To:       time.Date(2026, 2, 27, 13, 0, 0, 0, time.UTC).Unix(),
		Activity: "lunch",
		Comment:  "pasta",
	}
	if err := repo.Append(manual); err != nil {
		t.Fatalf("appending manual entry: %v", err)
	}

	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Meeting", "2026-02-27T11:00:00", "2026-02-27T12:00:00"),
	}
	if _, err := msgraph.SyncEvents(repo, events, syncOpts()); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}

	entries := readAll(t, repo)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (manual + imported)", len(entries))
	}
	// Ordered by start time: the meeting precedes lunch.
	if entries[0].Activity != "Meeting" {
		t.Errorf("entries[0].Activity = %q, want %q", entries[0].Activity, "Meeting")
	}
	if entries[1].Activity != "lunch" || entries[1].Comment != "pasta" {
		t.Errorf("manual entry changed: %+v", entries[1])
	}
}

func TestSyncEvents_KeepsRunningEntryLast(t *testing.T) {
	repo := newRepo(t)
	started := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC).Unix()
	if err := repo.Append(model.Entry{From: started}); err != nil {
		t.Fatalf("starting entry: %v", err)
	}

	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "standup", "2026-02-27T09:30:00", "2026-02-27T10:00:00"),
	}
	if _, err := msgraph.SyncEvents(repo, events, syncOpts()); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}

	entries := readAll(t, repo)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Activity != "standup" {
		t.Errorf("entries[0].Activity = %q, want %q", entries[0].Activity, "standup")
	}
	last, err := repo.Last()
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if last.From != started || last.To != 0 {
		t.Errorf("Last() = %+v, want the running entry started at %d", last, started)
	}
}

func TestSyncEvents_ProgressIsASCII(t *testing.T) {
	repo := newRepo(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Review", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
		makeEvent("ext-2", "Later", "2026-02-27T17:00:00", "2026-02-27T19:00:00"),
	}
	var out bytes.Buffer
	opts := syncOpts()
	opts.Out = &out
	if _, err := msgraph.SyncEvents(repo, events, opts); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if _, err := msgraph.SyncEvents(repo, events, opts); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	for _, r := range out.String() {
		if r >= 0x80 {
			t.Fatalf("non-ASCII %q in progress output:\n%s", r, out.String())
		}
	}
}
