package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mathlens/snaptrack/internal/event"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndHistory(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	ev := event.New("scan_completed", map[string]any{"screen": "Scanner"})
	id, err := j.Append(ctx, "user-1", ev, 42)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id == 0 {
		t.Error("Append returned zero id")
	}

	entries, err := j.History(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.Name != "scan_completed" || got.Tokens != 42 {
		t.Errorf("entry = %+v", got)
	}
	if got.Timestamp != ev.Timestamp {
		t.Errorf("Timestamp = %q, want %q", got.Timestamp, ev.Timestamp)
	}
	if got.Metadata["screen"] != "Scanner" {
		t.Errorf("Metadata = %v", got.Metadata)
	}
}

func TestHistoryNewestFirstAndLimited(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if _, err := j.Append(ctx, "user-1", event.New(name, nil), 0); err != nil {
			t.Fatalf("Append %s: %v", name, err)
		}
	}

	entries, err := j.History(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Name != "third" || entries[1].Name != "second" {
		t.Errorf("order = [%s, %s], want [third, second]", entries[0].Name, entries[1].Name)
	}
}

func TestUserTotalsIsolatesUsers(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	if _, err := j.Append(ctx, "user-1", event.New("chat_message", nil), 10); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := j.Append(ctx, "user-1", event.New("chat_message", nil), 15); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := j.Append(ctx, "user-2", event.New("chat_message", nil), 99); err != nil {
		t.Fatalf("Append: %v", err)
	}

	totals, err := j.UserTotals(ctx, "user-1")
	if err != nil {
		t.Fatalf("UserTotals: %v", err)
	}
	if totals.Events != 2 || totals.Tokens != 25 {
		t.Errorf("totals = %+v, want 2 events / 25 tokens", totals)
	}

	empty, err := j.UserTotals(ctx, "user-3")
	if err != nil {
		t.Fatalf("UserTotals empty: %v", err)
	}
	if empty.Events != 0 || empty.Tokens != 0 {
		t.Errorf("empty totals = %+v", empty)
	}
}
