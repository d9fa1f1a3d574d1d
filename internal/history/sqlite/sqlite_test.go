package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nodeharness/nodeharness/internal/history"
)

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	sink, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = sink.Close() }()

	ctx := context.Background()
	events := []history.Event{
		{RunID: "r1", Daemon: "btc1", Type: history.EventStart, PID: 100, OccurredAt: time.Now().UTC()},
		{RunID: "r1", Daemon: "btc1", Type: history.EventStop, PID: 100, Detail: "terminated", OccurredAt: time.Now().UTC()},
		{RunID: "r1", Daemon: "btc1", Type: history.EventExit, PID: 100, Detail: "exit code 0", OccurredAt: time.Now().UTC()},
	}
	for _, e := range events {
		if err := sink.Send(ctx, e); err != nil {
			t.Fatalf("Send(%v): %v", e.Type, err)
		}
	}

	var count int
	row := sink.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM daemon_history WHERE run_id = ?", "r1")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan count: %v", err)
	}
	if count != 3 {
		t.Fatalf("stored %d events, want 3", count)
	}

	var event, detail string
	row = sink.db.QueryRowContext(ctx,
		"SELECT event, detail FROM daemon_history WHERE run_id = ? ORDER BY occurred_at DESC LIMIT 1", "r1")
	if err := row.Scan(&event, &detail); err != nil {
		t.Fatalf("scan last event: %v", err)
	}
	if event != string(history.EventExit) || detail != "exit code 0" {
		t.Fatalf("last event = %q %q", event, detail)
	}
}

func TestNewStripsScheme(t *testing.T) {
	sink, err := New("sqlite://" + filepath.Join(t.TempDir(), "h.db"))
	if err != nil {
		t.Fatalf("New with scheme: %v", err)
	}
	_ = sink.Close()
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("empty DSN accepted")
	}
}
