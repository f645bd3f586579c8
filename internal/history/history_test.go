package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/klima7/signalbot/pkg/message"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	msgs := []*message.Message{
		{Source: "+100", Timestamp: 1, Kind: message.KindDataMessage, Text: "first", Group: "G1"},
		{Source: "+200", Timestamp: 2, Kind: message.KindDataMessage, Text: "second", Group: "G1"},
		{Source: "+100", Timestamp: 3, Kind: message.KindSyncMessage, Text: "elsewhere"},
	}
	for _, msg := range msgs {
		if err := store.Record(ctx, msg); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	entries, err := store.Recent(ctx, "G1", 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	// Newest first.
	if entries[0].Text != "second" || entries[1].Text != "first" {
		t.Errorf("order = [%q %q], want [second first]", entries[0].Text, entries[1].Text)
	}
	if entries[0].Kind != message.KindDataMessage {
		t.Errorf("Kind = %q, want %q", entries[0].Kind, message.KindDataMessage)
	}
	if entries[0].Recipient != "G1" {
		t.Errorf("Recipient = %q, want G1", entries[0].Recipient)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestRecent_Limit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		msg := &message.Message{Source: "+100", Timestamp: int64(i), Kind: message.KindDataMessage, Text: "m"}
		if err := store.Record(ctx, msg); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	entries, err := store.Recent(ctx, "+100", 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}

	if entries, _ := store.Recent(ctx, "+100", 0); entries != nil {
		t.Errorf("Recent(0) = %v, want nil", entries)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	_ = store.Close()
}
