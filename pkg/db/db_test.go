package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/japaniel/jisho2anki/pkg/config"
	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestInitDBCreatesSchema verifies InitDB creates both tables and is safe to
// run again on an existing database.
func TestInitDBCreatesSchema(t *testing.T) {
	conn := setupTestDB(t)

	for _, table := range []string{"settings", "submissions"} {
		var name string
		if err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
	if err := InitDB(conn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
}

func TestSettingsStoreGetMissing(t *testing.T) {
	s := NewSettingsStore(setupTestDB(t))
	if _, err := s.Get(context.Background(), "nope"); err != config.ErrNotFound {
		t.Fatalf("expected config.ErrNotFound, got %v", err)
	}
}

func TestSettingsStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewSettingsStore(setupTestDB(t))

	if err := s.Put(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "k", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("put again: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Fatalf("expected overwritten value, got %s", got)
	}
	if err := s.Put(ctx, " ", nil); err == nil {
		t.Fatalf("expected error for blank key")
	}
}

func TestConfigPersistsThroughSettingsStore(t *testing.T) {
	ctx := context.Background()
	s := NewSettingsStore(setupTestDB(t))

	cfg := config.Default()
	cfg.DeckName = "Japanese::Vocab"
	cfg.NoteTypeName = "Basic"
	cfg.SetMapping("Basic", config.FieldMapping{"Front": {"expression"}})
	if err := config.Save(ctx, s, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := config.Load(ctx, s)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.DeckName != cfg.DeckName || got.FieldMapping["Basic"]["Front"][0] != "expression" {
		t.Fatalf("unexpected config after reload: %+v", got)
	}
}

func TestRecordAndQuerySubmissions(t *testing.T) {
	conn := setupTestDB(t)

	if _, err := RecordSubmission(conn, Submission{RunID: "run-1", Expression: "猫", Reading: "ねこ", Outcome: "created", NoteID: 42}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := RecordSubmission(conn, Submission{RunID: "run-1", Expression: "犬", Outcome: "failed", Reason: "deck not found"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := RecordSubmission(conn, Submission{RunID: "run-2", Expression: "猫", Outcome: "duplicate"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	subs, err := GetSubmissionsByRun(conn, "run-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	if subs[0].Expression != "猫" || subs[0].NoteID != 42 || subs[0].Reading != "ねこ" {
		t.Fatalf("unexpected first submission: %+v", subs[0])
	}
	if subs[1].NoteID != 0 || subs[1].Reason != "deck not found" {
		t.Fatalf("unexpected second submission: %+v", subs[1])
	}

	last, err := LastCreated(conn, "猫")
	if err != nil {
		t.Fatalf("last created: %v", err)
	}
	if last == nil || last.NoteID != 42 {
		t.Fatalf("expected note 42, got %+v", last)
	}
	none, err := LastCreated(conn, "犬")
	if err != nil {
		t.Fatalf("last created: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for never-created word, got %+v", none)
	}
}

func TestRecordSubmissionValidates(t *testing.T) {
	conn := setupTestDB(t)
	if _, err := RecordSubmission(conn, Submission{Outcome: "created"}); err == nil {
		t.Fatalf("expected error for missing run id")
	}
	if _, err := RecordSubmission(conn, Submission{RunID: "r"}); err == nil {
		t.Fatalf("expected error for missing outcome")
	}
}
