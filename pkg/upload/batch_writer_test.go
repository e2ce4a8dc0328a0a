package upload

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/japaniel/jisho2anki/pkg/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := conn.Exec("CREATE TABLE test (id INTEGER PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return conn
}

func insert(val string) WriteFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO test (val) VALUES (?)", val)
		return err
	}
}

func countRows(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM test").Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return n
}

func TestBatchWriterTransactions(t *testing.T) {
	conn := openTestDB(t)
	bw := NewBatchWriter(conn, 2, 0)

	bw.Submit(insert("A"))
	bw.Submit(insert("B"))
	bw.Submit(insert("C"))

	doneCh := make(chan error, 1)
	go func() { doneCh <- bw.Close() }()
	select {
	case err := <-doneCh:
		if err != nil {
			t.Fatalf("close failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for batch commit/close")
	}

	if n := countRows(t, conn); n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
}

func TestBatchWriterRollback(t *testing.T) {
	conn := openTestDB(t)
	bw := NewBatchWriter(conn, 2, 0)
	errCh := make(chan error, 1)
	bw.OnError = func(e error) { errCh <- e }

	// The second write fails, so the whole batch rolls back.
	bw.Submit(insert("C"))
	bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
		return fmt.Errorf("intentional error")
	})

	if err := bw.Close(); err == nil {
		t.Fatal("expected Close to return the batch error")
	}
	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	default:
		t.Fatal("expected OnError to be called")
	}

	if n := countRows(t, conn); n != 0 {
		t.Fatalf("expected 0 rows (rollback), got %d", n)
	}
}

func TestBatchWriterFlushesOnInterval(t *testing.T) {
	conn := openTestDB(t)
	bw := NewBatchWriter(conn, 10, 20*time.Millisecond)
	defer bw.Close()

	if err := bw.Submit(insert("A")); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for countRows(t, conn) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("interval flush never committed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBatchWriterClosed(t *testing.T) {
	conn := openTestDB(t)
	bw := NewBatchWriter(conn, 2, 0)
	if err := bw.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := bw.Submit(insert("A")); err != ErrBatchWriterClosed {
		t.Fatalf("expected ErrBatchWriterClosed, got %v", err)
	}
	if err := bw.Close(); err != ErrBatchWriterClosed {
		t.Fatalf("expected ErrBatchWriterClosed on second close, got %v", err)
	}
}
