package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"modernc.org/sqlite"
)

func TestWithRetry_RetriesOnBusy(t *testing.T) {
	ctx := context.Background()
	attempts := 0

	err := withRetry(ctx, 3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetry_StopsOnNonBusy(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		return errors.New("no such table: dismissals")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithRetry_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := withRetry(ctx, 5, 50*time.Millisecond, func() error {
		attempts++
		cancel()
		return errors.New("SQLITE_BUSY")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestIsBusyError_IgnoresUnrelatedCodesInText(t *testing.T) {
	for _, msg := range []string{`near "(5)": syntax error`, "constraint failed: dismissals.loop_id (5)"} {
		if isBusyError(errors.New(msg)) {
			t.Fatalf("%q should not be treated as busy", msg)
		}
	}
	if !isBusyError(errors.New("database is locked")) {
		t.Fatal("expected lock message to be busy")
	}
}

func TestIsBusyError_SQLiteBusyCode(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "busy.db")

	holder, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("open holder: %v", err)
	}
	defer holder.Close()
	if _, err := holder.MigrateUp(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tx, err := holder.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO dismissals (id, loop_id, created_at) VALUES ('h', 'loop-h', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("hold write lock: %v", err)
	}

	other, err := Open(Config{Path: path, BusyTimeout: time.Millisecond})
	if err != nil {
		t.Fatalf("open other: %v", err)
	}
	defer other.Close()

	_, err = other.ExecContext(ctx, `INSERT INTO dismissals (id, loop_id, created_at) VALUES ('o', 'loop-o', '2026-01-01T00:00:00Z')`)
	if err == nil {
		t.Fatal("expected write to fail while locked")
	}
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		t.Fatalf("expected *sqlite.Error, got %T: %v", err, err)
	}
	if !isBusyError(err) {
		t.Fatalf("expected busy, got %v (code %d)", err, sqliteErr.Code())
	}
}

func TestTransactionWithRetry_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	boom := errors.New("boom")
	err := db.TransactionWithRetry(ctx, 3, time.Millisecond, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO dismissals (id, loop_id, created_at) VALUES ('x', 'loop-x', '2026-01-01T00:00:00Z')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := NewDismissalRepository(db).Get(ctx, "loop-x"); !errors.Is(err, ErrDismissalNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
}
