package db

import (
	"context"
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := database.MigrateUp(context.Background()); err != nil {
		database.Close()
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	applied, err := database.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected no pending migrations, got %d", applied)
	}

	version, err := database.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("expected schema version %d, got %d", len(migrations), version)
	}
}

func TestOpenFileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "pedrito.db")

	database, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := database.MigrateUp(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := NewDismissalRepository(database)
	if _, err := repo.Add(ctx, "loop-1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	database.Close()

	reopened, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := NewDismissalRepository(reopened).Get(ctx, "loop-1")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.LoopID != "loop-1" {
		t.Fatalf("unexpected loop id: %s", got.LoopID)
	}
	if reopened.Path() != path {
		t.Fatalf("unexpected path: %s", reopened.Path())
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
