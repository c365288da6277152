package db

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return database
}

func TestMigrate_Idempotent(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	version, err := database.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("version=%d want %d", version, currentSchemaVersion)
	}
}

func TestPaired_DefaultsFalse(t *testing.T) {
	database := openTestDB(t)

	paired, err := database.Paired(context.Background())
	if err != nil {
		t.Fatalf("Paired: %v", err)
	}
	if paired {
		t.Error("fresh database should report not paired")
	}
}

func TestSetPaired_RoundTrip(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	if err := database.SetPaired(ctx, true); err != nil {
		t.Fatalf("SetPaired(true): %v", err)
	}
	paired, err := database.Paired(ctx)
	if err != nil {
		t.Fatalf("Paired: %v", err)
	}
	if !paired {
		t.Error("expected paired=true after SetPaired(true)")
	}

	if err := database.SetPaired(ctx, false); err != nil {
		t.Fatalf("SetPaired(false): %v", err)
	}
	paired, err = database.Paired(ctx)
	if err != nil {
		t.Fatalf("Paired: %v", err)
	}
	if paired {
		t.Error("expected paired=false after SetPaired(false)")
	}
}

func TestSetting_Missing(t *testing.T) {
	database := openTestDB(t)

	_, ok, err := database.Setting(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Setting: %v", err)
	}
	if ok {
		t.Error("missing key should report ok=false")
	}
}
