package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// openTestStore opens a store whose clock advances one second per call.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	store.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreBeginAndFinishRun(t *testing.T) {
	store := openTestStore(t)

	id, err := store.BeginRun("demo:bounce", "demo:bounce")
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("run ID %q is not a UUID", id)
	}

	run, err := store.Run(id)
	if err != nil || run == nil {
		t.Fatalf("Run() = %v, %v", run, err)
	}
	if run.Outcome != OutcomeRunning || !run.EndedAt.IsZero() || run.Duration() != 0 {
		t.Errorf("open run = %+v", run)
	}

	if err := store.FinishRun(id, OutcomeErrored, "boom", 42); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	run, err = store.Run(id)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if run.Outcome != OutcomeErrored || run.Message != "boom" || run.Ticks != 42 {
		t.Errorf("finished run = %+v", run)
	}
	if run.Duration() != time.Second {
		t.Errorf("Duration() = %v, expected 1s", run.Duration())
	}
}

func TestStoreFinishUnknownRun(t *testing.T) {
	store := openTestStore(t)
	if err := store.FinishRun("no-such-run", OutcomeStopped, "", 0); err == nil {
		t.Error("FinishRun() of unknown run should fail")
	}

	run, err := store.Run("no-such-run")
	if err != nil || run != nil {
		t.Errorf("Run() of unknown id = %v, %v", run, err)
	}
}

func TestStoreRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)

	for _, ref := range []string{"a.lua", "b.lua", "a.lua", "c.lua"} {
		if _, err := store.BeginRun(ref, filepath.Base(ref)); err != nil {
			t.Fatalf("BeginRun() failed: %v", err)
		}
	}

	runs, err := store.Runs("", 10)
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if len(runs) != 4 {
		t.Fatalf("Expected 4 runs, got %d", len(runs))
	}
	if runs[0].Script != "c.lua" || runs[3].Script != "a.lua" {
		t.Errorf("runs not newest first: %v, %v", runs[0].Script, runs[3].Script)
	}

	onlyA, err := store.Runs("a.lua", 10)
	if err != nil {
		t.Fatalf("Runs(a.lua) failed: %v", err)
	}
	if len(onlyA) != 2 {
		t.Errorf("Expected 2 runs of a.lua, got %d", len(onlyA))
	}

	limited, _ := store.Runs("", 2)
	if len(limited) != 2 {
		t.Errorf("Expected 2 runs with limit, got %d", len(limited))
	}
}

func TestStoreRecentScripts(t *testing.T) {
	store := openTestStore(t)

	for _, ref := range []string{"a.lua", "b.lua", "a.lua", "c.lua", "b.lua"} {
		store.BeginRun(ref, ref)
	}

	recent, err := store.RecentScripts(10)
	if err != nil {
		t.Fatalf("RecentScripts() failed: %v", err)
	}

	expected := []string{"b.lua", "c.lua", "a.lua"}
	if len(recent) != len(expected) {
		t.Fatalf("RecentScripts() = %v, expected %v", recent, expected)
	}
	for i := range expected {
		if recent[i] != expected[i] {
			t.Errorf("RecentScripts()[%d] = %q, expected %q", i, recent[i], expected[i])
		}
	}
}

func TestStoreScriptStats(t *testing.T) {
	store := openTestStore(t)

	id1, _ := store.BeginRun("game.lua", "game.lua")
	store.FinishRun(id1, OutcomeErrored, "bad", 10)
	id2, _ := store.BeginRun("game.lua", "game.lua")
	store.FinishRun(id2, OutcomeStopped, "", 5)
	store.BeginRun("demo:keys", "demo:keys")

	stats, err := store.ScriptStats()
	if err != nil {
		t.Fatalf("ScriptStats() failed: %v", err)
	}

	game := stats["game.lua"]
	if game == nil {
		t.Fatal("missing stats for game.lua")
	}
	if game.Runs != 2 || game.Errors != 1 || game.Ticks != 15 {
		t.Errorf("game.lua stats = %+v", game)
	}
	if game.LastRun.IsZero() || game.LastName != "game.lua" {
		t.Errorf("game.lua last run = %v %q", game.LastRun, game.LastName)
	}
	if keys := stats["demo:keys"]; keys == nil || keys.Runs != 1 || keys.Errors != 0 {
		t.Errorf("demo:keys stats = %+v", keys)
	}
}

func TestStoreClearRuns(t *testing.T) {
	store := openTestStore(t)

	store.BeginRun("a.lua", "a.lua")
	store.BeginRun("a.lua", "a.lua")
	store.BeginRun("b.lua", "b.lua")

	// Clear only a.lua
	if err := store.ClearRuns("a.lua"); err != nil {
		t.Fatalf("ClearRuns() failed: %v", err)
	}
	if runs, _ := store.Runs("a.lua", 10); len(runs) != 0 {
		t.Errorf("Expected 0 runs of a.lua after clear, got %d", len(runs))
	}
	if runs, _ := store.Runs("b.lua", 10); len(runs) != 1 {
		t.Error("b.lua runs should not be affected by clearing a.lua")
	}

	// Clear everything
	if err := store.ClearRuns(""); err != nil {
		t.Fatalf("ClearRuns() failed: %v", err)
	}
	if runs, _ := store.Runs("", 10); len(runs) != 0 {
		t.Errorf("Expected no runs after clearing all, got %d", len(runs))
	}
}

func TestStoreNestedPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	// Verify nested directories were created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}
