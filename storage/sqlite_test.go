package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/richinex/tutorgen/model"
)

func TestSqliteStorageSaveAndLoad(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	history := model.History{
		{Question: "sorting algorithms", Answer: "```python\nprint(1)\n```"},
		{Question: "ml", Answer: "Machine learning"},
	}

	if err := storage.Save(ctx, "test-session", history); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := storage.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(loaded))
	}
	if loaded[0] != history[0] {
		t.Errorf("expected %+v, got %+v", history[0], loaded[0])
	}
	if loaded[1] != history[1] {
		t.Errorf("expected %+v, got %+v", history[1], loaded[1])
	}
}

func TestSqliteStorageLoadNonexistentSession(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	loaded, err := storage.Load(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded == nil {
		t.Error("expected empty history, got nil")
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty history, got %d turns", len(loaded))
	}
}

func TestSqliteStorageOverwrite(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	first := model.History{{Question: "First", Answer: "1"}}
	second := model.History{
		{Question: "Second", Answer: "2"},
		{Question: "Third", Answer: "3"},
	}

	if err := storage.Save(ctx, "test-session", first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := storage.Save(ctx, "test-session", second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := storage.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(loaded))
	}
	if loaded[0].Question != "Second" {
		t.Errorf("expected 'Second', got '%s'", loaded[0].Question)
	}
}

func TestSqliteStorageDeleteSession(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	if err := storage.Save(ctx, "test-session", model.History{{Question: "q", Answer: "a"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	exists, err := storage.Exists(ctx, "test-session")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected session to exist")
	}

	if err := storage.Delete(ctx, "test-session"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, _ = storage.Exists(ctx, "test-session")
	if exists {
		t.Error("expected session to not exist after delete")
	}

	// Turns go with the session
	loaded, err := storage.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected turns to be deleted, got %d", len(loaded))
	}
}

func TestSqliteStorageEmptyHistoryCreatesSession(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	if err := storage.Save(ctx, "empty", model.History{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	exists, _ := storage.Exists(ctx, "empty")
	if !exists {
		t.Error("expected session to exist")
	}
}

func TestSqliteStorageListSessions(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	history := model.History{{Question: "q", Answer: "a"}}
	_ = storage.Save(ctx, "session-1", history)
	_ = storage.Save(ctx, "session-2", history)

	sessions, err := storage.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}

	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestSqliteStoragePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tutorgen.db")
	ctx := context.Background()

	storage, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	if err := storage.Save(ctx, "persisted", model.History{{Question: "topic", Answer: "answer"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	storage.Close()

	reopened, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "persisted")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Answer != "answer" {
		t.Errorf("expected persisted turn, got %+v", loaded)
	}
}

func TestSqliteStorageSummaries(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	_ = storage.Save(ctx, "two", model.History{{Question: "a", Answer: "1"}, {Question: "b", Answer: "2"}})
	_ = storage.Save(ctx, "none", model.History{})

	summaries, err := storage.Summaries(ctx)
	if err != nil {
		t.Fatalf("Summaries failed: %v", err)
	}

	counts := make(map[string]int)
	for _, s := range summaries {
		counts[s.ID] = s.Turns
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 sessions, got %v", summaries)
	}
	if counts["two"] != 2 {
		t.Errorf("expected 2 turns for 'two', got %d", counts["two"])
	}
	if counts["none"] != 0 {
		t.Errorf("expected 0 turns for 'none', got %d", counts["none"])
	}
}
