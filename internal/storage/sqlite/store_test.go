package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"cafe_finder/internal/domain"
	"cafe_finder/internal/saved"
	"cafe_finder/internal/storage/sqlite"
)

func TestOpen_CreatesFileAndMigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cafes.db")
	s, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	s, err = sqlite.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = s.Close()
}

func TestStore_PutGetOverwrite(t *testing.T) {
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "cafes.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "savedCafes"); ok || err != nil {
		t.Fatalf("expected miss: %v %v", ok, err)
	}
	_ = s.Put(ctx, "savedCafes", []byte(`[1]`))
	if err := s.Put(ctx, "savedCafes", []byte(`[2]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	body, ok, err := s.Get(ctx, "savedCafes")
	if err != nil || !ok || string(body) != `[2]` {
		t.Fatalf("unexpected: %q %v %v", body, ok, err)
	}
}

func TestSavedList_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cafes.db")
	ctx := context.Background()

	s, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	list := saved.New(s, "", "sqlite", zerolog.Nop())
	_, _ = list.Load(ctx)
	_, _ = list.Add(ctx, domain.Cafe{ID: "1", Name: "The Daily Grind", Rating: 4.8})
	_, _ = list.Add(ctx, domain.Cafe{ID: "1", Name: "The Daily Grind", Rating: 4.8})
	_ = s.Close()

	s, err = sqlite.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	items, err := saved.New(s, "", "sqlite", zerolog.Nop()).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 1 || items[0].Name != "The Daily Grind" {
		t.Fatalf("unexpected items after restart: %+v", items)
	}
}
