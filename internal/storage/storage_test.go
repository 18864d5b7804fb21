package storage

import (
	"errors"
	"os"
	"sort"
	"testing"
	"time"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetGame(t *testing.T) {
	s := newTestStore(t)

	want := &Game{
		Key:       "abc123def456ghi",
		StartFEN:  startFEN,
		Moves:     []string{"e2e4", "e7e5", "g1f3"},
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC),
	}
	if err := s.PutGame(want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetGame(want.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Key != want.Key || got.StartFEN != want.StartFEN {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if len(got.Moves) != 3 || got.Moves[2] != "g1f3" {
		t.Errorf("moves = %v", got.Moves)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("updated at = %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}
}

func TestGetMissingGame(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetGame("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)

	g := &Game{Key: "k", StartFEN: startFEN, Moves: []string{"e2e4"}}
	if err := s.PutGame(g); err != nil {
		t.Fatal(err)
	}
	g.Moves = append(g.Moves, "c7c5")
	if err := s.PutGame(g); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetGame("k")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Moves) != 2 {
		t.Errorf("moves = %v, want the rewritten pair", got.Moves)
	}
}

func TestDeleteGame(t *testing.T) {
	s := newTestStore(t)

	if err := s.PutGame(&Game{Key: "gone", StartFEN: startFEN}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteGame("gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetGame("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted game still readable, err = %v", err)
	}
	if err := s.DeleteGame("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestKeys(t *testing.T) {
	s := newTestStore(t)

	want := []string{"alpha", "bravo", "charlie"}
	for _, k := range want {
		if err := s.PutGame(&Game{Key: k, StartFEN: startFEN}); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestReopenKeepsGames(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.PutGame(&Game{Key: "persist", StartFEN: startFEN, Moves: []string{"d2d4"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.GetGame("persist")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if len(got.Moves) != 1 || got.Moves[0] != "d2d4" {
		t.Errorf("moves after reopen = %v", got.Moves)
	}
}

func TestDataPaths(t *testing.T) {
	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if dataDir == "" {
		t.Fatal("DataDir returned empty path")
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("data directory not created: %v", err)
	}
	t.Logf("data directory: %s", dataDir)
}
