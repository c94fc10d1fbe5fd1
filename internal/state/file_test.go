package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"oi-monitor/internal/types"
)

func TestFileStoreMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	st, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(st) != 0 {
		t.Errorf("Load() = %v, want empty", st)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	for _, content := range []string{"{not json", "[1,2,3]", `{"BTCUSDT":"yesterday"}`, ""} {
		path := filepath.Join(t.TempDir(), "state.json")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		st, err := NewFileStore(path).Load(context.Background())
		if err != nil {
			t.Errorf("Load(%q) error: %v", content, err)
		}
		if st == nil || len(st) != 0 {
			t.Errorf("Load(%q) = %v, want empty map", content, st)
		}
	}
}

func TestFileStoreRoundTripOverwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)

	if err := s.Save(ctx, types.AlertState{"OLDUSDT": 1}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Save(ctx, types.AlertState{"BTCUSDT": 1700000000, "ETHUSDT": 1700000060}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(st) != 2 || st["BTCUSDT"] != 1700000000 || st["ETHUSDT"] != 1700000060 {
		t.Errorf("Load() = %v", st)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"BTCUSDT\": 1700000000,\n  \"ETHUSDT\": 1700000060\n}"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
