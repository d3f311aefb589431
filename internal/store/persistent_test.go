package store

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

type sample struct {
	Count int `json:"count"`
}

func testLog() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestLoadInitializesOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	p := New(path, func() sample { return sample{Count: 0} }, testLog())
	if err := p.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected state file to be created, stat error = %v", err)
	}
}

func TestUpdateMarksDirtyAndSavePersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	p := New(path, func() sample { return sample{} }, testLog())
	if err := p.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	p.Update(func(s *sample) { s.Count = 42 })
	if !p.IsDirty() {
		t.Fatal("expected store to be dirty after Update")
	}

	if err := p.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if p.IsDirty() {
		t.Fatal("expected store to be clean after Save")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var got sample
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Count != 42 {
		t.Fatalf("persisted count = %d, want 42", got.Count)
	}
}

func TestSaveIfDirtyNoOpWhenClean(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	p := New(path, func() sample { return sample{} }, testLog())
	if err := p.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := p.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	modTimeBefore := info.ModTime()

	if err := p.SaveIfDirty(); err != nil {
		t.Fatalf("SaveIfDirty() error = %v", err)
	}
	info, err = os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.ModTime().Equal(modTimeBefore) {
		t.Fatal("expected SaveIfDirty to be a no-op on a clean store")
	}
}

func TestLoadRecoversFromCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := os.WriteFile(path, []byte("{not valid json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	p := New(path, func() sample { return sample{Count: 7} }, testLog())
	if err := p.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var got sample
	p.View(func(s sample) { got = s })
	if got.Count != 7 {
		t.Fatalf("state after corrupt recovery = %+v, want Count=7", got)
	}

	matches, err := filepath.Glob(path + ".backup.*")
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one backup file, found %d", len(matches))
	}
}
