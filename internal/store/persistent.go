// Package store implements zortex-core's durable JSON state files: atomic
// temp-file-plus-rename writes, corrupt-file recovery, and a
// PersistenceManager that batches dirty stores onto a shared flush window.
//
// The atomic-write sequence (marshal -> write "<path>.tmp.<pid>" -> fsync ->
// rename over target) is the same discipline OCTOREFLEX's camouflage hint
// writer uses for its root-owned hint files, generalized here to a plain
// operator-owned JSON state file with no chown step.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zortex-io/zortex-core/internal/zerr"
)

// Persistent wraps an in-memory value of type T with durable JSON
// persistence at a single path. Safe for concurrent use.
type Persistent[T any] struct {
	mu     sync.Mutex
	path   string
	state  T
	dirty  bool
	loaded bool
	empty  func() T
	log    zerolog.Logger
}

// New creates a store backed by the JSON file at path. empty constructs the
// zero-value shape written on first run or after corruption recovery.
func New[T any](path string, empty func() T, log zerolog.Logger) *Persistent[T] {
	return &Persistent[T]{
		path:  path,
		empty: empty,
		log:   log.With().Str("component", "store").Str("path", path).Logger(),
	}
}

// Load reads the state file, initializing it on first run. A parse failure
// renames the corrupt file aside as "<path>.backup.<epoch>" and reinitializes
// in-memory state; Load never returns an error for a corrupt file, only for
// an unrecoverable I/O failure on the recovery path itself. Load is
// idempotent: calling it again after a successful load is a no-op.
func (p *Persistent[T]) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return nil
	}

	data, err := os.ReadFile(p.path)
	switch {
	case os.IsNotExist(err):
		p.state = p.empty()
		p.loaded = true
		p.dirty = true
		return p.saveLocked()
	case err != nil:
		return zerr.IOError("read state file", err)
	}

	var state T
	if jerr := json.Unmarshal(data, &state); jerr != nil {
		p.log.Warn().Err(jerr).Msg("corrupt state file, backing up and reinitializing")
		if berr := p.backupCorruptLocked(); berr != nil {
			return berr
		}
		p.state = p.empty()
		p.loaded = true
		p.dirty = true
		return p.saveLocked()
	}

	p.state = state
	p.loaded = true
	return nil
}

func (p *Persistent[T]) backupCorruptLocked() error {
	backupPath := fmt.Sprintf("%s.backup.%d", p.path, time.Now().Unix())
	if err := os.Rename(p.path, backupPath); err != nil {
		return zerr.IOError("backup corrupt state file", err)
	}
	return nil
}

// View runs fn with read access to the current in-memory state. Load must
// have been called first.
func (p *Persistent[T]) View(fn func(T)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.state)
}

// Update runs fn with mutable access to the in-memory state and marks the
// store dirty. The mutation is applied whether or not a later Save
// succeeds: mutations are in-memory first, persistence is best-effort.
func (p *Persistent[T]) Update(fn func(*T)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.state)
	p.dirty = true
}

// MarkDirty flags the store for the next batched flush without mutating it.
func (p *Persistent[T]) MarkDirty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty = true
}

// Save unconditionally serializes and writes the current state via the
// atomic temp-file-plus-rename sequence.
func (p *Persistent[T]) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saveLocked()
}

// SaveIfDirty flushes only if MarkDirty/Update was called since the last
// successful save. On write failure the dirty flag is left set so the next
// flush retries.
func (p *Persistent[T]) SaveIfDirty() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return nil
	}
	return p.saveLocked()
}

func (p *Persistent[T]) saveLocked() error {
	data, err := json.MarshalIndent(p.state, "", "  ")
	if err != nil {
		return zerr.IOError("marshal state", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerr.IOError("create state directory", err)
	}

	tmp := fmt.Sprintf("%s.tmp.%d", p.path, os.Getpid())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return zerr.IOError("open temp state file", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return zerr.IOError("write temp state file", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return zerr.IOError("sync temp state file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return zerr.IOError("close temp state file", err)
	}

	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp)
		return zerr.IOError("rename temp state file over target", err)
	}

	p.dirty = false
	return nil
}

// IsDirty reports whether unsaved mutations are pending.
func (p *Persistent[T]) IsDirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}
