// Package filelock keeps two agent runs from overlapping, using flock on a
// lock file with a JSON .meta file naming the holder.
package filelock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("filelock: held by another process")

// Lock is an acquired run lock.
type Lock struct {
	Path string
	file *os.File
}

// Meta is written next to the lock file while it is held.
type Meta struct {
	PID        int    `json:"pid"`
	RunID      string `json:"run_id,omitempty"`
	AcquiredAt string `json:"acquired_at"` // RFC3339
}

// Acquire takes an exclusive non-blocking lock on path, creating parent
// directories as needed. A held lock yields an error wrapping ErrLocked.
func Acquire(path, runID string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("filelock: mkdir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("filelock: open: %w", err)
	}

	fd := int(f.Fd())
	if err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			holder := 0
			if meta, metaErr := ReadMeta(path); metaErr == nil {
				holder = meta.PID
			}
			return nil, fmt.Errorf("%w (holder PID: %d)", ErrLocked, holder)
		}
		return nil, fmt.Errorf("filelock: flock: %w", err)
	}

	data, _ := json.Marshal(Meta{
		PID:        os.Getpid(),
		RunID:      runID,
		AcquiredAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err := os.WriteFile(path+".meta", data, 0644); err != nil {
		syscall.Flock(fd, syscall.LOCK_UN)
		f.Close()
		return nil, fmt.Errorf("filelock: write meta: %w", err)
	}

	return &Lock{Path: path, file: f}, nil
}

// Release drops the lock and removes the .meta file. Safe on nil.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		return fmt.Errorf("filelock: unlock: %w", err)
	}
	err := l.file.Close()
	l.file = nil
	_ = os.Remove(l.Path + ".meta")
	if err != nil {
		return fmt.Errorf("filelock: close: %w", err)
	}
	return nil
}

// ReadMeta parses the .meta file for the lock at path.
func ReadMeta(path string) (Meta, error) {
	data, err := os.ReadFile(path + ".meta")
	if err != nil {
		return Meta{}, fmt.Errorf("filelock: read meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("filelock: unmarshal meta: %w", err)
	}
	return meta, nil
}

// IsStale reports whether the .meta file at path names a process that no
// longer exists. A missing or unreadable .meta counts as stale.
func IsStale(path string) bool {
	meta, err := ReadMeta(path)
	if err != nil {
		return true
	}
	proc, err := os.FindProcess(meta.PID)
	if err != nil {
		return true
	}
	// Signal 0 probes for existence.
	return proc.Signal(syscall.Signal(0)) != nil
}
