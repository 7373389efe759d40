package txn

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Action reverses exactly one registered mutation.
type Action interface {
	Undo() error
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func() error

// Undo calls f.
func (f ActionFunc) Undo() error {
	return f()
}

// PathUndo is the undo action built by the registration protocol. All fields
// are captured by value at registration so that concurrent branches of a
// recursive copy never share state.
type PathUndo struct {
	// Path is the file or directory the mutation produces.
	Path string

	// Created is the top-most directory on the way to Path that did not exist
	// when the action was registered. Empty if every parent already existed.
	Created string

	// Threshold is the registration time minus the rollback tolerance.
	// Anything created or written at or after it belongs to the transaction.
	Threshold time.Time

	// Dir marks a directory creation rather than a file write.
	Dir bool
}

// Undo removes what the mutation created. A target that no longer exists
// counts as already undone.
func (u PathUndo) Undo() error {
	if u.Created != "" {
		removed, err := u.removeCreatedDir()
		if err != nil || removed {
			return err
		}
	}

	if u.Dir {
		return nil
	}

	info, err := os.Lstat(u.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("undo %s: %w", u.Path, err)
	}
	if !info.Mode().IsRegular() || info.ModTime().Before(u.Threshold) {
		return nil
	}
	if err := os.Remove(u.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("undo %s: %w", u.Path, err)
	}
	return nil
}

func (u PathUndo) removeCreatedDir() (bool, error) {
	info, err := os.Lstat(u.Created)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("undo %s: %w", u.Created, err)
	}
	if !info.IsDir() {
		return false, nil
	}
	// The directory was absent at registration, so it was created after the
	// threshold. A reported birth time before it means something replaced
	// the directory out of band; leave that one alone.
	if born, ok := birthTime(u.Created); ok && born.Before(u.Threshold) {
		return false, nil
	}
	if err := os.RemoveAll(u.Created); err != nil {
		return false, fmt.Errorf("undo %s: %w", u.Created, err)
	}
	return true, nil
}

// missingAncestor walks up from dir and returns the top-most directory that
// does not exist yet, or "" when dir already exists.
func missingAncestor(dir string) string {
	missing := ""
	cur := filepath.Clean(dir)
	for {
		if _, err := os.Lstat(cur); !errors.Is(err, fs.ErrNotExist) {
			return missing
		}
		missing = cur
		parent := filepath.Dir(cur)
		if parent == cur {
			return missing
		}
		cur = parent
	}
}

// undoLog is an append-only LIFO guarded by its own mutex, separate from the
// manager's state lock.
type undoLog struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	action Action
	caller string
}

// push appends e only while active holds. The flag is re-read under the log
// mutex so an entry cannot slip in after Commit has reset the log.
func (l *undoLog) push(e logEntry, active *atomic.Bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !active.Load() {
		return false
	}
	l.entries = append(l.entries, e)
	return true
}

// drain removes every entry and returns them most recent first.
func (l *undoLog) drain() []logEntry {
	l.mu.Lock()
	entries := l.entries
	l.entries = nil
	l.mu.Unlock()

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// close clears active and drains the log in one critical section. Entries
// pushed before the flag flipped are returned most recent first; later
// pushes are refused.
func (l *undoLog) close(active *atomic.Bool) []logEntry {
	l.mu.Lock()
	active.Store(false)
	l.mu.Unlock()
	return l.drain()
}

func (l *undoLog) reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

func (l *undoLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
