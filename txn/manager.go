// Package txn groups filesystem mutations into a best-effort, in-process
// transaction that can be undone.
//
// A Manager keeps an undo log. Mutating operations call Track or TrackDir
// before they touch the filesystem; while a transaction is active each call
// pushes a PathUndo. Commit discards the log, Rollback runs it most recent
// first. Nothing is journaled: a crash mid-transaction leaves whatever was
// written on disk.
//
// Rollback decides what to delete from timestamps (creation and last-write
// times compared against the registration time minus a tolerance). That is
// an approximation subject to clock skew and filesystem timestamp
// granularity. Overwritten files are deleted on rollback, not restored.
package txn

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultTolerance is subtracted from the registration time to absorb
// filesystem timestamp resolution and clock skew.
const DefaultTolerance = 50 * time.Millisecond

// Manager owns one transaction's state. Managers are independent of each
// other; there is no process-wide transaction.
type Manager struct {
	mu      sync.Mutex // serializes Begin, Commit and Rollback
	running atomic.Bool
	log     undoLog

	tolerance time.Duration
	now       func() time.Time
	logger    *zap.Logger
	metrics   *Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithTolerance sets the rollback tolerance. Negative values are ignored.
func WithTolerance(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.tolerance = d
		}
	}
}

// WithLogger sets the logger used for transitions and undo failures.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithClock replaces time.Now when computing thresholds.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates an idle Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		tolerance: DefaultTolerance,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Running reports whether a transaction is active.
func (m *Manager) Running() bool {
	return m.running.Load()
}

// Pending returns the number of registered undo actions.
func (m *Manager) Pending() int {
	return m.log.len()
}

// Tolerance returns the configured rollback tolerance.
func (m *Manager) Tolerance() time.Duration {
	return m.tolerance
}

// Begin starts a transaction. It fails with ErrActive if one is running.
func (m *Manager) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running.Load() {
		return ErrActive
	}
	m.running.Store(true)

	m.logger.Debug("txn.begin")
	m.metrics.transaction("begun")
	return nil
}

// Commit accepts every mutation made since Begin and discards the undo log
// without running it. It fails with ErrNotActive if no transaction is running.
func (m *Manager) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running.Load() {
		return ErrNotActive
	}
	discarded := m.log.len()
	m.running.Store(false)
	m.log.reset()

	m.logger.Debug("txn.commit", zap.Int("discarded", discarded))
	m.metrics.transaction("committed")
	return nil
}

// Rollback runs every registered undo action, most recent first, and ends
// the transaction. Undo failures do not stop the rollback; they are
// combined and returned once the manager is idle again. It fails with
// ErrNotActive, running nothing, if no transaction is active.
func (m *Manager) Rollback() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running.Load() {
		return ErrNotActive
	}

	var errs error
	undone, failed := 0, 0
	// Operations still in flight may register while we unwind. Drain until
	// the log is empty, then close it so the flag flips under the log lock
	// and no push can land between the last drain and the flip.
	for {
		entries := m.log.drain()
		if len(entries) == 0 {
			if entries = m.log.close(&m.running); len(entries) == 0 {
				break
			}
		}
		for _, e := range entries {
			if e.action == nil {
				continue
			}
			if err := e.action.Undo(); err != nil {
				failed++
				errs = multierr.Append(errs, err)
				m.logger.Warn("txn.undo failed", zap.String("registered_by", e.caller), zap.Error(err))
				continue
			}
			undone++
		}
	}

	m.logger.Debug("txn.rollback", zap.Int("undone", undone), zap.Int("failed", failed))
	m.metrics.transaction("rolled_back")
	m.metrics.undo("undone", undone)
	m.metrics.undo("failed", failed)
	return errs
}

// RegisterUndo pushes action onto the undo log if a transaction is active
// and does nothing otherwise. It never blocks on Begin, Commit or Rollback.
// caller labels the entry in logs.
func (m *Manager) RegisterUndo(action Action, caller string) {
	if action == nil {
		return
	}
	if !m.log.push(logEntry{action: action, caller: caller}, &m.running) {
		m.metrics.undo("skipped", 1)
		return
	}
	m.metrics.undo("registered", 1)
}

// Track registers the undo action for a file about to be written at target.
// It must be called before the write and before any parent directory is
// created, so the set of missing parents can be recorded.
func (m *Manager) Track(target, caller string) {
	if !m.running.Load() {
		return
	}
	target = filepath.Clean(target)
	m.RegisterUndo(PathUndo{
		Path:      target,
		Created:   missingAncestor(filepath.Dir(target)),
		Threshold: m.threshold(),
	}, caller)
}

// TrackDir registers the undo action for a directory about to be created.
func (m *Manager) TrackDir(dir, caller string) {
	if !m.running.Load() {
		return
	}
	dir = filepath.Clean(dir)
	m.RegisterUndo(PathUndo{
		Path:      dir,
		Created:   missingAncestor(dir),
		Threshold: m.threshold(),
		Dir:       true,
	}, caller)
}

func (m *Manager) threshold() time.Time {
	return m.now().Add(-m.tolerance)
}
