// Package revocation tracks revoked token identifiers (jti).
package revocation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is how often expired entries are evicted.
const DefaultSweepInterval = time.Minute

// ErrEmptyJTI is returned when revoking a token without an identifier.
var ErrEmptyJTI = errors.New("jti is required")

// Registry records revoked tokens. Implementations must be safe for
// concurrent use by many readers and occasional writers.
type Registry interface {
	// Revoke marks jti as revoked until expiresAt. Repeated calls are no-ops.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	// IsRevoked reports whether jti has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Memory is a process-local Registry. Entries are kept until the token they
// belong to has expired, then evicted by Sweep.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
	logger  *slog.Logger

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	runMu   sync.Mutex
}

var _ Registry = (*Memory)(nil)

// NewMemory creates an empty in-memory registry.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
		logger:  logger.With("component", "revocation.memory"),
	}
}

// Revoke marks jti as revoked. A later expiry extends an existing entry.
func (m *Memory) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return ErrEmptyJTI
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[jti]; !ok || expiresAt.After(existing) {
		m.entries[jti] = expiresAt
	}
	return nil
}

// IsRevoked reports whether jti is in the registry.
func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[jti]
	return ok, nil
}

// Len returns the number of tracked entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep evicts entries whose token expired at or before now.
// Returns the number of evicted entries.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for jti, expiresAt := range m.entries {
		if !expiresAt.After(now) {
			delete(m.entries, jti)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval. Blocks until ctx is cancelled
// or Shutdown is called.
func (m *Memory) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	m.runMu.Lock()
	if m.started {
		m.runMu.Unlock()
		return errors.New("sweeper already started")
	}
	m.started = true
	m.done = make(chan struct{})
	ctx, m.cancel = context.WithCancel(ctx)
	m.runMu.Unlock()

	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("revocation sweeper started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("revocation sweeper stopping")
			return nil
		case <-ticker.C:
			if removed := m.Sweep(m.now()); removed > 0 {
				m.logger.Debug("evicted expired revocations", "removed", removed, "remaining", m.Len())
			}
		}
	}
}

// Shutdown stops the sweeper. It implements server.ShutdownFunc.
func (m *Memory) Shutdown(ctx context.Context) error {
	m.runMu.Lock()
	if !m.started {
		m.runMu.Unlock()
		return nil
	}
	cancel := m.cancel
	done := m.done
	m.runMu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.logger.Warn("revocation sweeper shutdown timed out")
		return ctx.Err()
	}
}
