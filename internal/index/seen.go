// Package index keeps process-local state used when Redis is not configured.
package index

import (
	"context"
	"sync"
	"time"
)

// MemorySeen remembers recently submitted fingerprints in memory.
// It acts as a fallback when Redis is unavailable.
type MemorySeen struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time // fingerprint -> expiry
	now     func() time.Time
}

// NewMemorySeen creates a seen set whose entries live for ttl.
func NewMemorySeen(ttl time.Duration) *MemorySeen {
	return &MemorySeen{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// MarkIfNew records fingerprint and reports whether it was absent or expired.
func (m *MemorySeen) MarkIfNew(_ context.Context, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, ok := m.entries[fingerprint]; ok && now.Before(exp) {
		return false, nil
	}
	m.entries[fingerprint] = now.Add(m.ttl)
	return true, nil
}

// Forget removes fingerprint.
func (m *MemorySeen) Forget(_ context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, fingerprint)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemorySeen) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for fp, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, fp)
			removed++
		}
	}
	return removed
}

// Count returns the number of entries, expired ones included until swept.
func (m *MemorySeen) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}
