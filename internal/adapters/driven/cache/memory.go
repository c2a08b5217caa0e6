package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Ensure Memory implements the interface.
var _ driven.Cache = (*Memory)(nil)

// Memory is the volatile cache tier: a process-local map cleared on
// restart. Expired entries are purged lazily on next inspection.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an empty volatile cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get retrieves a live entry, purging it if expired.
func (m *Memory) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	full := entryKey(namespace, key)

	m.mu.RLock()
	entry, ok := m.entries[full]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a Set may have raced.
		if current, ok := m.entries[full]; ok && m.now().After(current.expiresAt) {
			delete(m.entries, full)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores an entry. A non-positive TTL stores nothing.
func (m *Memory) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entryKey(namespace, key)] = memoryEntry{
		value:     value,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Invalidate removes one entry.
func (m *Memory) Invalidate(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, entryKey(namespace, key))
	return nil
}

// InvalidateNamespace removes every entry in a namespace.
func (m *Memory) InvalidateNamespace(_ context.Context, namespace string) error {
	prefix := namespace + "\x00"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SetClock overrides the time source. Useful for testing expiry.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// entryKey joins namespace and key with a separator that cannot occur in
// either.
func entryKey(namespace, key string) string {
	return namespace + "\x00" + key
}
