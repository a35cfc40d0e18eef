package cache

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds a Memory cache when no limit is given.
const DefaultMaxEntries = 512

// Memory is a bounded in-memory cache with per-entry TTL. Safe for
// concurrent use.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value    []byte
	storedAt time.Time
}

// NewMemory returns a Memory cache holding at most max entries, each valid
// for ttl. A non-positive max falls back to DefaultMaxEntries; a
// non-positive ttl means entries never expire.
func NewMemory(max int, ttl time.Duration) *Memory {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Memory{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or false if absent or expired.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.expired(e) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key, evicting the oldest entry when full.
func (m *Memory) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.max {
		m.evictOldest()
	}
	m.entries[key] = memoryEntry{value: value, storedAt: m.now()}
}

// Len returns the number of entries currently held (including any that
// have expired but not yet been read).
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) expired(e memoryEntry) bool {
	return m.ttl > 0 && m.now().Sub(e.storedAt) > m.ttl
}

func (m *Memory) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range m.entries {
		if first || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
