package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// sweepInterval bounds how often Set scans for expired entries
const sweepInterval = time.Minute

// MemoryAdapter is a process-local CacheProvider used when Redis is disabled
// or unreachable. Expired entries are dropped on access, and Set removes every
// expired entry at most once per sweepInterval so abandoned keys do not pile up.
type MemoryAdapter struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryAdapter creates an empty in-memory cache
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (a *MemoryAdapter) live(key string) (memoryEntry, bool) {
	entry, ok := a.entries[key]
	if !ok || entry.expired(a.now()) {
		return memoryEntry{}, false
	}
	return entry, true
}

// sweep must be called with the write lock held
func (a *MemoryAdapter) sweep(now time.Time) {
	if now.Before(a.nextSweep) {
		return
	}
	for key, entry := range a.entries {
		if entry.expired(now) {
			delete(a.entries, key)
		}
	}
	a.nextSweep = now.Add(sweepInterval)
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	entry, ok := a.live(key)
	a.mu.RUnlock()
	if !ok {
		a.mu.Lock()
		if _, still := a.live(key); !still {
			delete(a.entries, key)
		}
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	return append([]byte(nil), entry.value...), nil
}

// Set stores a value in cache. A non-positive expiration never expires.
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	now := a.now()
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = now.Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.mu.Lock()
	a.sweep(now)
	a.entries[key] = entry
	a.mu.Unlock()
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	delete(a.entries, key)
	a.mu.Unlock()
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.live(key)
	return ok, nil
}
