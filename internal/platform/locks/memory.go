package locks

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token   uint64
	expires time.Time
}

// MemoryLocker is a single-process Locker with the same TTL semantics as RedisLocker.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	seq     uint64
	now     func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: map[string]memoryEntry{}, now: time.Now}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok && now.Before(e.expires) {
		return nil, ErrHeld
	}
	l.seq++
	token := l.seq
	l.entries[key] = memoryEntry{token: token, expires: now.Add(ttl)}

	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.entries[key]; ok && e.token == token {
			delete(l.entries, key)
		}
		return nil
	}, nil
}
