package index

import (
	"context"
	"sync"
	"time"
)

// MemoryLease serializes holders inside one process.
type MemoryLease struct {
	mu sync.Mutex
}

// Acquire never blocks: ok is false while another holder has the lease.
// ttl is ignored, the holder must call release.
func (l *MemoryLease) Acquire(_ context.Context, _ time.Duration) (func(context.Context) error, bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	var once sync.Once
	release := func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}
	return release, true, nil
}
