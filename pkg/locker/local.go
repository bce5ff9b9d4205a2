package locker

import (
	"context"
	"sync"
	"time"
)

// LocalLocker implements DistributedLocker within a single process. It
// is used when the service runs without Redis: the warmer still goes
// through the locker interface, but coordination only covers this
// instance.
type LocalLocker struct {
	mu     sync.Mutex
	leases map[string]time.Time
}

// NewLocalLocker creates a process-local locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{leases: make(map[string]time.Time)}
}

// Acquire takes the lock unless a non-expired lease exists for key.
func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expiry, held := l.leases[key]; held && now.Before(expiry) {
		return false, nil
	}
	l.leases[key] = now.Add(ttl)

	return true, nil
}

// Release drops the lease for key. Releasing an unheld lock is a no-op.
func (l *LocalLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.leases, key)

	return nil
}
