package locks

import (
	"context"
	"errors"
	"time"
)

// ErrHeld is returned when another holder owns the key.
var ErrHeld = errors.New("lock held")

// Release gives the lock back. Releasing an expired or stolen lock is a no-op.
type Release func(ctx context.Context) error

type Locker interface {
	// Acquire takes key for ttl or returns ErrHeld.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}
