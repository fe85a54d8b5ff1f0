package ports

import "context"

// Locker serializes read-compute-write cycles over the backlog
type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned function
	// releases the lock.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
