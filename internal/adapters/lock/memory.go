package lock

import (
	"context"
	"sync"

	"backlog/internal/ports"
)

// Memory implements ports.Locker within one process with one lock per key
type Memory struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

var _ ports.Locker = (*Memory)(nil)

// NewMemory creates an in-process locker
func NewMemory() *Memory {
	return &Memory{locks: make(map[string]chan struct{})}
}

func (m *Memory) keyLock(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		m.locks[key] = l
	}
	return l
}

// Lock blocks until key is free or ctx is done
func (m *Memory) Lock(ctx context.Context, key string) (func(), error) {
	l := m.keyLock(key)
	select {
	case l <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-l }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
