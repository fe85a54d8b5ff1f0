package lock

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlog/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	l, err := NewRedisFromURL("redis://"+s.Addr(), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, s
}

// exclusive runs many goroutines through the lock and reports the highest
// number that ever held it at once
func exclusive(t *testing.T, l ports.Locker, key string) int32 {
	t.Helper()
	var holders, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&holders, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&holders, -1)
			unlock()
		}()
	}
	wg.Wait()
	return peak
}

func TestMemory_Exclusive(t *testing.T) {
	assert.Equal(t, int32(1), exclusive(t, NewMemory(), "/project"))
}

func TestMemory_KeysIndependent(t *testing.T) {
	m := NewMemory()
	unlockA, err := m.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestMemory_ContextCancelled(t *testing.T) {
	m := NewMemory()
	unlock, err := m.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemory_DoubleUnlock(t *testing.T) {
	m := NewMemory()
	unlock, err := m.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
	unlock()

	unlock, err = m.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
}

func TestRedis_Exclusive(t *testing.T) {
	l, _ := setupTestRedis(t)
	l.retry = time.Millisecond
	assert.Equal(t, int32(1), exclusive(t, l, "/project"))
}

func TestRedis_SetsTTLAndReleases(t *testing.T) {
	l, s := setupTestRedis(t)

	unlock, err := l.WithTTL(10 * time.Second).Lock(context.Background(), "/project")
	require.NoError(t, err)

	key := "backlog:lock:/project"
	assert.True(t, s.Exists(key))
	assert.Equal(t, 10*time.Second, s.TTL(key))

	unlock()
	assert.False(t, s.Exists(key))
}

func TestRedis_ReleaseKeepsForeignLock(t *testing.T) {
	l, s := setupTestRedis(t)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// the lock expired and another process took it
	require.NoError(t, s.Set("backlog:lock:k", "someone-else"))
	unlock()

	got, err := s.Get("backlog:lock:k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedis_WaitsForExpiry(t *testing.T) {
	l, s := setupTestRedis(t)
	l.retry = time.Millisecond

	_, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		unlock, err := l.Lock(context.Background(), "k")
		if err == nil {
			unlock()
		}
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(20 * time.Millisecond):
	}

	s.FastForward(DefaultTTL + time.Second)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("lock not acquired after expiry")
	}
}

func TestRedis_ContextCancelled(t *testing.T) {
	l, _ := setupTestRedis(t)
	_, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRedisFromURL_Errors(t *testing.T) {
	_, err := NewRedisFromURL("not-a-url", nil)
	assert.Error(t, err)
}

func TestNewRedis_FromClient(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	l := NewRedis(client, nil)
	defer l.Close()

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
}
