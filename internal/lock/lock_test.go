package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "session-1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside, "more than one holder at a time")
}

func TestLocal_MutualExclusion(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := NewLocal()
	exerciseMutualExclusion(t, l)
	assert.Equal(t, 0, l.size(), "entries should be released")
}

func TestLocal_IndependentKeys(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := NewLocal()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocal_TimesOut(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestLocal_UnlockIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
	unlock()

	unlock2, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock2()
}

func newTestRedis(t *testing.T, cfg RedisConfig) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, cfg), mr
}

func TestRedis_MutualExclusion(t *testing.T) {
	l, _ := newTestRedis(t, RedisConfig{RetryInterval: time.Millisecond})
	exerciseMutualExclusion(t, l)
}

func TestRedis_LockSetsTTLAndReleases(t *testing.T) {
	l, mr := newTestRedis(t, RedisConfig{TTL: time.Minute})
	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)

	require.True(t, mr.Exists("mockprep:lock:s1"))
	assert.Equal(t, time.Minute, mr.TTL("mockprep:lock:s1"))

	unlock()
	assert.False(t, mr.Exists("mockprep:lock:s1"))
}

func TestRedis_WaitTimeout(t *testing.T) {
	l, _ := newTestRedis(t, RedisConfig{Wait: 20 * time.Millisecond, RetryInterval: 5 * time.Millisecond})
	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(context.Background(), "s1")
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestRedis_ReleaseKeepsForeignLock(t *testing.T) {
	l, mr := newTestRedis(t, RedisConfig{TTL: time.Second})
	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)

	// The lock expired and another holder took it over.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("mockprep:lock:s1", "someone-else"))

	unlock()
	got, err := mr.Get("mockprep:lock:s1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedis_ReleaseFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	l, mr := newTestRedis(t, RedisConfig{TTL: time.Minute, Logger: zap.New(core)})
	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)

	mr.SetError("READONLY replica")
	unlock()
	mr.SetError("")

	entries := logs.FilterMessage("release session lock failed, held until ttl").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "mockprep:lock:s1", entries[0].ContextMap()["key"])
	assert.True(t, mr.Exists("mockprep:lock:s1"), "lock stays until its ttl runs out")
}
