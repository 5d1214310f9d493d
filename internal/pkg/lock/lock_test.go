package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofulfill/internal/pkg/lock"
)

func TestMutex_AcquireRelease(t *testing.T) {
	m := lock.New()

	require.NoError(t, m.Acquire(context.Background(), time.Millisecond))
	m.Release()
	require.NoError(t, m.Acquire(context.Background(), 0))
	m.Release()
}

func TestMutex_TimesOutWhenHeld(t *testing.T) {
	m := lock.New()
	require.NoError(t, m.Acquire(context.Background(), time.Millisecond))
	defer m.Release()

	start := time.Now()
	err := m.Acquire(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, lock.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	assert.ErrorIs(t, m.Acquire(context.Background(), 0), lock.ErrTimeout)
}

func TestMutex_ContextCancel(t *testing.T) {
	m := lock.New()
	require.NoError(t, m.Acquire(context.Background(), time.Millisecond))
	defer m.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Acquire(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMutex_WaiterGetsLockAfterRelease(t *testing.T) {
	m := lock.New()
	require.NoError(t, m.Acquire(context.Background(), time.Millisecond))

	done := make(chan error, 1)
	go func() {
		done <- m.Acquire(context.Background(), time.Second)
	}()

	time.Sleep(5 * time.Millisecond)
	m.Release()
	require.NoError(t, <-done)
	m.Release()
}

func TestMutex_MutualExclusion(t *testing.T) {
	m := lock.New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Acquire(context.Background(), time.Second); err != nil {
				t.Error(err)
				return
			}
			counter++
			m.Release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestMutex_ReleaseUnlockedPanics(t *testing.T) {
	assert.Panics(t, func() { lock.New().Release() })
}
