package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesTasks(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	done := make(chan struct{}, 3)
	q := NewQueue("test", func(ctx context.Context, day int) error {
		mu.Lock()
		seen["day"] += day
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue("a", 1))
	require.NoError(t, q.Enqueue("b", 2))
	require.NoError(t, q.Enqueue("c", 3))
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task not processed")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 6, seen["day"])
}

func TestQueueCoalescesPendingKeys(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	q := NewQueue("test", func(ctx context.Context, _ string) error {
		atomic.AddInt32(&calls, 1)
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())
	defer q.Stop()

	// first task occupies the only worker
	require.NoError(t, q.Enqueue("busy", "x"))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, q.Enqueue("sem-1:2", "x"))
	require.NoError(t, q.Enqueue("sem-1:2", "x"))
	require.NoError(t, q.Enqueue("sem-1:2", "x"))
	assert.Equal(t, 1, q.Pending())

	close(release)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 && q.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesFailedTasks(t *testing.T) {
	var calls int32
	q := NewQueue("test", func(ctx context.Context, _ struct{}) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("redis unavailable")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue("k", struct{}{}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, time.Second, 5*time.Millisecond)
}

func TestQueueRejectsWhenNotRunningOrFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, _ int) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	assert.Error(t, q.Enqueue("early", 1))

	q.Start(context.Background())
	require.NoError(t, q.Enqueue("a", 1))
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue("b", 1))
	assert.ErrorIs(t, q.Enqueue("c", 1), ErrQueueFull)

	close(block)
	q.Stop()
	assert.Error(t, q.Enqueue("late", 1))
}
