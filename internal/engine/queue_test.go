package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(kind string) Task {
	return Func(kind, "test", func(context.Context) error { return nil })
}

func TestTaskQueue_FIFO(t *testing.T) {
	q := newTaskQueue()

	for _, k := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(noop(k)))
	}

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.Kind())
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestTaskQueue_EnqueueAfterClose(t *testing.T) {
	q := newTaskQueue()
	q.Enqueue(noop("before"))
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(noop("after")), "enqueue after close should return false")
	assert.True(t, q.Closed())

	got, ok := q.TryDequeue()
	require.True(t, ok, "queued tasks survive close")
	assert.Equal(t, "before", got.Kind())
}

func TestTaskQueue_CloseWakesWaiters(t *testing.T) {
	q := newTaskQueue()
	done := make(chan struct{})

	go func() {
		<-q.Wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("waiter did not wake after close")
	}
}

func TestTaskQueue_Len(t *testing.T) {
	q := newTaskQueue()
	assert.Equal(t, 0, q.Len())

	q.Enqueue(noop("1"))
	q.Enqueue(noop("2"))
	assert.Equal(t, 2, q.Len())

	q.TryDequeue()
	assert.Equal(t, 1, q.Len())
	q.TryDequeue()
	assert.Equal(t, 0, q.Len())
}

func TestTaskQueue_ThreadSafe(t *testing.T) {
	q := newTaskQueue()

	const producers = 10
	const tasksPerProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < tasksPerProducer; i++ {
				q.Enqueue(noop("x"))
			}
		}()
	}
	wg.Wait()

	n := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, producers*tasksPerProducer, n)
}
