package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = l.Run(ctx) }()
	return l
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := 0; i < 50; i++ {
		l.Post(func() { got = append(got, i) })
	}
	l.Wait()

	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_AsyncContinuationRunsOnLoop(t *testing.T) {
	l := startLoop(t)

	var order []string
	l.Post(func() {
		order = append(order, "start")
		l.Async(func() func() {
			time.Sleep(10 * time.Millisecond)
			return func() { order = append(order, "continuation") }
		})
		order = append(order, "after-async")
	})
	l.Wait()

	assert.Equal(t, []string{"start", "after-async", "continuation"}, order)
}

func TestLoop_WaitCoversAsyncWithoutContinuation(t *testing.T) {
	l := startLoop(t)

	var ran atomic.Bool
	l.Async(func() func() {
		time.Sleep(20 * time.Millisecond)
		ran.Store(true)
		return nil
	})
	l.Wait()

	assert.True(t, ran.Load())
}

func TestLoop_TasksNeverOverlap(t *testing.T) {
	l := startLoop(t)

	var active, overlaps int32
	for i := 0; i < 20; i++ {
		l.Async(func() func() {
			return func() {
				if atomic.AddInt32(&active, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
			}
		})
	}
	l.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlaps))
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	l := startLoop(t)

	ran := false
	l.Post(func() { panic("boom") })
	l.Post(func() { ran = true })
	l.Wait()

	assert.True(t, ran)
}

func TestLoop_Call(t *testing.T) {
	l := startLoop(t)

	v := 0
	require.NoError(t, l.Call(context.Background(), func() { v = 42 }))
	assert.Equal(t, 42, v)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
