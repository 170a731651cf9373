package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_runsTasks(t *testing.T) {
	s := New(Options{Context: tCtx(t), MaxConcurrentTasks: 4})

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		s.Schedule(func() { n.Add(1) })
	}
	s.Wait()

	require.Equal(t, int32(10), n.Load())
}

func TestScheduler_containsPanics(t *testing.T) {
	s := New(Options{Context: tCtx(t)})

	done := make(chan struct{})
	s.Schedule(func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	s.Wait()
}

func TestScheduleOnce_fires(t *testing.T) {
	s := New(Options{Context: tCtx(t)})

	fired := make(chan struct{})
	s.ScheduleOnce(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestScheduleOnce_cancel(t *testing.T) {
	s := New(Options{Context: tCtx(t)})

	var fired atomic.Bool
	task := s.ScheduleOnce(50*time.Millisecond, func() { fired.Store(true) })

	require.True(t, task.Cancel())
	time.Sleep(100 * time.Millisecond)
	require.False(t, fired.Load())
}
