package sprite

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerTickRespectsBudget(t *testing.T) {
	s := NewScheduler()
	clock := time.Unix(0, 0)
	s.Now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}
	var ran []int
	for i := 0; i < 10; i++ {
		i := i
		s.Enqueue(func() { ran = append(ran, i) })
	}
	if n := s.Tick(3 * time.Millisecond); n != 3 {
		t.Fatalf("first tick ran %d jobs, want 3", n)
	}
	if s.Pending() != 7 {
		t.Fatalf("pending got=%d want=7", s.Pending())
	}
	if n := s.Tick(0); n != 1 {
		t.Fatalf("a tick always runs at least one job, ran %d", n)
	}
	for s.Pending() > 0 {
		s.Tick(time.Hour)
	}
	for i, v := range ran {
		if v != i {
			t.Fatalf("jobs must run in FIFO order, got %v", ran)
		}
	}
	if n := s.Tick(time.Millisecond); n != 0 {
		t.Fatalf("empty queue ran %d jobs", n)
	}
}

func TestSchedulerRun(t *testing.T) {
	s := NewScheduler()
	var done atomic.Int32
	for i := 0; i < 5; i++ {
		s.Enqueue(func() { done.Add(1) })
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() {
		for done.Load() < 5 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	if err := s.Run(ctx, time.Millisecond, time.Millisecond); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if done.Load() != 5 {
		t.Fatalf("ran %d jobs, want 5", done.Load())
	}
}
