package sprite

import (
	"context"
	"sync"
	"time"
)

type Job func()

// Scheduler is a FIFO of render jobs drained a slice at a time, so bulk
// pre-rendering never holds the caller for longer than one tick budget.
type Scheduler struct {
	mu    sync.Mutex
	queue []Job
	Now   func() time.Time
}

func NewScheduler() *Scheduler {
	return &Scheduler{Now: time.Now}
}

func (s *Scheduler) Enqueue(jobs ...Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		if j != nil {
			s.queue = append(s.queue, j)
		}
	}
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Scheduler) pop() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	j := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return j, true
}

// Tick runs queued jobs until the budget is spent. At least one job runs per
// tick when any is queued. It returns the number of jobs run.
func (s *Scheduler) Tick(budget time.Duration) int {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	ran := 0
	for {
		j, ok := s.pop()
		if !ok {
			return ran
		}
		j()
		ran++
		if now().Sub(start) >= budget {
			return ran
		}
	}
}

// Run ticks every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval, budget time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(budget)
		}
	}
}
