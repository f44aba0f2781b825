package sprite

import (
	"context"
	"runtime"
	"sync"
)

type Progress struct {
	Total     int  `json:"total"`
	Done      int  `json:"done"`
	Completed bool `json:"completed"`
}

// Warmer runs warm-up work in small batches and yields between them.
// Listeners see every progress change.
type Warmer struct {
	Batch int
	// Yield runs between batches; nil means runtime.Gosched.
	Yield func(ctx context.Context) error

	mu        sync.Mutex
	progress  Progress
	listeners map[int]func(Progress)
	nextID    int
}

func NewWarmer(batch int) *Warmer {
	return &Warmer{Batch: batch}
}

func (w *Warmer) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

// Subscribe registers fn and returns a function that removes it.
func (w *Warmer) Subscribe(fn func(Progress)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.listeners == nil {
		w.listeners = make(map[int]func(Progress))
	}
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
	}
}

func (w *Warmer) publish(p Progress) {
	w.mu.Lock()
	w.progress = p
	fns := make([]func(Progress), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

// Warm runs every job. It stops early when ctx is done, leaving Completed
// false.
func (w *Warmer) Warm(ctx context.Context, jobs []Job) error {
	batch := w.Batch
	if batch <= 0 {
		batch = 6
	}
	p := Progress{Total: len(jobs)}
	w.publish(p)
	for start := 0; start < len(jobs); start += batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batch, len(jobs))
		for _, j := range jobs[start:end] {
			j()
		}
		p.Done = end
		w.publish(p)
		if end < len(jobs) {
			if err := w.yield(ctx); err != nil {
				return err
			}
		}
	}
	p.Completed = true
	w.publish(p)
	return nil
}

func (w *Warmer) yield(ctx context.Context) error {
	if w.Yield != nil {
		return w.Yield(ctx)
	}
	runtime.Gosched()
	return ctx.Err()
}
