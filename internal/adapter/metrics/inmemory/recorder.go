package inmemory

import (
	"sync"

	"gardensync/internal/app/ports"
)

type Snapshot struct {
	ApplyTotal    uint64            `json:"apply_total"`
	ApplySuccess  uint64            `json:"apply_success"`
	ApplyBlocked  uint64            `json:"apply_blocked"`
	ApplyFailure  uint64            `json:"apply_failure"`
	ApplyFallback uint64            `json:"apply_fallback"`
	PassesTotal   uint64            `json:"passes_total"`
	TilesBlocked  uint64            `json:"tiles_blocked"`
	TilesMissing  uint64            `json:"tiles_missing"`
	ByIntent      map[string]uint64 `json:"by_intent"`
}

type Recorder struct {
	mu       sync.Mutex
	success  uint64
	blocked  uint64
	failure  uint64
	fallback uint64
	passes   uint64
	tilesBlk uint64
	tilesMis uint64
	byIntent map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byIntent: map[string]uint64{},
	}
}

var _ ports.ReconcileMetrics = (*Recorder)(nil)

func (r *Recorder) RecordApplied(stats ports.ApplyStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success++
	r.passes += uint64(stats.Passes)
	r.tilesBlk += uint64(stats.Blocked)
	r.tilesMis += uint64(stats.Missing)
	if stats.Fallback {
		r.fallback++
	}
	for intent, n := range stats.Actions {
		r.byIntent[intent] += uint64(n)
	}
}

func (r *Recorder) RecordBlocked() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocked++
}

func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ApplySuccess:  r.success,
		ApplyBlocked:  r.blocked,
		ApplyFailure:  r.failure,
		ApplyFallback: r.fallback,
		ApplyTotal:    r.success + r.blocked + r.failure,
		PassesTotal:   r.passes,
		TilesBlocked:  r.tilesBlk,
		TilesMissing:  r.tilesMis,
		ByIntent:      make(map[string]uint64, len(r.byIntent)),
	}
	for k, v := range r.byIntent {
		out.ByIntent[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
