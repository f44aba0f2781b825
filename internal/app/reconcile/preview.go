package reconcile

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gardensync/internal/app/ports"
	"gardensync/internal/domain/garden"
)

// Previewer shows a draft in the local mirror without dispatching intents.
// At most one preview is active; starting another rolls the first back.
type Previewer struct {
	UseCase UseCase

	mu     sync.Mutex
	active *PreviewSession
}

type PreviewSession struct {
	ID        int64
	Garden    garden.Garden
	ExpiresAt time.Time

	owner    *Previewer
	snapshot json.RawMessage
	timer    *time.Timer
	mu       sync.Mutex
	done     bool
}

// Preview writes the draft merged over live state. Live eggs and occupied
// tiles the draft could not replace without ClearTargetTiles are preserved.
func (p *Previewer) Preview(ctx context.Context, draft garden.Garden, opts Options) (*PreviewSession, error) {
	u := p.UseCase
	draft, err := u.normalizeDraft(draft)
	if err != nil {
		return nil, err
	}
	if err := p.Cancel(ctx); err != nil {
		return nil, err
	}
	live, err := u.loadLive(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := u.selectCell(ctx, ports.LabelUserSlots)
	if err != nil {
		return nil, err
	}
	merged := mergeDraft(live.Garden, draft, opts.ClearTargetTiles)
	if err := u.writeGarden(ctx, live.Slot, merged); err != nil {
		return nil, err
	}

	ttl := u.cfg().PreviewTTL
	s := &PreviewSession{
		ID:        time.Now().UnixNano(),
		Garden:    merged,
		ExpiresAt: time.Now().Add(ttl),
		owner:     p,
		snapshot:  snapshot,
	}
	p.mu.Lock()
	p.active = s
	p.mu.Unlock()
	s.mu.Lock()
	s.timer = time.AfterFunc(ttl, func() {
		if err := s.Rollback(context.Background()); err != nil {
			u.log().WithError(err).Warn("preview auto-rollback failed")
		}
	})
	s.mu.Unlock()
	u.log().WithField("tiles", merged.Size()).Debug("preview installed")
	return s, nil
}

// Active returns the current preview, if any.
func (p *Previewer) Active() *PreviewSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Cancel rolls back the active preview. It is a no-op without one.
func (p *Previewer) Cancel(ctx context.Context) error {
	p.mu.Lock()
	s := p.active
	p.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Rollback(ctx)
}

// Rollback restores the user-slot cell captured before the preview. Only the
// first call writes.
func (s *PreviewSession) Rollback(ctx context.Context) error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	timer := s.timer
	s.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}

	p := s.owner
	p.mu.Lock()
	if p.active == s {
		p.active = nil
	}
	p.mu.Unlock()
	return p.UseCase.Store.Set(ctx, ports.LabelUserSlots, s.snapshot)
}

func (s *PreviewSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
