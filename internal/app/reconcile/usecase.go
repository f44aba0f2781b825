package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"gardensync/internal/app/ports"
	"gardensync/internal/domain/catalog"
	"gardensync/internal/domain/garden"
)

type UseCase struct {
	Store    ports.StateStore
	Commands ports.CommandChannel
	Catalog  *catalog.Catalog
	Notifier ports.Notifier
	Metrics  ports.ReconcileMetrics
	Logger   logrus.FieldLogger
	Config   Config
}

func (u UseCase) log() logrus.FieldLogger {
	if u.Logger == nil {
		return logrus.StandardLogger()
	}
	return u.Logger
}

func (u UseCase) cfg() Config {
	return u.Config.withDefaults()
}

func (u UseCase) notify(ctx context.Context, n ports.Notice) {
	if u.Notifier != nil {
		u.Notifier.Notify(ctx, n)
	}
}

// normalizeDraft validates every tile and canonicalizes species, decor ids and
// desired mutations against the catalog.
func (u UseCase) normalizeDraft(draft garden.Garden) (garden.Garden, error) {
	out := draft.Clone()
	for _, plane := range garden.Planes() {
		tiles := garden.TileMap{}
		for idx, obj := range draft.Tiles(plane) {
			if idx < 0 {
				return garden.Garden{}, fmt.Errorf("%w: negative index %d on %s", ErrInvalidDraft, idx, plane)
			}
			if err := obj.Validate(); err != nil {
				return garden.Garden{}, fmt.Errorf("%w: %s tile %d: %v", ErrInvalidDraft, plane, idx, err)
			}
			obj = obj.Clone()
			if u.Catalog != nil {
				switch obj.Type {
				case garden.ObjectPlant:
					if p, ok := u.Catalog.Plant(obj.Species); ok {
						obj.Species = p.Species
					}
				case garden.ObjectDecor:
					if d, ok := u.Catalog.Decor(obj.DecorID); ok {
						obj.DecorID = d.ID
					}
				}
			}
			obj.DesiredMutation = garden.NormalizeMutation(obj.DesiredMutation)
			tiles[idx] = obj
		}
		out.SetTiles(plane, tiles)
	}
	return out, nil
}

// mergeDraft lays the draft over live the way an apply would end up: live eggs
// stay, eggs are never created, and without clearTargets occupied tiles keep
// their occupant.
func mergeDraft(live, draft garden.Garden, clearTargets bool) garden.Garden {
	out := live.Clone()
	for _, plane := range garden.Planes() {
		for idx, target := range draft.Tiles(plane) {
			if draft.IsIgnored(plane, idx) || target.IsEgg() {
				continue
			}
			if cur, ok := live.Tile(plane, idx); ok {
				if cur.IsEgg() || garden.Equivalent(cur, target) {
					continue
				}
				if !clearTargets {
					continue
				}
			}
			out.Put(plane, idx, target.Clone())
		}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func describeCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s×%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}
