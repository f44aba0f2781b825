package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"gardensync/internal/app/ports"
	"gardensync/internal/domain/garden"
)

// Apply converges the live garden toward draft. Tiles the draft does not
// mention are only touched when ClearTargetTiles allows using them as
// sources. Apply returns once a pass dispatches nothing or the pass limit is
// reached; the server never acknowledges intents, so Applied means dispatched.
func (u UseCase) Apply(ctx context.Context, draft garden.Garden, opts Options) (Result, error) {
	draft, err := u.normalizeDraft(draft)
	if err != nil {
		return Result{}, err
	}
	if u.Commands == nil {
		return Result{}, ports.ErrNotReady
	}
	live, err := u.loadLive(ctx)
	if err != nil {
		return Result{}, err
	}

	r := &run{
		u:       u,
		cfg:     u.cfg(),
		opts:    opts,
		draft:   draft,
		log:     u.log().WithField("player", live.PlayerID),
		blocked: map[tileRef]BlockedTile{},
		res:     Result{Actions: []garden.Intent{}},
	}
	if opts.InventorySlotsAvailable != nil {
		r.budget = *opts.InventorySlotsAvailable
		if r.budget < 0 {
			r.budget = 0
		}
	}

	if !opts.ClearTargetTiles {
		if blocking := precheck(live.Garden, draft); len(blocking) > 0 {
			for _, b := range blocking {
				r.block(b)
			}
			r.finish(ctx)
			if u.Metrics != nil {
				u.Metrics.RecordBlocked()
			}
			return r.res, &BlockedTilesError{Tiles: blocking}
		}
	}

	runErr := r.loop(ctx)
	switch {
	case runErr == nil:
		r.res.Applied = true
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		r.finish(ctx)
		u.recordFailure()
		return r.res, runErr
	case opts.AllowLocalFallback && !errors.Is(runErr, ports.ErrNotReady):
		r.log.WithError(runErr).Warn("apply failed, writing draft to local mirror")
		if err := u.fallback(ctx, draft, opts); err != nil {
			r.finish(ctx)
			u.recordFailure()
			return r.res, fmt.Errorf("local fallback: %w (after %v)", err, runErr)
		}
		r.res.Applied = true
		r.res.Fallback = true
		r.notice(ctx, ports.Notice{Kind: ports.NoticeFallback, Message: "Game connection failed; layout written to the local view only."})
	default:
		r.log.WithError(runErr).Error("apply failed")
		r.finish(ctx)
		u.recordFailure()
		return r.res, runErr
	}
	r.finish(ctx)
	if u.Metrics != nil {
		u.Metrics.RecordApplied(r.stats())
	}
	return r.res, nil
}

func (u UseCase) recordFailure() {
	if u.Metrics != nil {
		u.Metrics.RecordFailure()
	}
}

func (u UseCase) fallback(ctx context.Context, draft garden.Garden, opts Options) error {
	live, err := u.loadLive(ctx)
	if err != nil {
		return err
	}
	return u.writeGarden(ctx, live.Slot, mergeDraft(live.Garden, draft, opts.ClearTargetTiles))
}

// precheck lists non-egg occupants that differ from their draft target.
func precheck(live, draft garden.Garden) []BlockedTile {
	var out []BlockedTile
	for _, plane := range garden.Planes() {
		for _, t := range orderedTasks(draft, plane) {
			cur, ok := live.Tile(plane, t.index)
			if !ok || cur.IsEgg() || t.target.IsEgg() || garden.Equivalent(cur, t.target) {
				continue
			}
			out = append(out, BlockedTile{Plane: plane, Index: t.index, Occupant: cur, Target: t.target, Reason: ReasonOccupied})
		}
	}
	sortBlocked(out)
	return out
}

type run struct {
	u     UseCase
	cfg   Config
	opts  Options
	draft garden.Garden
	log   logrus.FieldLogger

	budget     int
	budgetUsed int
	freeSlots  int
	dispatched int

	blocked      map[tileRef]BlockedTile
	missing      []Shortfall
	fullNotified bool
	res          Result
}

func (r *run) loop(ctx context.Context) error {
	for pass := 1; pass <= r.cfg.MaxPasses; pass++ {
		r.res.Passes = pass
		n, err := r.pass(ctx, pass)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	r.log.WithField("passes", r.cfg.MaxPasses).Warn("pass limit reached before convergence")
	return nil
}

// pass performs one diff-and-act sweep over both planes against a fresh
// snapshot and returns the number of intents it dispatched.
func (r *run) pass(ctx context.Context, pass int) (int, error) {
	state, err := r.u.loadLive(ctx)
	if err != nil {
		return 0, err
	}
	live := state.Garden
	snap := state.Inventory.Snapshot()
	r.freeSlots = snap.Usage.FreeSlots
	r.missing = nil
	pool := newSourcePool(live, r.draft, snap, r.opts.ClearTargetTiles)
	before := r.dispatched
	log := r.log.WithField("pass", pass)

	for _, plane := range garden.Planes() {
		for _, t := range orderedTasks(r.draft, plane) {
			if err := r.reconcileTile(ctx, log, &live, pool, t); err != nil {
				return r.dispatched - before, err
			}
		}
	}
	return r.dispatched - before, nil
}

func (r *run) reconcileTile(ctx context.Context, log logrus.FieldLogger, live *garden.Garden, pool *sourcePool, t task) error {
	cur, occupied := live.Tile(t.plane, t.index)
	if occupied && garden.Equivalent(cur, t.target) {
		return nil
	}
	if occupied && cur.IsEgg() {
		r.block(BlockedTile{Plane: t.plane, Index: t.index, Occupant: cur, Target: t.target, Reason: ReasonEgg})
		return nil
	}
	if t.target.IsEgg() {
		r.block(BlockedTile{Plane: t.plane, Index: t.index, Occupant: cur, Target: t.target, Reason: ReasonEggTarget})
		return nil
	}
	if t.target.IsPlant() && t.plane != garden.PlaneDirt {
		r.block(BlockedTile{Plane: t.plane, Index: t.index, Occupant: cur, Target: t.target, Reason: ReasonUnsupported})
		return nil
	}
	if occupied && !r.opts.ClearTargetTiles {
		r.block(BlockedTile{Plane: t.plane, Index: t.index, Occupant: cur, Target: t.target, Reason: ReasonOccupied})
		return nil
	}

	src, ok := pool.take(t.target)
	if !ok {
		r.missing = append(r.missing, Shortfall{
			Plane: t.plane, Index: t.index, Kind: t.target.Type,
			ID: t.target.Identity(), Mutation: t.target.DesiredMutation,
		})
		return nil
	}

	removals, entries := 0, 0
	if occupied {
		removals++
		if pool.needsEntry(cur) {
			entries++
		}
	}
	if src.kind == sourceGarden {
		removals++
		if pool.needsEntry(src.object) {
			entries++
		}
	}
	if !r.canFree(removals, entries) {
		pool.release(src, t.target)
		r.inventoryFull(ctx)
		return nil
	}

	tileLog := log.WithFields(logrus.Fields{"plane": t.plane, "tile": t.index})
	if occupied {
		if err := r.dispatch(ctx, tileLog, removal(t.plane, t.index, cur)); err != nil {
			return err
		}
		opened := true
		if cur.IsDecor() {
			opened = pool.stackDecor(cur.DecorID)
		}
		r.consumeSlot(opened)
		live.Clear(t.plane, t.index)
		pool.removed(t.plane, t.index)
	}

	if src.kind == sourceGarden {
		known := pool.knownItemIDs()
		if err := r.dispatch(ctx, tileLog, removal(src.plane, src.index, src.object)); err != nil {
			return err
		}
		opened := true
		if src.object.IsDecor() {
			opened = pool.stackDecor(src.object.DecorID)
			pool.drawDecor(src.object.DecorID)
		}
		r.consumeSlot(opened)
		live.Clear(src.plane, src.index)
		if t.target.IsPlant() {
			itemID, found, err := r.awaitPotted(ctx, t.target, known)
			if err != nil {
				return err
			}
			if !found {
				tileLog.WithField("species", t.target.Species).Debug("potted plant not yet in inventory, retrying next pass")
				return nil
			}
			pool.markUsed(itemID)
			src.itemID = itemID
		}
	}

	var place garden.Intent
	if t.target.IsPlant() {
		place = garden.PlantGardenPlant(t.index, src.itemID)
	} else {
		place = garden.PlaceDecor(t.plane, t.index, t.target.DecorID, t.target.Rotation)
	}
	if err := r.dispatch(ctx, tileLog, place); err != nil {
		return err
	}
	if t.target.IsPlant() || pool.placedDecor(t.target.DecorID) {
		r.freeSlots++
	}
	live.Put(t.plane, t.index, t.target)
	return nil
}

func removal(plane garden.Plane, idx int, obj garden.TileObject) garden.Intent {
	if obj.IsPlant() {
		return garden.PotPlant(idx)
	}
	return garden.PickupDecor(plane, idx)
}

// canFree reports whether a tile may dispatch its removals, which open entries
// new inventory entries between them. The slot budget counts every removal and
// binds even when the live inventory check is ignored.
func (r *run) canFree(removals, entries int) bool {
	if removals == 0 {
		return true
	}
	if r.opts.InventorySlotsAvailable != nil && r.budget-r.budgetUsed < removals {
		return false
	}
	return r.opts.IgnoreInventory || r.freeSlots >= entries
}

func (r *run) consumeSlot(opened bool) {
	if opened {
		r.freeSlots--
	}
	r.budgetUsed++
}

func (r *run) dispatch(ctx context.Context, log logrus.FieldLogger, in garden.Intent) error {
	if err := r.u.Commands.Send(ctx, in); err != nil {
		return fmt.Errorf("send %s: %w", in, err)
	}
	r.dispatched++
	r.res.Actions = append(r.res.Actions, in)
	log.WithField("intent", in.String()).Debug("dispatched")
	return sleep(ctx, r.cfg.ActionDelay)
}

// awaitPotted polls the inventory until a plant matching target appears under
// an id outside known, or the converge timeout passes.
func (r *run) awaitPotted(ctx context.Context, target garden.TileObject, known map[string]bool) (string, bool, error) {
	deadline := time.Now().Add(r.cfg.ConvergeTimeout)
	for {
		inv, err := r.u.readInventory(ctx)
		if err != nil {
			return "", false, err
		}
		for _, it := range inv.Items {
			if it.ItemType != garden.ItemPlant || known[it.ID] {
				continue
			}
			if strings.EqualFold(it.Species, target.Species) && it.AsTileObject().HasMutation(target.DesiredMutation) {
				return it.ID, true, nil
			}
		}
		if !time.Now().Before(deadline) {
			return "", false, nil
		}
		if err := sleep(ctx, r.cfg.PollInterval); err != nil {
			return "", false, err
		}
	}
}

func (r *run) block(b BlockedTile) {
	r.blocked[tileRef{b.Plane, b.Index}] = b
}

func (r *run) inventoryFull(ctx context.Context) {
	r.res.InventoryFull = true
	if r.fullNotified {
		return
	}
	r.fullNotified = true
	r.notice(ctx, ports.Notice{Kind: ports.NoticeInventoryFull, Message: "Inventory is full; some tiles were skipped."})
}

func (r *run) notice(ctx context.Context, n ports.Notice) {
	r.res.Notices = append(r.res.Notices, n)
	r.u.notify(ctx, n)
}

// finish copies the accumulated tile reports into the result and emits the
// once-per-call summaries.
func (r *run) finish(ctx context.Context) {
	r.res.Blocked = make([]BlockedTile, 0, len(r.blocked))
	for _, b := range r.blocked {
		r.res.Blocked = append(r.res.Blocked, b)
	}
	sortBlocked(r.res.Blocked)
	r.res.Missing = append([]Shortfall{}, r.missing...)
	sort.SliceStable(r.res.Missing, func(i, j int) bool {
		a, b := r.res.Missing[i], r.res.Missing[j]
		if a.Plane != b.Plane {
			return a.Plane == garden.PlaneDirt
		}
		return a.Index < b.Index
	})

	if n := len(r.res.Blocked); n > 0 {
		r.notice(ctx, ports.Notice{
			Kind:    ports.NoticeBlocked,
			Message: fmt.Sprintf("%d tile(s) blocked: %s", n, describeBlocked(r.res.Blocked)),
		})
	}
	if len(r.res.Missing) > 0 {
		counts := map[string]int{}
		for _, m := range r.res.Missing {
			key := m.ID
			if m.Mutation != "" {
				key = m.Mutation + " " + m.ID
			}
			counts[key]++
		}
		r.notice(ctx, ports.Notice{
			Kind:    ports.NoticeMissing,
			Message: "Missing items: " + describeCounts(counts),
		})
	}
}

func (r *run) stats() ports.ApplyStats {
	actions := map[string]int{}
	for _, in := range r.res.Actions {
		actions[string(in.Type)]++
	}
	return ports.ApplyStats{
		Passes:   r.res.Passes,
		Actions:  actions,
		Blocked:  len(r.res.Blocked),
		Missing:  len(r.res.Missing),
		Fallback: r.res.Fallback,
	}
}

func describeBlocked(tiles []BlockedTile) string {
	parts := make([]string, 0, len(tiles))
	for _, b := range tiles {
		occupant := b.Occupant.Identity()
		if occupant == "" {
			occupant = "empty"
		}
		parts = append(parts, fmt.Sprintf("%s #%d (%s, %s)", b.Plane, b.Index, occupant, b.Reason))
	}
	return strings.Join(parts, "; ")
}

func sortBlocked(tiles []BlockedTile) {
	sort.SliceStable(tiles, func(i, j int) bool {
		if tiles[i].Plane != tiles[j].Plane {
			return tiles[i].Plane == garden.PlaneDirt
		}
		return tiles[i].Index < tiles[j].Index
	})
}
