package reconcile

import (
	"sort"
	"strings"

	"gardensync/internal/domain/garden"
)

type sourceKind int

const (
	sourceInventory sourceKind = iota
	sourceGarden
)

// source is where a draft target will come from: an inventory item, a decor
// stack, or a mispositioned live tile that has to be potted or picked up first.
type source struct {
	kind   sourceKind
	itemID string
	plane  garden.Plane
	index  int
	object garden.TileObject
}

type tileRef struct {
	plane garden.Plane
	index int
}

// sourcePool tracks what one pass may still draw from. It is rebuilt from a
// fresh snapshot at the top of every pass.
type sourcePool struct {
	plantItems []garden.InventoryItem
	usedItems  map[string]bool
	decor      map[string]int
	stacks     map[string]int
	candidates []source
	taken      map[tileRef]bool
}

// newSourcePool collects inventory sources and mispositioned garden tiles.
// A live tile is mispositioned when the draft wants something else there, or,
// with clearTargets, when the draft does not mention it at all. Ignored tiles
// and eggs are never candidates.
func newSourcePool(live garden.Garden, draft garden.Garden, snap garden.InventorySnapshot, clearTargets bool) *sourcePool {
	p := &sourcePool{
		plantItems: append([]garden.InventoryItem(nil), snap.PlantItems...),
		usedItems:  map[string]bool{},
		decor:      map[string]int{},
		stacks:     map[string]int{},
		taken:      map[tileRef]bool{},
	}
	for id, n := range snap.Decors {
		p.decor[id] = n
	}
	for id, n := range snap.DecorStacks {
		p.stacks[id] = n
	}
	for _, plane := range garden.Planes() {
		liveTiles := live.Tiles(plane)
		draftTiles := draft.Tiles(plane)
		for _, idx := range liveTiles.Indices() {
			obj := liveTiles[idx]
			if obj.IsEgg() || draft.IsIgnored(plane, idx) {
				continue
			}
			target, inDraft := draftTiles[idx]
			switch {
			case inDraft && garden.Equivalent(obj, target):
				continue
			case !inDraft && !clearTargets:
				continue
			}
			p.candidates = append(p.candidates, source{kind: sourceGarden, plane: plane, index: idx, object: obj})
		}
	}
	return p
}

// take reserves a source for target, preferring the inventory.
func (p *sourcePool) take(target garden.TileObject) (source, bool) {
	switch target.Type {
	case garden.ObjectPlant:
		for _, it := range p.plantItems {
			if p.usedItems[it.ID] || !strings.EqualFold(it.Species, target.Species) {
				continue
			}
			if !it.AsTileObject().HasMutation(target.DesiredMutation) {
				continue
			}
			p.usedItems[it.ID] = true
			return source{kind: sourceInventory, itemID: it.ID}, true
		}
	case garden.ObjectDecor:
		if p.decor[target.DecorID] > 0 {
			p.decor[target.DecorID]--
			return source{kind: sourceInventory}, true
		}
	default:
		return source{}, false
	}
	for _, c := range p.candidates {
		ref := tileRef{c.plane, c.index}
		if p.taken[ref] || !garden.Equivalent(c.object, target) {
			continue
		}
		if target.IsPlant() && c.plane != garden.PlaneDirt {
			continue
		}
		p.taken[ref] = true
		return c, true
	}
	return source{}, false
}

// release returns a reservation that could not be used.
func (p *sourcePool) release(s source, target garden.TileObject) {
	switch {
	case s.kind == sourceGarden:
		delete(p.taken, tileRef{s.plane, s.index})
	case target.IsPlant():
		delete(p.usedItems, s.itemID)
	case target.IsDecor():
		p.decor[target.DecorID]++
	}
}

// removed marks a live tile as gone so it is never chosen as a source later.
func (p *sourcePool) removed(plane garden.Plane, idx int) {
	p.taken[tileRef{plane, idx}] = true
}

// needsEntry reports whether taking obj into the inventory opens a new entry.
// Plants always do; decor stacks onto an existing entry of the same id.
func (p *sourcePool) needsEntry(obj garden.TileObject) bool {
	return !obj.IsDecor() || p.stacks[obj.DecorID] == 0
}

// stackDecor credits a picked-up decor to the inventory ledger and reports
// whether it opened a new entry.
func (p *sourcePool) stackDecor(decorID string) bool {
	p.decor[decorID]++
	if p.stacks[decorID] > 0 {
		return false
	}
	p.stacks[decorID] = 1
	return true
}

// drawDecor takes back one decor credited by stackDecor.
func (p *sourcePool) drawDecor(decorID string) {
	p.decor[decorID]--
}

// placedDecor settles a placement already drawn from the ledger and reports
// whether it emptied an inventory entry.
func (p *sourcePool) placedDecor(decorID string) bool {
	if p.decor[decorID] >= p.stacks[decorID] {
		return false
	}
	p.stacks[decorID]--
	return true
}

// knownItemIDs is every plant item id the pool has seen; a potted plant shows
// up in the inventory under an id outside this set.
func (p *sourcePool) knownItemIDs() map[string]bool {
	out := make(map[string]bool, len(p.plantItems)+len(p.usedItems))
	for _, it := range p.plantItems {
		out[it.ID] = true
	}
	for id := range p.usedItems {
		out[id] = true
	}
	return out
}

func (p *sourcePool) markUsed(itemID string) {
	p.usedItems[itemID] = true
}

type task struct {
	plane  garden.Plane
	index  int
	target garden.TileObject
}

// orderedTasks lists the non-ignored draft tiles of a plane grouped by target
// kind in alphabetical order, then by index.
func orderedTasks(draft garden.Garden, plane garden.Plane) []task {
	tiles := draft.Tiles(plane)
	out := make([]task, 0, len(tiles))
	for idx, obj := range tiles {
		if draft.IsIgnored(plane, idx) {
			continue
		}
		out = append(out, task{plane: plane, index: idx, target: obj})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := groupKey(out[i].target), groupKey(out[j].target)
		if ki != kj {
			return ki < kj
		}
		return out[i].index < out[j].index
	})
	return out
}

func groupKey(obj garden.TileObject) string {
	return strings.ToLower(obj.Identity()) + "|" + garden.NormalizeMutation(obj.DesiredMutation)
}
