package reconcile

import (
	"context"
	"sort"
	"strings"

	"gardensync/internal/domain/garden"
)

type requirementKey struct {
	kind     garden.ObjectType
	id       string
	mutation string
}

// RequirementSummary counts what the draft needs per plant (species and
// desired mutation) and decor id, against what the inventory and the live
// garden hold together. Plants sort before decor, then alphabetically.
func (u UseCase) RequirementSummary(ctx context.Context, draft garden.Garden) ([]Requirement, error) {
	draft, err := u.normalizeDraft(draft)
	if err != nil {
		return nil, err
	}
	live, err := u.loadLive(ctx)
	if err != nil {
		return nil, err
	}
	needed := map[requirementKey]int{}
	for _, plane := range garden.Planes() {
		for idx, obj := range draft.Tiles(plane) {
			if draft.IsIgnored(plane, idx) || obj.IsEgg() {
				continue
			}
			needed[keyFor(obj)]++
		}
	}

	snap := live.Inventory.Snapshot()
	out := make([]Requirement, 0, len(needed))
	for k, n := range needed {
		req := Requirement{Kind: k.kind, ID: k.id, Mutation: k.mutation, Needed: n}
		switch k.kind {
		case garden.ObjectPlant:
			req.Have = snap.PlantCount(k.id, k.mutation)
		case garden.ObjectDecor:
			req.Have = snap.Decors[k.id]
		}
		req.Have += countInGarden(live.Garden, draft, k)
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind == garden.ObjectPlant
		}
		if la, lb := strings.ToLower(a.ID), strings.ToLower(b.ID); la != lb {
			return la < lb
		}
		return a.Mutation < b.Mutation
	})
	return out, nil
}

func keyFor(obj garden.TileObject) requirementKey {
	k := requirementKey{kind: obj.Type, id: obj.Identity()}
	if obj.IsPlant() {
		k.mutation = garden.NormalizeMutation(obj.DesiredMutation)
	}
	return k
}

func countInGarden(live, draft garden.Garden, k requirementKey) int {
	target := garden.TileObject{Type: k.kind, Species: k.id, DecorID: k.id, DesiredMutation: k.mutation}
	n := 0
	for _, plane := range garden.Planes() {
		for idx, obj := range live.Tiles(plane) {
			if draft.IsIgnored(plane, idx) {
				continue
			}
			if garden.Equivalent(obj, target) {
				n++
			}
		}
	}
	return n
}
