package layouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gardensync/internal/app/ports"
	"gardensync/internal/domain/garden"
)

const (
	CanonicalKey = "gardenLayout.v2"

	legacyCreatorKey = "gardenLayoutCreator"
	legacyListKey    = "glc.savedGardens"
)

var (
	ErrInvalidImport = errors.New("invalid layout import")
	ErrInvalidName   = errors.New("invalid layout name")
)

type document struct {
	SavedGardens []garden.SavedLayout `json:"savedGardens"`
}

// UseCase is the saved-layout library: an ordered list, most recent first,
// capped at garden.MaxSavedLayouts.
type UseCase struct {
	Store  ports.KeyValueStore
	Tx     ports.TxManager
	Now    func() time.Time
	NewID  func() string
	Logger logrus.FieldLogger
}

type ImportResult struct {
	Imported  int `json:"imported"`
	Repaired  int `json:"repaired"`
	Truncated int `json:"truncated"`
	Total     int `json:"total"`
}

func (u UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u UseCase) newID() string {
	if u.NewID != nil {
		return u.NewID()
	}
	return uuid.NewString()
}

func (u UseCase) log() logrus.FieldLogger {
	if u.Logger == nil {
		return logrus.StandardLogger()
	}
	return u.Logger
}

func (u UseCase) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u.Tx == nil {
		return fn(ctx)
	}
	return u.Tx.RunInTx(ctx, fn)
}

func (u UseCase) List(ctx context.Context) ([]garden.SavedLayout, error) {
	var out []garden.SavedLayout
	err := u.inTx(ctx, func(ctx context.Context) error {
		list, err := u.load(ctx)
		out = list
		return err
	})
	return out, err
}

func (u UseCase) Get(ctx context.Context, id string) (garden.SavedLayout, error) {
	list, err := u.List(ctx)
	if err != nil {
		return garden.SavedLayout{}, err
	}
	for _, l := range list {
		if l.ID == id {
			return l, nil
		}
	}
	return garden.SavedLayout{}, ports.ErrNotFound
}

// Save stores g as a new layout at the front of the list, evicting the oldest
// entries beyond the cap.
func (u UseCase) Save(ctx context.Context, name string, g garden.Garden) (garden.SavedLayout, error) {
	entry := garden.SavedLayout{
		ID:        u.newID(),
		Name:      cleanName(name),
		CreatedAt: u.now().UnixMilli(),
		Garden:    normalizeGarden(g),
	}
	err := u.mutate(ctx, func(list []garden.SavedLayout) ([]garden.SavedLayout, error) {
		return append([]garden.SavedLayout{entry}, list...), nil
	})
	if err != nil {
		return garden.SavedLayout{}, err
	}
	return entry, nil
}

func (u UseCase) Rename(ctx context.Context, id, name string) (garden.SavedLayout, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return garden.SavedLayout{}, ErrInvalidName
	}
	return u.updateOne(ctx, id, func(l *garden.SavedLayout) { l.Name = name })
}

// Update replaces the garden of an existing layout, keeping its position.
func (u UseCase) Update(ctx context.Context, id string, g garden.Garden) (garden.SavedLayout, error) {
	g = normalizeGarden(g)
	return u.updateOne(ctx, id, func(l *garden.SavedLayout) { l.Garden = g })
}

func (u UseCase) Delete(ctx context.Context, id string) error {
	return u.mutate(ctx, func(list []garden.SavedLayout) ([]garden.SavedLayout, error) {
		for i, l := range list {
			if l.ID == id {
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, ports.ErrNotFound
	})
}

// Export serializes the library as a bare JSON array.
func (u UseCase) Export(ctx context.Context) ([]byte, error) {
	list, err := u.List(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(list, "", "  ")
}

// Import accepts a bare array or a {"savedGardens": [...]} document, repairs
// missing ids and names, and either replaces the library or prepends to it.
func (u UseCase) Import(ctx context.Context, data []byte, replace bool) (ImportResult, error) {
	incoming, err := decodeList(data)
	if err != nil {
		return ImportResult{}, err
	}
	var res ImportResult
	err = u.mutate(ctx, func(list []garden.SavedLayout) ([]garden.SavedLayout, error) {
		repaired, n := u.repair(incoming)
		res.Imported = len(repaired)
		res.Repaired = n
		seen := map[string]bool{}
		for _, l := range repaired {
			seen[l.ID] = true
		}
		merged := repaired
		if !replace {
			for _, l := range list {
				if !seen[l.ID] {
					merged = append(merged, l)
				}
			}
		}
		if len(merged) > garden.MaxSavedLayouts {
			res.Truncated = len(merged) - garden.MaxSavedLayouts
			merged = merged[:garden.MaxSavedLayouts]
		}
		res.Total = len(merged)
		return merged, nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	u.log().WithFields(logrus.Fields{
		"imported": res.Imported, "repaired": res.Repaired, "truncated": res.Truncated, "replace": replace,
	}).Info("imported saved layouts")
	return res, nil
}

func (u UseCase) updateOne(ctx context.Context, id string, fn func(*garden.SavedLayout)) (garden.SavedLayout, error) {
	var out garden.SavedLayout
	err := u.mutate(ctx, func(list []garden.SavedLayout) ([]garden.SavedLayout, error) {
		for i := range list {
			if list[i].ID == id {
				fn(&list[i])
				out = list[i]
				return list, nil
			}
		}
		return nil, ports.ErrNotFound
	})
	return out, err
}

func (u UseCase) mutate(ctx context.Context, fn func([]garden.SavedLayout) ([]garden.SavedLayout, error)) error {
	return u.inTx(ctx, func(ctx context.Context) error {
		list, err := u.load(ctx)
		if err != nil {
			return err
		}
		next, err := fn(list)
		if err != nil {
			return err
		}
		return u.save(ctx, next)
	})
}

// load reads the canonical document, migrating a legacy one forward the
// first time the canonical key is empty.
func (u UseCase) load(ctx context.Context) ([]garden.SavedLayout, error) {
	raw, err := u.Store.Get(ctx, CanonicalKey)
	if err == nil {
		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", CanonicalKey, err)
		}
		return doc.SavedGardens, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}

	list, from, err := u.loadLegacy(ctx)
	if err != nil || from == "" {
		return list, err
	}
	list, _ = u.repair(list)
	if err := u.save(ctx, list); err != nil {
		return nil, err
	}
	u.log().WithFields(logrus.Fields{"from": from, "layouts": len(list)}).Info("migrated saved layouts")
	return list, nil
}

func (u UseCase) loadLegacy(ctx context.Context) ([]garden.SavedLayout, string, error) {
	raw, err := u.Store.Get(ctx, legacyCreatorKey)
	switch {
	case err == nil:
		var doc document
		if json.Unmarshal(raw, &doc) == nil && len(doc.SavedGardens) > 0 {
			return doc.SavedGardens, legacyCreatorKey, nil
		}
	case !errors.Is(err, ports.ErrNotFound):
		return nil, "", err
	}

	raw, err = u.Store.Get(ctx, legacyListKey)
	switch {
	case err == nil:
		var list []garden.SavedLayout
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			return list, legacyListKey, nil
		}
	case !errors.Is(err, ports.ErrNotFound):
		return nil, "", err
	}
	return nil, "", nil
}

func (u UseCase) save(ctx context.Context, list []garden.SavedLayout) error {
	if len(list) > garden.MaxSavedLayouts {
		list = list[:garden.MaxSavedLayouts]
	}
	if list == nil {
		list = []garden.SavedLayout{}
	}
	raw, err := json.Marshal(document{SavedGardens: list})
	if err != nil {
		return err
	}
	return u.Store.Set(ctx, CanonicalKey, raw)
}

// repair fills in missing or duplicate ids, blank names and zero timestamps.
// It reports how many entries it touched.
func (u UseCase) repair(list []garden.SavedLayout) ([]garden.SavedLayout, int) {
	out := make([]garden.SavedLayout, 0, len(list))
	seen := map[string]bool{}
	touched := 0
	for _, l := range list {
		changed := false
		l.ID = strings.TrimSpace(l.ID)
		if l.ID == "" || seen[l.ID] {
			l.ID = u.newID()
			changed = true
		}
		if strings.TrimSpace(l.Name) == "" {
			l.Name = garden.UntitledLayout
			changed = true
		}
		if l.CreatedAt <= 0 {
			l.CreatedAt = u.now().UnixMilli()
			changed = true
		}
		l.Garden = normalizeGarden(l.Garden)
		seen[l.ID] = true
		if changed {
			touched++
		}
		out = append(out, l)
	}
	return out, touched
}

func decodeList(data []byte) ([]garden.SavedLayout, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, ErrInvalidImport
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []garden.SavedLayout
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		return list, nil
	}
	var doc document
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if doc.SavedGardens == nil {
		return nil, fmt.Errorf("%w: no savedGardens list", ErrInvalidImport)
	}
	return doc.SavedGardens, nil
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return garden.UntitledLayout
	}
	return name
}

// normalizeGarden drops tiles no apply would accept.
func normalizeGarden(g garden.Garden) garden.Garden {
	out := g.Clone()
	for _, plane := range garden.Planes() {
		tiles := garden.TileMap{}
		for idx, obj := range out.Tiles(plane) {
			if obj.Validate() == nil {
				tiles[idx] = obj
			}
		}
		out.SetTiles(plane, tiles)
	}
	return out
}
