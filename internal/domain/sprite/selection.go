package sprite

import (
	"sort"
	"strings"

	"gardensync/internal/domain/catalog"
	"gardensync/internal/domain/garden"
)

// Selection is the normalized split of a mutation set into the three render
// passes. Each list is sorted and free of duplicates.
type Selection struct {
	Icons    []string `json:"icons"`
	Filters  []string `json:"filters"`
	Overlays []string `json:"overlays"`
}

// Select normalizes raw mutation names and decides which of them take part in
// each pass. Unknown names are dropped.
func Select(mutations []string, cat *catalog.Catalog) Selection {
	known := map[string]catalog.Mutation{}
	for _, raw := range mutations {
		m, ok := cat.Mutation(garden.NormalizeMutation(raw))
		if !ok {
			continue
		}
		known[m.Name] = m
	}
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)

	sel := Selection{Icons: names, Filters: []string{}, Overlays: []string{}}
	sel.Filters = filterPass(names, known)
	for _, name := range names {
		if known[name].HasOverlay() {
			sel.Overlays = append(sel.Overlays, name)
		}
	}
	return sel
}

func filterPass(names []string, known map[string]catalog.Mutation) []string {
	var gold, rainbow, warm, cold []string
	for _, name := range names {
		switch known[name].Group {
		case catalog.GroupGold:
			gold = append(gold, name)
		case catalog.GroupRainbow:
			rainbow = append(rainbow, name)
		case catalog.GroupWarm:
			warm = append(warm, name)
		case catalog.GroupCold:
			cold = append(cold, name)
		}
	}
	switch {
	case len(gold) > 0:
		return gold[:1]
	case len(rainbow) > 0:
		return rainbow[:1]
	case len(warm) > 0:
		return warm
	case len(cold) > 0:
		return cold
	default:
		return []string{}
	}
}

func (s Selection) Empty() bool {
	return len(s.Icons) == 0 && len(s.Filters) == 0 && len(s.Overlays) == 0
}

// Signature is the canonical cache-key suffix for the selection.
func (s Selection) Signature() string {
	return "icons:" + strings.Join(s.Icons, ",") +
		";filters:" + strings.Join(s.Filters, ",") +
		";overlays:" + strings.Join(s.Overlays, ",")
}

// VariantSignature computes the signature of a raw mutation list.
func VariantSignature(mutations []string, cat *catalog.Catalog) string {
	return Select(mutations, cat).Signature()
}

// CacheKey joins a base texture key with a variant signature.
func CacheKey(baseKey, signature string) string {
	return baseKey + "|" + signature
}
