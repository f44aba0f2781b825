package sprite

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sort"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"gardensync/internal/app/ports"
)

// DefaultOverrides are hand-authored icons for ids the atlas has no art for.
var DefaultOverrides = map[string]string{
	"DirtPatch":      "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAQAAAAECAYAAACp8Z5+AAAAEklEQVR4nGOoDLX6j4wZSBcAAEOoIHGgajb+AAAAAElFTkSuQmCC",
	"BoardwalkPatch": "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAQAAAAECAYAAACp8Z5+AAAAEklEQVR4nGNYUBHwHxkzkC4AABPHJnEDQLmZAAAAAElFTkSuQmCC",
	"ClearTile":      "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAQAAAAECAYAAACp8Z5+AAAADElEQVR4nGNgoBwAAABEAAHX40j9AAAAAElFTkSuQmCC",
}

const minFuzzyLen = 3

// Icon is a resolved base texture. Key identifies it for variant caching.
type Icon struct {
	Key   string
	Image image.Image
}

// IconResolver finds the base texture for a (category, id) pair: overrides
// first, then an exact normalized match against the atlas, then a prefix and
// substring scan. Results, including misses, are cached per pair.
type IconResolver struct {
	textures  ports.TextureSource
	overrides map[string]image.Image
	cache     *ristretto.Cache[string, Icon]
	group     singleflight.Group
	logger    logrus.FieldLogger
}

func NewIconResolver(textures ports.TextureSource, overrides map[string]string, logger logrus.FieldLogger) (*IconResolver, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cache, err := ristretto.NewCache[string, Icon](&ristretto.Config[string, Icon]{
		NumCounters:        10000,
		MaxCost:            4096,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("icon cache: %w", err)
	}
	r := &IconResolver{
		textures:  textures,
		overrides: make(map[string]image.Image, len(overrides)),
		cache:     cache,
		logger:    logger,
	}
	for id, url := range overrides {
		img, err := decodeDataURL(url)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", id, err)
		}
		r.overrides[NormalizeID(id)] = img
	}
	return r, nil
}

// NormalizeID lowercases and keeps only ASCII letters and digits.
func NormalizeID(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (r *IconResolver) Resolve(category, id string) (Icon, bool) {
	nid := NormalizeID(id)
	if nid == "" {
		return Icon{}, false
	}
	key := NormalizeID(category) + "|" + nid
	if icon, ok := r.cache.Get(key); ok {
		return icon, icon.Image != nil
	}
	v, _, _ := r.group.Do(key, func() (any, error) {
		icon := r.scan(category, nid)
		r.cache.Set(key, icon, 1)
		r.cache.Wait()
		return icon, nil
	})
	icon := v.(Icon)
	if icon.Image == nil {
		r.logger.WithFields(logrus.Fields{"category": category, "id": id}).Debug("no icon")
	}
	return icon, icon.Image != nil
}

// Forget drops every cached resolution, e.g. after the atlas changed.
func (r *IconResolver) Forget() {
	r.cache.Clear()
}

func (r *IconResolver) Close() {
	r.cache.Close()
}

func (r *IconResolver) scan(category, nid string) Icon {
	if img, ok := r.overrides[nid]; ok {
		return Icon{Key: "override:" + nid, Image: img}
	}
	if r.textures == nil {
		return Icon{}
	}
	keys := r.textures.Keys()
	sort.Strings(keys)
	cat := singular(NormalizeID(category))

	type candidate struct{ key, name string }
	cands := make([]candidate, 0, len(keys))
	for _, k := range keys {
		kc, name := splitKey(k)
		if cat != "" && kc != "" && kc != cat {
			continue
		}
		cands = append(cands, candidate{key: k, name: name})
	}

	matchers := []func(name string) bool{
		func(name string) bool { return name == nid },
	}
	if len(nid) >= minFuzzyLen {
		matchers = append(matchers,
			func(name string) bool { return strings.HasPrefix(name, nid) },
			func(name string) bool { return strings.Contains(name, nid) },
		)
	}
	for _, match := range matchers {
		for _, c := range cands {
			if !match(c.name) {
				continue
			}
			if img, ok := r.textures.Texture(c.key); ok && img != nil {
				return Icon{Key: c.key, Image: img}
			}
		}
	}
	return Icon{}
}

// splitKey splits "plants/Carrot" into ("plant", "carrot").
func splitKey(k string) (string, string) {
	if i := strings.LastIndex(k, "/"); i >= 0 {
		return singular(NormalizeID(k[:i])), NormalizeID(k[i+1:])
	}
	return "", NormalizeID(k)
}

func singular(s string) string {
	if len(s) > 1 && strings.HasSuffix(s, "s") {
		return s[:len(s)-1]
	}
	return s
}

func decodeDataURL(url string) (image.Image, error) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(url, prefix) {
		return nil, fmt.Errorf("unsupported data url")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(raw))
}
