package sprite

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

type countingTextures struct {
	fakeTextures
	keysCalls int
}

func (c *countingTextures) Keys() []string {
	c.keysCalls++
	return c.fakeTextures.Keys()
}

func newResolver(t *testing.T, tex *countingTextures) *IconResolver {
	t.Helper()
	logger, _ := test.NewNullLogger()
	r, err := NewIconResolver(tex, DefaultOverrides, logger)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestIconResolverOrder(t *testing.T) {
	tex := &countingTextures{fakeTextures: fakeTextures{
		"plants/Carrot":         solid(2, 2, red),
		"plants/CarrotSeedling": solid(2, 2, blue),
		"decor/Carrot":          solid(2, 2, grey),
		"plants/GiantPumpkin":   solid(2, 2, grey),
		"Starweaver_Pod":        solid(2, 2, blue),
	}}
	r := newResolver(t, tex)

	cases := []struct {
		category, id, wantKey string
	}{
		{"plant", "carrot", "plants/Carrot"},
		{"plants", "Car-rot", "plants/Carrot"},
		{"decor", "Carrot", "decor/Carrot"},
		{"plant", "carrotseed", "plants/CarrotSeedling"},
		{"plant", "pumpkin", "plants/GiantPumpkin"},
		{"item", "starweaver", "Starweaver_Pod"},
		{"plant", "DirtPatch", "override:dirtpatch"},
	}
	for _, tc := range cases {
		icon, ok := r.Resolve(tc.category, tc.id)
		if !ok || icon.Key != tc.wantKey {
			t.Fatalf("Resolve(%q,%q) got=%q ok=%v want=%q", tc.category, tc.id, icon.Key, ok, tc.wantKey)
		}
	}
}

func TestIconResolverCachesMisses(t *testing.T) {
	tex := &countingTextures{fakeTextures: fakeTextures{"plants/Carrot": solid(2, 2, red)}}
	r := newResolver(t, tex)

	if _, ok := r.Resolve("plant", "Dragonfruit"); ok {
		t.Fatalf("expected a miss")
	}
	if _, ok := r.Resolve("plant", "dragon fruit"); ok {
		t.Fatalf("expected a miss")
	}
	if tex.keysCalls != 1 {
		t.Fatalf("second lookup of the same normalized id should be cached, scans=%d", tex.keysCalls)
	}
	r.Forget()
	if _, ok := r.Resolve("plant", "dragonfruit"); ok {
		t.Fatalf("expected a miss")
	}
	if tex.keysCalls != 2 {
		t.Fatalf("Forget should force a rescan, scans=%d", tex.keysCalls)
	}
	if _, ok := r.Resolve("plant", "--"); ok {
		t.Fatalf("empty normalized id must not resolve")
	}
}

func TestShortIDsSkipFuzzyMatch(t *testing.T) {
	tex := &countingTextures{fakeTextures: fakeTextures{"plants/Carrot": solid(2, 2, red)}}
	r := newResolver(t, tex)
	if _, ok := r.Resolve("plant", "ca"); ok {
		t.Fatalf("two-letter ids should not fuzzy match")
	}
}

func TestNormalizeID(t *testing.T) {
	if got := NormalizeID(" Moon-Celestial_2 "); got != "mooncelestial2" {
		t.Fatalf("got=%q", got)
	}
}
