package catalog

import (
	"errors"
	"testing"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c := Default()
	carrot, ok := c.Plant("carrot")
	if !ok {
		t.Fatalf("expected Carrot in default catalog")
	}
	if carrot.SlotCount() != 1 || carrot.Tall {
		t.Fatalf("carrot: %+v", carrot)
	}
	if !c.IsTall("Apple") {
		t.Fatalf("Apple should be tall")
	}
	apple, _ := c.Plant("Apple")
	if apple.BadgeAnchor == nil || apple.BadgeAnchor.Y != 0.3 {
		t.Fatalf("apple anchor: %+v", apple.BadgeAnchor)
	}
	if p, ok := c.PlantByItem("CornKernel"); !ok || p.Species != "Corn" {
		t.Fatalf("PlantByItem(CornKernel)=%+v ok=%v", p, ok)
	}
	if _, ok := c.Decor("smallrock"); !ok {
		t.Fatalf("expected SmallRock decor")
	}
	if _, ok := c.Egg("CommonEgg"); !ok {
		t.Fatalf("expected CommonEgg")
	}
}

func TestMutationLookupUsesAliases(t *testing.T) {
	c := Default()
	m, ok := c.Mutation("amberbound")
	if !ok || m.Name != "Ambercharged" || m.Group != GroupWarm {
		t.Fatalf("amberbound: %+v ok=%v", m, ok)
	}
	frozen, _ := c.Mutation("Frozen")
	keys := frozen.OverlayKeys()
	if len(keys) == 0 || keys[0] != "FrozenOverlay" {
		t.Fatalf("frozen overlay keys: %v", keys)
	}
	ambershine, _ := c.Mutation("Ambershine")
	if ambershine.HasOverlay() || ambershine.OverlayKeys() != nil {
		t.Fatalf("ambershine has no overlay art: %+v", ambershine)
	}
}

func TestParseRejectsBadData(t *testing.T) {
	cases := map[string]string{
		"duplicate plant": "plants:\n  - species: A\n  - species: a\n",
		"bad group":       "mutations:\n  - name: Gold\n    group: shiny\n",
		"bad anchor":      "plants:\n  - species: A\n    badgeAnchor: [1]\n",
		"not yaml":        "plants: [",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); !errors.Is(err, ErrInvalidCatalog) {
			t.Fatalf("%s: expected ErrInvalidCatalog, got %v", name, err)
		}
	}
}
