package garden

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEquivalent(t *testing.T) {
	goldCarrot := TileObject{Type: ObjectPlant, Species: "Carrot", Slots: []PlantSlot{{Mutations: []string{"Gold"}}}}
	dawnCarrot := TileObject{Type: ObjectPlant, Species: "Carrot", Slots: []PlantSlot{{}, {Mutations: []string{"Dawnlit"}}}}

	cases := []struct {
		name   string
		live   TileObject
		target TileObject
		want   bool
	}{
		{"same species", NewPlant("Carrot", ""), NewPlant("Carrot", ""), true},
		{"species case", NewPlant("carrot", ""), NewPlant("Carrot", ""), true},
		{"other species", NewPlant("Tomato", ""), NewPlant("Carrot", ""), false},
		{"mutation present", goldCarrot, NewPlant("Carrot", "gold"), true},
		{"mutation missing", NewPlant("Carrot", ""), NewPlant("Carrot", "Gold"), false},
		{"mutation alias on later slot", dawnCarrot, NewPlant("Carrot", "dawn"), true},
		{"decor ignores rotation", NewDecor("SmallRock", 90), NewDecor("SmallRock", 0), true},
		{"decor id differs", NewDecor("SmallRock", 0), NewDecor("Bench", 0), false},
		{"egg", NewEgg("CommonEgg"), NewEgg("CommonEgg"), true},
		{"type differs", NewDecor("Carrot", 0), NewPlant("Carrot", ""), false},
	}
	for _, tc := range cases {
		if got := Equivalent(tc.live, tc.target); got != tc.want {
			t.Fatalf("%s: Equivalent()=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestTileObjectValidate(t *testing.T) {
	if err := NewDecor("SmallRock", 45).Validate(); err == nil {
		t.Fatalf("expected invalid rotation to fail")
	}
	if err := (TileObject{Type: "crate"}).Validate(); err == nil {
		t.Fatalf("expected unknown discriminant to fail")
	}
	if err := NewPlant("Carrot", "").Validate(); err != nil {
		t.Fatalf("expected plant to validate, got %v", err)
	}
}

func TestGardenDecodeDropsUnknownObjects(t *testing.T) {
	raw := `{
		"tileObjects": {
			"1": {"objectType": "plant", "species": "Carrot"},
			"2": {"objectType": "spaceship"},
			"3": null,
			"x": {"objectType": "decor", "decorId": "Bench"}
		},
		"boardwalkTileObjects": {"4": {"objectType": "decor", "decorId": "Bench", "rotation": 90}},
		"ignoredTiles": {"dirt": [7, 3], "boardwalk": []}
	}`
	var g Garden
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(g.TileObjects) != 1 {
		t.Fatalf("expected only the plant to survive, got %+v", g.TileObjects)
	}
	if g.BoardwalkTileObjects[4].Rotation != 90 {
		t.Fatalf("boardwalk rotation lost: %+v", g.BoardwalkTileObjects[4])
	}
	if !g.IsIgnored(PlaneDirt, 7) || g.IsIgnored(PlaneBoardwalk, 7) {
		t.Fatalf("ignored tiles decoded wrong: %+v", g.IgnoredTiles)
	}

	out, err := json.Marshal(g.IgnoredTiles.Dirt)
	if err != nil {
		t.Fatalf("marshal ignored: %v", err)
	}
	if string(out) != "[3,7]" {
		t.Fatalf("ignored set must marshal sorted, got %s", out)
	}
}

func TestGardenDecodeKeepsMalformedKnownObjects(t *testing.T) {
	raw := `{"tileObjects": {
		"1": {"objectType": "decor", "decorId": "SmallRock", "rotation": 45},
		"2": {"objectType": "decor", "decorId": ""}
	}}`
	var g Garden
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(g.TileObjects) != 2 {
		t.Fatalf("expected both decor tiles kept for validation, got %+v", g.TileObjects)
	}
	for idx, obj := range g.TileObjects {
		if err := obj.Validate(); !errors.Is(err, ErrInvalidTileObject) {
			t.Fatalf("tile %d: expected ErrInvalidTileObject, got %v", idx, err)
		}
	}
}

func TestNormalizeMutation(t *testing.T) {
	cases := map[string]string{
		"dawn":       MutationDawnlit,
		"AMBERBOUND": MutationAmbercharged,
		" wet ":      MutationWet,
		"Sparkly":    "Sparkly",
		"":           "",
	}
	for in, want := range cases {
		if got := NormalizeMutation(in); got != want {
			t.Fatalf("NormalizeMutation(%q)=%q want %q", in, got, want)
		}
	}
}
