package reconcile

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"gardensync/internal/adapter/atoms"
	"gardensync/internal/adapter/game/sim"
	"gardensync/internal/app/ports"
	"gardensync/internal/domain/catalog"
	"gardensync/internal/domain/garden"
)

const testPlayer = "player-1"

func fastConfig() Config {
	return Config{
		MaxPasses:       10,
		ActionDelay:     0,
		PollInterval:    time.Millisecond,
		ConvergeTimeout: 50 * time.Millisecond,
		PreviewTTL:      time.Minute,
	}
}

type fixture struct {
	store    *atoms.Store
	sim      *sim.Simulator
	notifier *recordingNotifier
	metrics  *recordingMetrics
	uc       UseCase
}

func newFixture(t *testing.T, live garden.Garden, inv garden.Inventory, opts ...sim.Option) *fixture {
	t.Helper()
	store := atoms.NewStore()
	if err := sim.Seed(store, sim.World{PlayerID: testPlayer, Slot: 1, Garden: live, Inventory: inv}); err != nil {
		t.Fatalf("seed world: %v", err)
	}
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts = append([]sim.Option{sim.WithLogger(logger)}, opts...)
	f := &fixture{
		store:    store,
		sim:      sim.New(store, opts...),
		notifier: &recordingNotifier{},
		metrics:  &recordingMetrics{},
	}
	f.uc = UseCase{
		Store:    store,
		Commands: f.sim,
		Catalog:  catalog.Default(),
		Notifier: f.notifier,
		Metrics:  f.metrics,
		Logger:   logger,
		Config:   fastConfig(),
	}
	return f
}

func (f *fixture) garden(t *testing.T) garden.Garden {
	t.Helper()
	g, _, err := f.sim.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return g
}

func (f *fixture) rawSlots(t *testing.T) string {
	t.Helper()
	raw, err := f.store.Select(context.Background(), ports.LabelUserSlots)
	if err != nil {
		t.Fatalf("select slots: %v", err)
	}
	return string(raw)
}

func mirrorGarden(t *testing.T, store *atoms.Store) garden.Garden {
	t.Helper()
	raw, err := store.Select(context.Background(), ports.LabelUserSlots)
	if err != nil {
		t.Fatalf("select slots: %v", err)
	}
	var slots []*garden.UserSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	idx, ok := garden.FindSlot(slots, testPlayer)
	if !ok {
		t.Fatalf("player slot missing")
	}
	return slots[idx].Data.Garden
}

func gardenOf(dirt map[int]garden.TileObject, boardwalk map[int]garden.TileObject) garden.Garden {
	g := garden.NewGarden()
	for idx, obj := range dirt {
		g.Put(garden.PlaneDirt, idx, obj)
	}
	for idx, obj := range boardwalk {
		g.Put(garden.PlaneBoardwalk, idx, obj)
	}
	return g
}

func plantItem(id, species string, mutations ...string) garden.InventoryItem {
	it := garden.InventoryItem{ID: id, ItemType: garden.ItemPlant, Species: species}
	if len(mutations) > 0 {
		it.Slots = []garden.PlantSlot{{TargetScale: 1, Mutations: mutations}}
	}
	return it
}

func decorItem(id, decorID string, qty int) garden.InventoryItem {
	return garden.InventoryItem{ID: id, ItemType: garden.ItemDecor, DecorID: decorID, Quantity: qty}
}

func assertActions(t *testing.T, got []garden.Intent, want ...garden.Intent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("actions: got=%s want=%s", spew.Sdump(got), spew.Sdump(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("action %d: got=%s want=%s", i, got[i], want[i])
		}
	}
}

func intPtr(n int) *int { return &n }

type recordingNotifier struct {
	mu      sync.Mutex
	notices []ports.Notice
}

func (n *recordingNotifier) Notify(_ context.Context, notice ports.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) count(kind ports.NoticeKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, notice := range n.notices {
		if notice.Kind == kind {
			c++
		}
	}
	return c
}

type recordingMetrics struct {
	applied  []ports.ApplyStats
	blocked  int
	failures int
}

func (m *recordingMetrics) RecordApplied(stats ports.ApplyStats) { m.applied = append(m.applied, stats) }
func (m *recordingMetrics) RecordBlocked()                       { m.blocked++ }
func (m *recordingMetrics) RecordFailure()                       { m.failures++ }
