package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"gardensync/internal/adapter/atoms"
	"gardensync/internal/app/ports"
	"gardensync/internal/domain/catalog"
	"gardensync/internal/domain/garden"
)

var ErrTransport = errors.New("simulated transport failure")

// World is the initial state written into the atom store by Seed.
type World struct {
	PlayerID  string
	Slot      int
	Garden    garden.Garden
	Inventory garden.Inventory
	Geometry  *garden.MapGeometry
}

// Seed writes the player, user slot, inventory and optional map cells.
func Seed(store *atoms.Store, w World) error {
	if err := store.Seed(ports.LabelPlayer, garden.PlayerCell{ID: w.PlayerID}); err != nil {
		return err
	}
	slots := make([]*garden.UserSlot, w.Slot+1)
	slots[w.Slot] = &garden.UserSlot{PlayerID: w.PlayerID, Data: garden.SlotData{Garden: w.Garden}}
	if err := store.Seed(ports.LabelUserSlots, slots); err != nil {
		return err
	}
	if err := store.Seed(ports.LabelInventory, w.Inventory); err != nil {
		return err
	}
	if w.Geometry != nil {
		return store.Seed(ports.LabelMap, w.Geometry)
	}
	return nil
}

type Option func(*Simulator)

// WithLag applies every intent after d instead of synchronously.
func WithLag(d time.Duration) Option {
	return func(s *Simulator) { s.lag = d }
}

// WithFailAfter makes every Send after the first n return ErrTransport.
func WithFailAfter(n int) Option {
	return func(s *Simulator) { s.failAfter = n }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Simulator) { s.log = l }
}

// Simulator is a CommandChannel that plays the authoritative server against an
// atom store. Intents the server would refuse are dropped silently, the way a
// fire-and-forget channel behaves.
type Simulator struct {
	store     *atoms.Store
	catalog   *catalog.Catalog
	lag       time.Duration
	failAfter int
	log       logrus.FieldLogger

	mu      sync.Mutex
	sent    []garden.Intent
	seq     int
	now     func() time.Time
	pending sync.WaitGroup
}

func New(store *atoms.Store, opts ...Option) *Simulator {
	s := &Simulator{
		store:     store,
		catalog:   catalog.Default(),
		failAfter: -1,
		log:       logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Send(ctx context.Context, in garden.Intent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.failAfter >= 0 && len(s.sent) >= s.failAfter {
		s.mu.Unlock()
		return ErrTransport
	}
	s.sent = append(s.sent, in)
	s.mu.Unlock()

	if s.lag <= 0 {
		s.apply(in)
		return nil
	}
	s.pending.Add(1)
	time.AfterFunc(s.lag, func() {
		defer s.pending.Done()
		s.apply(in)
	})
	return nil
}

// Sent returns every intent accepted so far, in order.
func (s *Simulator) Sent() []garden.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]garden.Intent(nil), s.sent...)
}

// Wait blocks until every lagged intent has been applied.
func (s *Simulator) Wait() {
	s.pending.Wait()
}

func (s *Simulator) apply(in garden.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyLocked(in); err != nil {
		s.log.WithField("intent", in.String()).WithError(err).Debug("simulator rejected intent")
	}
}

func (s *Simulator) applyLocked(in garden.Intent) error {
	ctx := context.Background()
	playerID, slots, err := s.readSlots(ctx)
	if err != nil {
		return err
	}
	idx, ok := garden.FindSlot(slots, playerID)
	if !ok {
		return fmt.Errorf("player %q has no slot", playerID)
	}
	g := slots[idx].Data.Garden
	inv, err := s.readInventory(ctx)
	if err != nil {
		return err
	}

	switch in.Type {
	case garden.IntentPotPlant:
		obj, ok := g.Tile(garden.PlaneDirt, in.Index)
		if !ok || !obj.IsPlant() {
			return fmt.Errorf("no plant at dirt %d", in.Index)
		}
		if full(inv) {
			return errors.New("inventory full")
		}
		g.Clear(garden.PlaneDirt, in.Index)
		inv.Items = append(inv.Items, garden.InventoryItem{
			ID:       s.nextID(),
			ItemType: garden.ItemPlant,
			Species:  obj.Species,
			Slots:    obj.Slots,
		})
	case garden.IntentPlantGardenPlant:
		if _, taken := g.Tile(garden.PlaneDirt, in.Index); taken {
			return fmt.Errorf("dirt %d is occupied", in.Index)
		}
		pos := findItem(inv, func(it garden.InventoryItem) bool {
			return it.ID == in.ItemID && it.ItemType == garden.ItemPlant
		})
		if pos < 0 {
			return fmt.Errorf("no plant item %q", in.ItemID)
		}
		it := inv.Items[pos]
		inv.Items = append(inv.Items[:pos], inv.Items[pos+1:]...)
		now := s.now().UnixMilli()
		g.Put(garden.PlaneDirt, in.Index, garden.TileObject{
			Type:      garden.ObjectPlant,
			Species:   it.Species,
			PlantedAt: now,
			MaturedAt: now,
			Slots:     s.slotsFor(it),
		})
	case garden.IntentPlaceDecor:
		if _, taken := g.Tile(in.Plane, in.Index); taken {
			return fmt.Errorf("%s %d is occupied", in.Plane, in.Index)
		}
		pos := findItem(inv, func(it garden.InventoryItem) bool {
			return it.ItemType == garden.ItemDecor && it.DecorID == in.DecorID
		})
		if pos < 0 {
			return fmt.Errorf("no decor %q", in.DecorID)
		}
		if inv.Items[pos].Quantity > 1 {
			inv.Items[pos].Quantity--
		} else {
			inv.Items = append(inv.Items[:pos], inv.Items[pos+1:]...)
		}
		g.Put(in.Plane, in.Index, garden.NewDecor(in.DecorID, in.Rotation))
	case garden.IntentPickupDecor:
		obj, ok := g.Tile(in.Plane, in.Index)
		if !ok || !obj.IsDecor() {
			return fmt.Errorf("no decor at %s %d", in.Plane, in.Index)
		}
		pos := findItem(inv, func(it garden.InventoryItem) bool {
			return it.ItemType == garden.ItemDecor && it.DecorID == obj.DecorID
		})
		switch {
		case pos >= 0:
			inv.Items[pos].Quantity = quantity(inv.Items[pos]) + 1
		case full(inv):
			return errors.New("inventory full")
		default:
			inv.Items = append(inv.Items, garden.InventoryItem{
				ID:       s.nextID(),
				ItemType: garden.ItemDecor,
				DecorID:  obj.DecorID,
				Quantity: 1,
			})
		}
		g.Clear(in.Plane, in.Index)
	default:
		return fmt.Errorf("unsupported intent %q", in.Type)
	}

	slots[idx].Data.Garden = g
	if err := s.store.Seed(ports.LabelUserSlots, slots); err != nil {
		return err
	}
	return s.store.Seed(ports.LabelInventory, inv)
}

func (s *Simulator) readSlots(ctx context.Context) (string, []*garden.UserSlot, error) {
	raw, err := s.store.Select(ctx, ports.LabelPlayer)
	if err != nil {
		return "", nil, err
	}
	var player garden.PlayerCell
	if err := json.Unmarshal(raw, &player); err != nil {
		return "", nil, err
	}
	raw, err = s.store.Select(ctx, ports.LabelUserSlots)
	if err != nil {
		return "", nil, err
	}
	var slots []*garden.UserSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return "", nil, err
	}
	return player.ID, slots, nil
}

func (s *Simulator) readInventory(ctx context.Context) (garden.Inventory, error) {
	raw, err := s.store.Select(ctx, ports.LabelInventory)
	if errors.Is(err, ports.ErrNotFound) {
		return garden.Inventory{}, nil
	}
	if err != nil {
		return garden.Inventory{}, err
	}
	var inv garden.Inventory
	if err := json.Unmarshal(raw, &inv); err != nil {
		return garden.Inventory{}, err
	}
	return inv, nil
}

func (s *Simulator) nextID() string {
	s.seq++
	return fmt.Sprintf("sim-%d", s.seq)
}

// slotsFor keeps the item's slots, or grows fresh ones from the catalog.
func (s *Simulator) slotsFor(it garden.InventoryItem) []garden.PlantSlot {
	if len(it.Slots) > 0 {
		return it.Slots
	}
	n := 1
	if p, ok := s.catalog.Plant(it.Species); ok {
		n = p.SlotCount()
	}
	out := make([]garden.PlantSlot, n)
	for i := range out {
		out[i] = garden.PlantSlot{TargetScale: 1, Mutations: []string{}}
	}
	return out
}

func findItem(inv garden.Inventory, match func(garden.InventoryItem) bool) int {
	for i, it := range inv.Items {
		if match(it) {
			return i
		}
	}
	return -1
}

func quantity(it garden.InventoryItem) int {
	if it.Quantity <= 0 {
		return 1
	}
	return it.Quantity
}

func full(inv garden.Inventory) bool {
	return inv.Snapshot().Usage.FreeSlots <= 0
}

// Snapshot reads the player's current garden and inventory.
func (s *Simulator) Snapshot(ctx context.Context) (garden.Garden, garden.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playerID, slots, err := s.readSlots(ctx)
	if err != nil {
		return garden.Garden{}, garden.Inventory{}, err
	}
	idx, ok := garden.FindSlot(slots, playerID)
	if !ok {
		return garden.Garden{}, garden.Inventory{}, ports.ErrNotReady
	}
	inv, err := s.readInventory(ctx)
	if err != nil {
		return garden.Garden{}, garden.Inventory{}, err
	}
	return slots[idx].Data.Garden, inv, nil
}
