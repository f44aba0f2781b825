package main

import (
	"context"
	"errors"
	"os"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"gardensync/internal/app/layouts"
	"gardensync/internal/app/ports"
	"gardensync/internal/app/reconcile"
	"gardensync/internal/app/sprite"
	"gardensync/internal/config"
	"gardensync/internal/domain/catalog"
	"gardensync/internal/domain/garden"
)

func TestBuildLayoutStore_FileBackendCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{Layouts: config.Layouts{Backend: "file", File: filepath.Join(dir, "data", "layouts.json")}}

	kv, tx, err := buildLayoutStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildLayoutStore error: %v", err)
	}
	if tx == nil {
		t.Fatalf("file backend needs a transaction manager")
	}
	if err := kv.Set(context.Background(), "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := os.Stat(cfg.Layouts.File); err != nil {
		t.Fatalf("expected layouts file on disk: %v", err)
	}
}

func TestBuildLayoutStore_FileBackendKeepsConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{Layouts: config.Layouts{Backend: "file", File: filepath.Join(t.TempDir(), "layouts.json")}}
	kv, tx, err := buildLayoutStore(ctx, cfg)
	if err != nil {
		t.Fatalf("buildLayoutStore error: %v", err)
	}
	logger, _ := test.NewNullLogger()
	uc := layouts.UseCase{Store: kv, Tx: tx, Logger: logger}

	const saves = 20
	var wg sync.WaitGroup
	errs := make(chan error, saves)
	for i := 0; i < saves; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.Save(ctx, fmt.Sprintf("layout %d", i), garden.NewGarden())
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	list, err := uc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != saves {
		t.Fatalf("lost updates: got=%d want=%d", len(list), saves)
	}
}

func TestBuildLayoutStore_Memory(t *testing.T) {
	kv, tx, err := buildLayoutStore(context.Background(), config.Config{Layouts: config.Layouts{Backend: "memory"}})
	if err != nil || kv == nil || tx == nil {
		t.Fatalf("memory backend: kv=%v tx=%v err=%v", kv, tx, err)
	}
	if _, err := kv.Get(context.Background(), "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildLayoutStore_UnknownBackend(t *testing.T) {
	_, _, err := buildLayoutStore(context.Background(), config.Config{Layouts: config.Layouts{Backend: "s3"}})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildGame_LocalSeedsPlayerSlot(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Config{Game: config.Game{Mode: "local", LocalPlayer: "me", LocalSlot: 2}}

	store, commands, closeGame, err := buildGame(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("buildGame error: %v", err)
	}
	defer closeGame()
	if commands == nil {
		t.Fatalf("expected a command channel")
	}
	raw, err := store.Select(context.Background(), ports.LabelPlayer)
	if err != nil {
		t.Fatalf("select player: %v", err)
	}
	if string(raw) != `{"id":"me"}` {
		t.Fatalf("player cell mismatch: got=%s", raw)
	}

	uc := reconcile.UseCase{Store: store, Commands: commands, Catalog: catalog.Default(), Logger: logger}
	draft := garden.NewGarden()
	draft.Put(garden.PlaneDirt, 0, garden.NewDecor("SmallRock", 0))
	inverted, err := uc.Invert(context.Background(), draft, garden.PlaneDirt)
	if err != nil {
		t.Fatalf("invert in local mode: %v", err)
	}
	if _, ok := inverted.Tile(garden.PlaneDirt, 0); !ok {
		t.Fatalf("single tile should mirror onto itself, got %+v", inverted.TileObjects)
	}
}

func TestBuildSprites_WithoutAtlas(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Config{Sprite: config.Sprite{CacheEntries: 8, CacheCost: 1 << 20, WarmupBatch: 4}}

	engine, err := buildSprites(cfg, catalog.Default(), logger)
	if err != nil {
		t.Fatalf("buildSprites error: %v", err)
	}
	defer engine.Icons.Close()
	if _, ok := engine.RenderPNG(sprite.Request{Category: sprite.CategoryPlant, ID: "Carrot"}); ok {
		t.Fatalf("no atlas means no plant textures")
	}
	if _, ok := engine.RenderPNG(sprite.Request{Category: sprite.CategoryDecor, ID: "DirtPatch"}); !ok {
		t.Fatalf("built-in overrides should render without an atlas")
	}
}
