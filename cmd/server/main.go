package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gardensync/internal/adapter/atoms"
	"gardensync/internal/adapter/game/sim"
	"gardensync/internal/adapter/game/ws"
	httpadapter "gardensync/internal/adapter/http"
	metricsinmem "gardensync/internal/adapter/metrics/inmemory"
	"gardensync/internal/adapter/notify"
	filerepo "gardensync/internal/adapter/repo/file"
	gormrepo "gardensync/internal/adapter/repo/gorm"
	"gardensync/internal/adapter/repo/memory"
	"gardensync/internal/adapter/texture/atlas"
	"gardensync/internal/app/layouts"
	"gardensync/internal/app/ports"
	"gardensync/internal/app/reconcile"
	"gardensync/internal/app/sprite"
	"gardensync/internal/config"
	"gardensync/internal/domain/catalog"
	"gardensync/internal/domain/garden"
	"gardensync/internal/logging"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/sirupsen/logrus"
)

const layoutLockName = "gardensync.layouts"

func main() {
	configPath := flag.String("config", os.Getenv("GARDENSYNC_CONFIG"), "path to a yaml/json/toml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logging.Configure(logging.ProfileRuntime, cfg.Log)
	logger := logrus.StandardLogger()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("gardensync stopped")
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cat := catalog.Default()

	kv, tx, err := buildLayoutStore(ctx, cfg)
	if err != nil {
		return err
	}
	store, commands, closeGame, err := buildGame(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeGame()

	engine, err := buildSprites(cfg, cat, logger)
	if err != nil {
		return err
	}
	defer engine.Icons.Close()
	go func() {
		if err := engine.Scheduler.Run(ctx, cfg.Sprite.TickInterval, cfg.Sprite.TickBudget); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Warn("sprite scheduler stopped")
		}
	}()

	kpiRecorder := metricsinmem.NewRecorder()
	notices := &notify.Log{Logger: logger}
	reconcileUC := reconcile.UseCase{
		Store:    store,
		Commands: commands,
		Catalog:  cat,
		Notifier: notices,
		Metrics:  kpiRecorder,
		Logger:   logger,
		Config: reconcile.Config{
			MaxPasses:       cfg.Reconcile.MaxPasses,
			ActionDelay:     cfg.Reconcile.ActionDelay,
			PollInterval:    cfg.Reconcile.PollInterval,
			ConvergeTimeout: cfg.Reconcile.ConvergeTimeout,
			PreviewTTL:      cfg.Reconcile.PreviewTTL,
		},
	}

	h := httpadapter.Handler{
		ReconcileUC:    reconcileUC,
		Preview:        &reconcile.Previewer{UseCase: reconcileUC},
		LayoutsUC:      layouts.UseCase{Store: kv, Tx: tx, Logger: logger},
		Sprites:        engine,
		Notices:        notices,
		KPI:            kpiRecorder,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}

	s := server.Default(server.WithHostPorts(cfg.HTTP.Addr), server.WithExitWaitTime(2*time.Second))
	h.RegisterRoutes(s)

	logger.WithFields(logrus.Fields{
		"addr":    cfg.HTTP.Addr,
		"game":    cfg.Game.Mode,
		"layouts": cfg.Layouts.Backend,
	}).Info("gardensync server listening")
	s.Spin()
	return nil
}

func buildLayoutStore(ctx context.Context, cfg config.Config) (ports.KeyValueStore, ports.TxManager, error) {
	switch cfg.Layouts.Backend {
	case "memory":
		store := memory.NewStore()
		return memory.NewKeyValueRepo(store), memory.NewTxManager(store), nil
	case "file":
		if dir := filepath.Dir(cfg.Layouts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create layouts dir: %w", err)
			}
		}
		js, err := filerepo.NewJSONStore(cfg.Layouts.File)
		if err != nil {
			return nil, nil, err
		}
		return js, filerepo.NewTxManager(js), nil
	case "postgres":
		db, err := gormrepo.OpenAndMigrate(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return gormrepo.NewKeyValueRepo(db), gormrepo.NewTxManager(db, layoutLockName), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown layouts.backend %q", config.ErrInvalidConfig, cfg.Layouts.Backend)
	}
}

// buildGame attaches to the live game over the bridge, or seeds an in-process
// simulator with an empty garden for local use.
func buildGame(ctx context.Context, cfg config.Config, logger *logrus.Logger) (ports.StateStore, ports.CommandChannel, func(), error) {
	if cfg.Game.Mode == "ws" {
		client := ws.New(cfg.Game.URL, ws.Options{
			SelectTimeout: cfg.Game.SelectTimeout,
			PingInterval:  cfg.Game.PingInterval,
			Logger:        logger,
		})
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := client.Connect(dialCtx); err != nil {
			return nil, nil, nil, err
		}
		return client, client, func() { _ = client.Close() }, nil
	}

	store := atoms.NewStore()
	cols, rows := cfg.Game.LocalCols, cfg.Game.LocalRows
	if cols <= 0 || rows <= 0 {
		cols, rows = 10, 10
	}
	geometry := garden.RectMap(cfg.Game.LocalSlot+1, cols, rows, max(cfg.Game.LocalBoardwalk, 0))
	world := sim.World{
		PlayerID: cfg.Game.LocalPlayer,
		Slot:     cfg.Game.LocalSlot,
		Garden:   garden.NewGarden(),
		Geometry: &geometry,
	}
	if err := sim.Seed(store, world); err != nil {
		return nil, nil, nil, fmt.Errorf("seed local game: %w", err)
	}
	return store, sim.New(store, sim.WithLogger(logger)), func() {}, nil
}

func buildSprites(cfg config.Config, cat *catalog.Catalog, logger *logrus.Logger) (*sprite.Engine, error) {
	textures := &atlas.Atlas{}
	if cfg.Sprite.AtlasDir != "" {
		a, err := atlas.Load(cfg.Sprite.AtlasDir)
		if err != nil {
			return nil, fmt.Errorf("load texture atlas: %w", err)
		}
		textures = a
		logger.WithField("textures", len(a.Keys())).Info("texture atlas loaded")
	}
	icons, err := sprite.NewIconResolver(textures, sprite.DefaultOverrides, logger)
	if err != nil {
		return nil, err
	}
	return &sprite.Engine{
		Catalog:    cat,
		Icons:      icons,
		Compositor: sprite.Compositor{Textures: textures, Catalog: cat},
		Cache:      sprite.NewCache(cfg.Sprite.CacheEntries, cfg.Sprite.CacheCost),
		Scheduler:  sprite.NewScheduler(),
		Warmer:     sprite.NewWarmer(cfg.Sprite.WarmupBatch),
		Logger:     logger,
	}, nil
}
