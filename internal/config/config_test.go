package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Reconcile.MaxPasses != 50 || cfg.Reconcile.ActionDelay != 60*time.Millisecond {
		t.Fatalf("unexpected reconcile defaults %+v", cfg.Reconcile)
	}
	if cfg.Sprite.WarmupBatch != 6 || cfg.Sprite.TickBudget != 4*time.Millisecond {
		t.Fatalf("unexpected sprite defaults %+v", cfg.Sprite)
	}
	if cfg.Game.Mode != "local" || cfg.Layouts.Backend != "file" {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Game, cfg.Layouts)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "gardensync.yaml")
	body := `
http:
  addr: ":9000"
game:
  mode: ws
  url: ws://game.local/bridge
reconcile:
  max_passes: 12
  preview_ttl: 8s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GARDENSYNC_RECONCILE_MAX_PASSES", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" || cfg.Game.URL != "ws://game.local/bridge" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Reconcile.MaxPasses != 7 {
		t.Fatalf("env should override the file, got=%d", cfg.Reconcile.MaxPasses)
	}
	if cfg.Reconcile.PreviewTTL != 8*time.Second || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected values %+v %+v", cfg.Reconcile, cfg.Log)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GARDENSYNC_LAYOUTS_BACKEND=memory\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("GARDENSYNC_LAYOUTS_BACKEND") })
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Layouts.Backend != "memory" {
		t.Fatalf("got=%q want=memory", cfg.Layouts.Backend)
	}
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	base, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := map[string]func(*Config){
		"bad mode":         func(c *Config) { c.Game.Mode = "carrier-pigeon" },
		"postgres w/o dsn": func(c *Config) { c.Layouts.Backend = "postgres" },
		"zero passes":      func(c *Config) { c.Reconcile.MaxPasses = 0 },
		"empty file":       func(c *Config) { c.Layouts.File = " " },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	if err := os.Chdir(abs); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Setenv("PWD", abs)
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore cwd: %v", err)
		}
	})
}
