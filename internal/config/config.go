package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"gardensync/internal/logging"
)

const EnvPrefix = "GARDENSYNC"

type HTTP struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Game struct {
	// Mode is "ws" for a live game bridge or "local" for the in-process simulator.
	Mode          string        `mapstructure:"mode"`
	URL           string        `mapstructure:"url"`
	SelectTimeout time.Duration `mapstructure:"select_timeout"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	LocalPlayer   string        `mapstructure:"local_player"`
	LocalSlot     int           `mapstructure:"local_slot"`

	// LocalCols and LocalRows size the simulated dirt plane per slot.
	LocalCols      int `mapstructure:"local_cols"`
	LocalRows      int `mapstructure:"local_rows"`
	LocalBoardwalk int `mapstructure:"local_boardwalk"`
}

type Layouts struct {
	// Backend is one of memory, file or postgres.
	Backend string `mapstructure:"backend"`
	File    string `mapstructure:"file"`
}

type DB struct {
	DSN string `mapstructure:"dsn"`
}

type Reconcile struct {
	MaxPasses       int           `mapstructure:"max_passes"`
	ActionDelay     time.Duration `mapstructure:"action_delay"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	ConvergeTimeout time.Duration `mapstructure:"converge_timeout"`
	PreviewTTL      time.Duration `mapstructure:"preview_ttl"`
}

type Sprite struct {
	CacheEntries int           `mapstructure:"cache_entries"`
	CacheCost    int64         `mapstructure:"cache_cost"`
	TickBudget   time.Duration `mapstructure:"tick_budget"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	WarmupBatch  int           `mapstructure:"warmup_batch"`
	AtlasDir     string        `mapstructure:"atlas_dir"`
}

type Config struct {
	HTTP      HTTP           `mapstructure:"http"`
	Game      Game           `mapstructure:"game"`
	Layouts   Layouts        `mapstructure:"layouts"`
	DB        DB             `mapstructure:"db"`
	Reconcile Reconcile      `mapstructure:"reconcile"`
	Sprite    Sprite         `mapstructure:"sprite"`
	Log       logging.Config `mapstructure:"log"`
}

var ErrInvalidConfig = errors.New("invalid config")

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{})
	v.SetDefault("game.mode", "local")
	v.SetDefault("game.url", "ws://127.0.0.1:8765/bridge")
	v.SetDefault("game.select_timeout", 2*time.Second)
	v.SetDefault("game.ping_interval", 15*time.Second)
	v.SetDefault("game.local_player", "local-player")
	v.SetDefault("game.local_slot", 0)
	v.SetDefault("game.local_cols", 10)
	v.SetDefault("game.local_rows", 10)
	v.SetDefault("game.local_boardwalk", 40)
	v.SetDefault("layouts.backend", "file")
	v.SetDefault("layouts.file", "data/layouts.json")
	v.SetDefault("db.dsn", "")
	v.SetDefault("reconcile.max_passes", 50)
	v.SetDefault("reconcile.action_delay", 60*time.Millisecond)
	v.SetDefault("reconcile.poll_interval", 50*time.Millisecond)
	v.SetDefault("reconcile.converge_timeout", 2*time.Second)
	v.SetDefault("reconcile.preview_ttl", 5*time.Second)
	v.SetDefault("sprite.cache_entries", 512)
	v.SetDefault("sprite.cache_cost", 64<<20)
	v.SetDefault("sprite.tick_budget", 4*time.Millisecond)
	v.SetDefault("sprite.tick_interval", 16*time.Millisecond)
	v.SetDefault("sprite.warmup_batch", 6)
	v.SetDefault("sprite.atlas_dir", "")
	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "")
	v.SetDefault("log.file", "")
}

// Load reads defaults, then the optional config file at path, then
// GARDENSYNC_* environment variables. A .env file in the working directory is
// loaded first when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Game.Mode {
	case "ws":
		if strings.TrimSpace(c.Game.URL) == "" {
			return fmt.Errorf("%w: game.url is required in ws mode", ErrInvalidConfig)
		}
	case "local":
	default:
		return fmt.Errorf("%w: game.mode must be ws or local, got %q", ErrInvalidConfig, c.Game.Mode)
	}
	switch c.Layouts.Backend {
	case "memory":
	case "file":
		if strings.TrimSpace(c.Layouts.File) == "" {
			return fmt.Errorf("%w: layouts.file is required for the file backend", ErrInvalidConfig)
		}
	case "postgres":
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%w: db.dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown layouts.backend %q", ErrInvalidConfig, c.Layouts.Backend)
	}
	if c.Reconcile.MaxPasses <= 0 {
		return fmt.Errorf("%w: reconcile.max_passes must be positive", ErrInvalidConfig)
	}
	return nil
}
