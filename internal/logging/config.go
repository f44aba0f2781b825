package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLogLevel  = "GARDENSYNC_LOG_LEVEL"
	EnvLogFormat = "GARDENSYNC_LOG_FORMAT"
	EnvLogFile   = "GARDENSYNC_LOG_FILE"
	EnvLogCaller = "GARDENSYNC_LOG_CALLER"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config describes one logger. Empty fields keep the profile defaults.
type Config struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Caller     bool   `mapstructure:"caller"`
}

type settings struct {
	level      logrus.Level
	json       bool
	timestamp  bool
	caller     bool
	file       string
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime, Config{})
}

func ConfigureTests() {
	Configure(ProfileTest, Config{})
}

// Configure sets up the standard logger once per process.
func Configure(profile Profile, cfg Config) {
	configureOnce.Do(func() {
		apply(logrus.StandardLogger(), resolve(profile, cfg))
	})
}

// New builds a standalone logger.
func New(profile Profile, cfg Config) *logrus.Logger {
	l := logrus.New()
	apply(l, resolve(profile, cfg))
	return l
}

func resolve(profile Profile, cfg Config) settings {
	s := defaultSettings(profile)
	if lvl, ok := parseLevel(cfg.Level); ok {
		s.level = lvl
	}
	if f, ok := parseFormat(cfg.Format); ok {
		s.json = f
	}
	if cfg.File != "" {
		s.file = cfg.File
	}
	if cfg.MaxSizeMB > 0 {
		s.maxSizeMB = cfg.MaxSizeMB
	}
	if cfg.MaxBackups > 0 {
		s.maxBackups = cfg.MaxBackups
	}
	if cfg.MaxAgeDays > 0 {
		s.maxAgeDays = cfg.MaxAgeDays
	}
	s.caller = s.caller || cfg.Caller
	applyEnvOverrides(&s)
	return s
}

func defaultSettings(profile Profile) settings {
	s := settings{
		maxSizeMB:  50,
		maxBackups: 5,
		maxAgeDays: 14,
	}
	switch profile {
	case ProfileTest:
		s.level = logrus.DebugLevel
		s.timestamp = false
	default:
		s.level = logrus.InfoLevel
		s.timestamp = true
	}
	return s
}

func applyEnvOverrides(s *settings) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		s.level = lvl
	}
	if f, ok := parseFormat(os.Getenv(EnvLogFormat)); ok {
		s.json = f
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		s.file = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogCaller)); ok {
		s.caller = v
	}
}

func apply(l *logrus.Logger, s settings) {
	l.SetLevel(s.level)
	l.SetReportCaller(s.caller)
	if s.json {
		l.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: !s.timestamp})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: s.timestamp, DisableTimestamp: !s.timestamp})
	}
	var out io.Writer = os.Stderr
	if s.file != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   s.file,
			MaxSize:    s.maxSizeMB,
			MaxBackups: s.maxBackups,
			MaxAge:     s.maxAgeDays,
			Compress:   true,
		})
	}
	l.SetOutput(out)
}

func parseLevel(raw string) (logrus.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return logrus.InfoLevel, false
	case "trace":
		return logrus.TraceLevel, true
	case "debug":
		return logrus.DebugLevel, true
	case "info":
		return logrus.InfoLevel, true
	case "warn", "warning":
		return logrus.WarnLevel, true
	case "error":
		return logrus.ErrorLevel, true
	case "fatal":
		return logrus.FatalLevel, true
	case "disabled", "off", "none":
		return logrus.PanicLevel, true
	default:
		return logrus.InfoLevel, false
	}
}

func parseFormat(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return true, true
	case "text":
		return false, true
	default:
		return false, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
