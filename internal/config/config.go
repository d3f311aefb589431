// Package config loads zortex-core's configuration from environment
// variables (with optional .env file) plus an optional YAML overlay for the
// XP modifier tables, which are too nested to express cleanly as env vars.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zortex-io/zortex-core/internal/zerr"
)

// Config holds all zortex-core configuration values.
type Config struct {
	// Env selects development vs production behavior (console logging,
	// debug level, etc).
	Env      string
	LogLevel string

	// DataDir is the directory holding the XP and notification state files.
	DataDir string

	// Server configures the optional local inspection HTTP API.
	Server ServerConfig

	// Persistence configures the batching window shared by every store.
	Persistence PersistenceConfig

	// XP configures the calculator's multiplier tables and level curves.
	XP XPConfig

	// Notifications configures the scheduler tick and calendar defaults.
	Notifications NotificationsConfig
}

// ServerConfig configures the local-only inspection HTTP surface.
type ServerConfig struct {
	Addr            string
	GracefulTimeout time.Duration
	RateLimitRPM    int
	RateLimitBurst  int
}

// PersistenceConfig configures PersistenceManager batching.
type PersistenceConfig struct {
	BatchWindow time.Duration
}

// NotificationsConfig configures the scheduler.
type NotificationsConfig struct {
	CheckInterval                time.Duration
	CalendarDefaultAdvanceMinutes int
}

// SizeMultiplier is a single entry in a size/priority/importance table.
type SizeMultiplier struct {
	Multiplier float64 `yaml:"multiplier"`
}

// CurveConfig parameterizes threshold(L) = floor(base * L^exponent).
type CurveConfig struct {
	Base     float64 `yaml:"base"`
	Exponent float64 `yaml:"exponent"`
}

// Tier is one entry in the season tier ladder.
type Tier struct {
	RequiredLevel int    `yaml:"required_level"`
	Name          string `yaml:"name"`
}

// XPConfig holds every numeric table the XP calculator reads.
type XPConfig struct {
	TaskBase             int                       `yaml:"task_base"`
	TaskSizeMultipliers  map[string]float64         `yaml:"task_size_multipliers"`
	ProjectBaseXP        int                        `yaml:"project_base_xp"`
	ProjectSizeMultipliers map[string]float64       `yaml:"project_size_multipliers"`
	PriorityMultipliers  map[string]float64         `yaml:"priority_multipliers"`
	ImportanceMultipliers map[string]float64        `yaml:"importance_multipliers"`
	SeasonCurve          CurveConfig                `yaml:"season_curve"`
	AreaLevelCurve       CurveConfig                `yaml:"area_level_curve"`
	SeasonTiers          []Tier                     `yaml:"season_tiers"`
	// AreaLinkFactors maps an area-link type ("basic", "key_result") to its
	// transfer factor.
	AreaLinkFactors map[string]float64 `yaml:"area_link_factors"`
}

// Load reads configuration from environment variables and an optional .env
// file, then overlays the YAML file named by ZORTEX_CONFIG_FILE (if set and
// present) for the XP tables. With ZORTEX_CONFIG_FILE unset, no overlay is
// read.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("ZORTEX_DATA_DIR", "./data")
	checkIntervalMin := getEnvInt("ZORTEX_NOTIFY_CHECK_INTERVAL_MIN", 1)
	gracefulSec := getEnvInt("ZORTEX_GRACEFUL_TIMEOUT_SEC", 5)
	batchMS := getEnvInt("ZORTEX_PERSISTENCE_BATCH_WINDOW_MS", 500)

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DataDir:  dataDir,
		Server: ServerConfig{
			Addr:            getEnv("ZORTEX_ADDR", "127.0.0.1:8099"),
			GracefulTimeout: time.Duration(gracefulSec) * time.Second,
			RateLimitRPM:    getEnvInt("ZORTEX_RATE_LIMIT_RPM", 120),
			RateLimitBurst:  getEnvInt("ZORTEX_RATE_LIMIT_BURST", 20),
		},
		Persistence: PersistenceConfig{
			BatchWindow: time.Duration(batchMS) * time.Millisecond,
		},
		XP:            DefaultXPConfig(),
		Notifications: NotificationsConfig{
			CheckInterval:                 time.Duration(checkIntervalMin) * time.Minute,
			CalendarDefaultAdvanceMinutes: getEnvInt("ZORTEX_CALENDAR_DEFAULT_ADVANCE_MIN", 10),
		},
	}

	overlayPath := getEnv("ZORTEX_CONFIG_FILE", "")
	if overlayPath != "" {
		if err := cfg.applyYAMLOverlay(overlayPath); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyYAMLOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return zerr.ConfigError("read config overlay", err)
	}

	var overlay struct {
		XP XPConfig `yaml:"xp"`
	}
	overlay.XP = c.XP
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return zerr.ConfigError("parse config overlay", err)
	}
	c.XP = overlay.XP
	return nil
}

// DefaultXPConfig returns the built-in multiplier tables and recognized
// defaults used when no config overlay is present.
func DefaultXPConfig() XPConfig {
	return XPConfig{
		TaskBase: 10,
		TaskSizeMultipliers: map[string]float64{
			"xs": 0.5, "sm": 0.8, "md": 1.0, "lg": 1.5, "xl": 2.0,
		},
		ProjectBaseXP: 10,
		ProjectSizeMultipliers: map[string]float64{
			"xs": 0.5, "sm": 0.8, "md": 1.0, "lg": 1.5, "xl": 2.0,
			"epic": 3.0, "legendary": 5.0, "mythic": 8.0, "ultimate": 13.0,
		},
		PriorityMultipliers: map[string]float64{
			"p1": 1.5, "p2": 1.2, "p3": 1.0, "default": 0.9,
		},
		ImportanceMultipliers: map[string]float64{
			"i1": 1.5, "i2": 1.2, "i3": 1.0, "default": 0.9,
		},
		SeasonCurve:    CurveConfig{Base: 100, Exponent: 1.2},
		AreaLevelCurve: CurveConfig{Base: 1000, Exponent: 2.5},
		SeasonTiers: []Tier{
			{RequiredLevel: 1, Name: "Bronze"},
			{RequiredLevel: 5, Name: "Silver"},
			{RequiredLevel: 10, Name: "Gold"},
			{RequiredLevel: 20, Name: "Platinum"},
			{RequiredLevel: 35, Name: "Diamond"},
		},
		AreaLinkFactors: map[string]float64{
			"basic":      0.2,
			"key_result": 1.0,
		},
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
