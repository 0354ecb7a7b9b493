// Package config loads process configuration from built-in defaults,
// elfiee.yaml (or .json), and ELFIEE_*-prefixed environment variables, in
// that ascending order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure. Only Metrics is read, by the
// CLI's serve command; the Engine, Store, Log and Broadcast sections are
// loaded but no component consults them (the store, logger and broadcaster
// take their settings from code constants and CLI flags).
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Store     StoreConfig     `mapstructure:"store"`
	Log       LogConfig       `mapstructure:"log"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// EngineConfig holds engine manager settings.
type EngineConfig struct {
	ScratchRoot     string        `mapstructure:"scratch_root"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig holds SQLite event store settings.
type StoreConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LogConfig holds global logger settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	JSONOutput bool   `mapstructure:"json_output"`
}

// BroadcastConfig holds change-broadcast fan-out settings.
type BroadcastConfig struct {
	SubscriberCapacity int `mapstructure:"subscriber_capacity"`
	PoolSize           int `mapstructure:"pool_size"`
}

// MetricsConfig controls the optional Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads elfiee.yaml/elfiee.json if present, layers ELFIEE_*
// environment variables on top, and falls back to defaults for anything
// still unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("elfiee")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/elfiee")

	v.SetEnvPrefix("ELFIEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.scratch_root", "")
	v.SetDefault("engine.shutdown_timeout", "10s")

	v.SetDefault("store.max_open_conns", 4)
	v.SetDefault("store.max_idle_conns", 2)
	v.SetDefault("store.conn_max_lifetime", "30m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json_output", false)

	v.SetDefault("broadcast.subscriber_capacity", 64)
	v.SetDefault("broadcast.pool_size", 16)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}
