// Package config provides configuration management using viper.
// It supports loading from YAML files, an optional .env file and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database     DatabaseConfig     `mapstructure:"database"`
	Log          LogConfig          `mapstructure:"log"`
	Bounty       BountyConfig       `mapstructure:"bounty"`
	Valuation    ValuationConfig    `mapstructure:"valuation"`
	Achievements AchievementsConfig `mapstructure:"achievements"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// BountyConfig holds bounty and hunt rules.
type BountyConfig struct {
	DefaultDuration time.Duration `mapstructure:"default_duration"`
	MaxActiveHunts  int           `mapstructure:"max_active_hunts"`
}

// ValuationConfig tunes how bounty values are computed for listings.
type ValuationConfig struct {
	CacheSize   int           `mapstructure:"cache_size"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Concurrency int           `mapstructure:"concurrency"`
}

// AchievementsConfig holds award cycle settings.
type AchievementsConfig struct {
	LockTimeout     time.Duration `mapstructure:"lock_timeout"`
	LeaderboardSize int           `mapstructure:"leaderboard_size"`
	SeedCatalog     bool          `mapstructure:"seed_catalog"`
}

// SchedulerConfig holds background job intervals.
type SchedulerConfig struct {
	ExpireInterval time.Duration `mapstructure:"expire_interval"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslMode,
	)
}

// Load reads configuration from file and environment variables.
// A .env file next to the config, if present, is loaded into the
// environment first; variables already set win.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(configPath, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. DATABASE_HOST, VALUATION_CACHE_TTL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars can provide everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would break the services at runtime.
func (c *Config) Validate() error {
	if c.Bounty.MaxActiveHunts < 1 {
		return fmt.Errorf("bounty.max_active_hunts must be at least 1, got %d", c.Bounty.MaxActiveHunts)
	}
	if c.Bounty.DefaultDuration <= 0 {
		return fmt.Errorf("bounty.default_duration must be positive")
	}
	if c.Valuation.Concurrency < 1 {
		return fmt.Errorf("valuation.concurrency must be at least 1, got %d", c.Valuation.Concurrency)
	}
	if c.Scheduler.ExpireInterval <= 0 {
		return fmt.Errorf("scheduler.expire_interval must be positive")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "bounty")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "bounty")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("bounty.default_duration", "168h")
	v.SetDefault("bounty.max_active_hunts", 3)

	v.SetDefault("valuation.cache_size", 1024)
	v.SetDefault("valuation.cache_ttl", "15s")
	v.SetDefault("valuation.concurrency", 8)

	v.SetDefault("achievements.lock_timeout", "5s")
	v.SetDefault("achievements.leaderboard_size", 10)
	v.SetDefault("achievements.seed_catalog", true)

	v.SetDefault("scheduler.expire_interval", "1m")
}
