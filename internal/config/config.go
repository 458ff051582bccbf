package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/claude/swimtrack/internal/analytics"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Redis     RedisConfig     `yaml:"redis"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// RedisConfig enables the dashboard cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AnalyticsConfig struct {
	BestWindowMode    string `yaml:"best_window_mode"`
	DefaultWindowDays int    `yaml:"default_window_days"`
}

// WindowMode returns the configured best-window mode. Call after Load.
func (a AnalyticsConfig) WindowMode() analytics.WindowMode {
	m, err := analytics.ParseWindowMode(a.BestWindowMode)
	if err != nil {
		return analytics.ModeSessionCount
	}
	return m
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A .env file in the working directory, if present, is loaded into the
// environment first. Env vars use the prefix SWIMTRACK_:
//
//	SWIMTRACK_SERVER_HOST, SWIMTRACK_SERVER_PORT,
//	SWIMTRACK_DB_HOST, SWIMTRACK_DB_PORT, SWIMTRACK_DB_NAME,
//	SWIMTRACK_DB_USER, SWIMTRACK_DB_PASSWORD, SWIMTRACK_DB_SSLMODE,
//	SWIMTRACK_AUTH_API_KEY, SWIMTRACK_TAILSCALE_ENABLED,
//	SWIMTRACK_REDIS_ADDR, SWIMTRACK_REDIS_PASSWORD, SWIMTRACK_REDIS_TTL,
//	SWIMTRACK_BEST_WINDOW_MODE
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SWIMTRACK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SWIMTRACK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SWIMTRACK_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("SWIMTRACK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("SWIMTRACK_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("SWIMTRACK_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("SWIMTRACK_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("SWIMTRACK_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("SWIMTRACK_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("SWIMTRACK_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("SWIMTRACK_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SWIMTRACK_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SWIMTRACK_REDIS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Redis.TTL = d
		}
	}
	if v := os.Getenv("SWIMTRACK_BEST_WINDOW_MODE"); v != "" {
		cfg.Analytics.BestWindowMode = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "swimtrack"
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 5 * time.Minute
	}
	if cfg.Analytics.BestWindowMode == "" {
		cfg.Analytics.BestWindowMode = string(analytics.ModeSessionCount)
	}
	if cfg.Analytics.DefaultWindowDays == 0 {
		cfg.Analytics.DefaultWindowDays = 30
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if _, err := analytics.ParseWindowMode(c.Analytics.BestWindowMode); err != nil {
		return fmt.Errorf("analytics.best_window_mode: %w", err)
	}
	if c.Analytics.DefaultWindowDays < 0 {
		return fmt.Errorf("analytics.default_window_days must be positive")
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative")
	}
	return nil
}
