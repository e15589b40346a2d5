package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// StoreType selects where theme preferences are kept.
type StoreType string

const (
	StoreSQLite StoreType = "sqlite"
	StoreRedis  StoreType = "redis"
	StoreMemory StoreType = "memory"
)

// Config is the folio configuration, corresponding to folio.yml.
type Config struct {
	Port             int           `yaml:"port" koanf:"port"`
	GinMode          string        `yaml:"gin_mode" koanf:"gin_mode"`
	Template         string        `yaml:"template" koanf:"template"`
	StaticDir        string        `yaml:"static_dir" koanf:"static_dir"`
	ImagesDir        string        `yaml:"images_dir" koanf:"images_dir"`
	ProfilePath      string        `yaml:"profile_path" koanf:"profile_path"`
	ProfileSource    string        `yaml:"profile_source" koanf:"profile_source"`
	PlaceholderEmail string        `yaml:"placeholder_email" koanf:"placeholder_email"`
	RevealDelay      time.Duration `yaml:"reveal_delay" koanf:"reveal_delay"`
	Store            StoreType     `yaml:"store" koanf:"store"`
	DBPath           string        `yaml:"db_path" koanf:"db_path"`
	RedisURL         string        `yaml:"redis_url" koanf:"redis_url"`
	VisitorSalt      string        `yaml:"visitor_salt" koanf:"visitor_salt"`
	Retention        time.Duration `yaml:"retention" koanf:"retention"`
	SessionTTL       time.Duration `yaml:"session_ttl" koanf:"session_ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:             8080,
		GinMode:          "release",
		Template:         "templates/index.html",
		StaticDir:        "static",
		ImagesDir:        "images",
		ProfilePath:      "app/profile.json",
		PlaceholderEmail: "your@email.com",
		RevealDelay:      100 * time.Millisecond,
		Store:            StoreSQLite,
		DBPath:           "data/folio.db",
		RedisURL:         "redis://localhost:6379/0",
		Retention:        365 * 24 * time.Hour,
		SessionTTL:       30 * time.Minute,
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FOLIO_*). A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// FOLIO_REDIS_URL -> redis_url, etc.
	if err := k.Load(env.Provider("FOLIO_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "FOLIO_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validStores = map[StoreType]bool{
	StoreSQLite: true,
	StoreRedis:  true,
	StoreMemory: true,
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Template == "" {
		return fmt.Errorf("template is required")
	}
	if c.ProfilePath == "" && c.ProfileSource == "" {
		return fmt.Errorf("one of profile_path or profile_source is required")
	}
	if !validStores[c.Store] {
		return fmt.Errorf("invalid store %q: must be one of sqlite, redis, memory", c.Store)
	}
	if c.Store == StoreSQLite && c.DBPath == "" {
		return fmt.Errorf("db_path is required for the sqlite store")
	}
	if c.Store == StoreRedis && c.RedisURL == "" {
		return fmt.Errorf("redis_url is required for the redis store")
	}
	if c.RevealDelay < 0 {
		return fmt.Errorf("reveal_delay must be non-negative")
	}
	return nil
}
