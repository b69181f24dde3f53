package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/layout/config"
	"github.com/matzehuels/kintree/pkg/server"
	"github.com/matzehuels/kintree/pkg/store"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the optional TOML config file. Flags override file values;
// file values override defaults.
//
//	log_hooks = true
//
//	[layout]
//	card_width = 180
//
//	[policy]
//	ancestor_depth = 3
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[store]
//	dir = "~/trees"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
type Config struct {
	// Hooks logs pipeline, cache and request events at debug level.
	Hooks bool `toml:"log_hooks"`

	Layout config.Config `toml:"layout"`
	Policy layout.Policy `toml:"policy"`
	Cache  CacheConfig   `toml:"cache"`
	Store  StoreConfig   `toml:"store"`
	Server ServerConfig  `toml:"server"`
}

// CacheConfig selects the layout cache.
type CacheConfig struct {
	Backend  string        `toml:"backend"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
}

// StoreConfig locates trees. With Dir set, file references are names of
// JSON documents in it instead of paths.
type StoreConfig struct {
	Dir string `toml:"dir"`
	store.MongoOptions
}

// ServerConfig configures "kintree serve".
type ServerConfig struct {
	Addr    string        `toml:"addr"`
	Timeout time.Duration `toml:"timeout"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Layout: config.Default(),
		Policy: layout.DefaultPolicy(),
		Cache:  CacheConfig{Backend: BackendFile},
		Server: ServerConfig{Addr: server.DefaultAddr, Timeout: server.DefaultTimeout},
	}
}

// LoadConfig reads the config file at path over the defaults. An empty
// path reads the default location and tolerates its absence.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return cfg, errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
		}
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values a TOML decode cannot.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs redis_url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must be >= 0")
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("[layout]: %w", err)
	}
	return nil
}
