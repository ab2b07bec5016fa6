// Package config loads the TOML configuration of the blueprints tools.
//
// A minimal file selects a backend and its connection settings:
//
//	backend = "mongo"
//
//	[log]
//	level = "info"
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
//	database = "blueprints"
//	timeout = "10s"
//
// Missing sections keep their defaults. The BLUEPRINTS_BACKEND environment
// variable overrides the backend field. Relative badger paths are resolved
// against the directory of the config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	bperrors "github.com/matzehuels/blueprints/pkg/errors"
)

// EnvBackend overrides Config.Backend when set.
const EnvBackend = "BLUEPRINTS_BACKEND"

// Backend names.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendREST   = "rest"
)

// Backends lists every accepted backend name.
var Backends = []string{BackendMemory, BackendBadger, BackendMongo, BackendRedis, BackendREST}

// Config is the full configuration.
type Config struct {
	Backend string       `toml:"backend"`
	Log     LogConfig    `toml:"log"`
	Mongo   MongoConfig  `toml:"mongo"`
	Redis   RedisConfig  `toml:"redis"`
	Badger  BadgerConfig `toml:"badger"`
	Rest    RestConfig   `toml:"rest"`
	Server  ServerConfig `toml:"server"`
}

// LogConfig sets the default log level ("debug", "info", "warn", "error").
type LogConfig struct {
	Level string `toml:"level"`
}

// MongoConfig configures the mongo backend.
type MongoConfig struct {
	URI      string        `toml:"uri"`
	Database string        `toml:"database"`
	Timeout  time.Duration `toml:"timeout"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// BadgerConfig configures the badger backend.
type BadgerConfig struct {
	Path       string `toml:"path"`
	InMemory   bool   `toml:"in_memory"`
	SyncWrites bool   `toml:"sync_writes"`
}

// RestConfig names the native graph database endpoint of the rest backend.
type RestConfig struct {
	URL string `toml:"url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is given: an
// in-memory graph and local defaults for every other backend.
func Default() Config {
	return Config{
		Backend: BackendMemory,
		Log:     LogConfig{Level: "info"},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "blueprints",
			Timeout:  10 * time.Second,
		},
		Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "blueprints"},
		Badger: BadgerConfig{Path: "blueprints.db"},
		Rest:   RestConfig{URL: "http://localhost:7474/db/data"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults. The environment override is applied and the result validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := checkUndecoded(path, md); err != nil {
			return Config{}, err
		}
		if err := cfg.resolvePaths(path); err != nil {
			return Config{}, err
		}
	}
	if env := os.Getenv(EnvBackend); env != "" {
		cfg.Backend = env
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults without touching the
// environment or the filesystem.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := checkUndecoded("text", md); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// checkUndecoded rejects keys that match no Config field. source names the
// input in the error.
func checkUndecoded(source string, md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return bperrors.New(bperrors.ErrCodeInvalidInput,
		"config %s: unknown keys %s", source, strings.Join(keys, ", "))
}

// resolvePaths makes relative paths absolute against the config directory.
func (c *Config) resolvePaths(configPath string) error {
	if c.Badger.Path == "" || filepath.IsAbs(c.Badger.Path) {
		return nil
	}
	abs, err := filepath.Abs(filepath.Join(filepath.Dir(configPath), c.Badger.Path))
	if err != nil {
		return fmt.Errorf("resolve badger path: %w", err)
	}
	c.Badger.Path = abs
	return nil
}

// Validate checks that the selected backend is known and has the settings
// it needs.
func (c Config) Validate() error {
	if !slices.Contains(Backends, c.Backend) {
		return bperrors.New(bperrors.ErrCodeInvalidInput,
			"unknown backend %q (want one of %s)", c.Backend, strings.Join(Backends, ", "))
	}
	switch c.Backend {
	case BackendMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return bperrors.New(bperrors.ErrCodeInvalidInput, "mongo backend needs uri and database")
		}
		if c.Mongo.Timeout < 0 {
			return bperrors.New(bperrors.ErrCodeInvalidInput, "mongo timeout cannot be negative")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return bperrors.New(bperrors.ErrCodeInvalidInput, "redis backend needs addr")
		}
		if c.Redis.DB < 0 {
			return bperrors.New(bperrors.ErrCodeInvalidInput, "redis db cannot be negative")
		}
	case BackendBadger:
		if c.Badger.Path == "" && !c.Badger.InMemory {
			return bperrors.New(bperrors.ErrCodeInvalidInput, "badger backend needs path or in_memory")
		}
	case BackendREST:
		if c.Rest.URL == "" {
			return bperrors.New(bperrors.ErrCodeInvalidInput, "rest backend needs url")
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return bperrors.New(bperrors.ErrCodeInvalidInput, "unknown log level %q", c.Log.Level)
	}
	return nil
}
