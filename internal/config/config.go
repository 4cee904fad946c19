// Package config loads the arbor server configuration from YAML, TOML or JSON.
package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/arbor/internal/logging"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverBolt   = "bolt"
)

// Config is the full server configuration.
type Config struct {
	Server  Server  `yaml:"server" toml:"server" json:"server"`
	Store   Store   `yaml:"store" toml:"store" json:"store"`
	Log     Log     `yaml:"log" toml:"log" json:"log"`
	Metrics Metrics `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string `yaml:"addr" toml:"addr" json:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout" toml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Store selects and configures the snapshot store.
type Store struct {
	Driver        string `yaml:"driver" toml:"driver" json:"driver"`
	RedisAddr     string `yaml:"redis_addr" toml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" toml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" toml:"redis_db" json:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix" toml:"redis_prefix" json:"redis_prefix"`
	RedisTTL      string `yaml:"redis_ttl" toml:"redis_ttl" json:"redis_ttl"`
	BoltPath      string `yaml:"bolt_path" toml:"bolt_path" json:"bolt_path"`

	// Base64 AES-256 keys. When EncryptionKey is set, snapshots are sealed.
	EncryptionKey string   `yaml:"encryption_key" toml:"encryption_key" json:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" toml:"fallback_keys" json:"fallback_keys"`
}

// Log configures the logger.
type Log struct {
	Level string `yaml:"level" toml:"level" json:"level"`
}

// Metrics toggles the prometheus endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Path    string `yaml:"path" toml:"path" json:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080", ShutdownTimeout: "5s"},
		Store: Store{
			Driver:      DriverMemory,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "arbor:session:",
			BoltPath:    "arbor.db",
		},
		Log:     Log{Level: "info"},
		Metrics: Metrics{Path: "/metrics"},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .yaml/.yml, .toml or .json.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		_, err = toml.Decode(string(data), &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis driver"))
		}
	case DriverBolt:
		if c.Store.BoltPath == "" {
			errs = append(errs, errors.New("store.bolt_path is required for the bolt driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if _, err := c.Store.TTL(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := c.Store.Keys(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Server.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// TTL parses the redis expiration. Empty means no expiration.
func (s Store) TTL() (time.Duration, error) {
	if s.RedisTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.RedisTTL)
	if err != nil {
		return 0, fmt.Errorf("store.redis_ttl: %w", err)
	}
	return d, nil
}

// Keys decodes the encryption keys. A nil active key means snapshots are
// stored in the clear.
func (s Store) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, errors.New("store.fallback_keys requires store.encryption_key")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey("store.encryption_key", s.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(fmt.Sprintf("store.fallback_keys[%d]", i), k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(field, s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s: want 32 bytes, got %d", field, len(key))
	}
	return key, nil
}

// Shutdown parses the graceful shutdown deadline.
func (s Server) Shutdown() (time.Duration, error) {
	if s.ShutdownTimeout == "" {
		return 5 * time.Second, nil
	}
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	return d, nil
}
