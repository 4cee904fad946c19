package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "arbor.yaml",
			content: `
server:
  addr: ":9090"
store:
  driver: redis
  redis_addr: "cache:6379"
  redis_ttl: 10m
metrics:
  enabled: true
`,
		},
		{
			name: "toml",
			file: "arbor.toml",
			content: `
[server]
addr = ":9090"

[store]
driver = "redis"
redis_addr = "cache:6379"
redis_ttl = "10m"

[metrics]
enabled = true
`,
		},
		{
			name:    "json",
			file:    "arbor.json",
			content: `{"server":{"addr":":9090"},"store":{"driver":"redis","redis_addr":"cache:6379","redis_ttl":"10m"},"metrics":{"enabled":true}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, ":9090", cfg.Server.Addr)
			assert.Equal(t, DriverRedis, cfg.Store.Driver)
			assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
			ttl, err := cfg.Store.TTL()
			require.NoError(t, err)
			assert.Equal(t, 10*time.Minute, ttl)
			assert.True(t, cfg.Metrics.Enabled)

			// untouched keys keep their defaults
			assert.Equal(t, "arbor:session:", cfg.Store.RedisPrefix)
			assert.Equal(t, "/metrics", cfg.Metrics.Path)
			assert.Equal(t, "info", cfg.Log.Level)
		})
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "arbor.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "etcd" }, `unknown store driver "etcd"`},
		{"bolt without path", func(c *Config) { c.Store.Driver = DriverBolt; c.Store.BoltPath = "" }, "bolt_path is required"},
		{"bad ttl", func(c *Config) { c.Store.RedisTTL = "soon" }, "store.redis_ttl"},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }, "unknown log level"},
		{"bad metrics path", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "metrics" }, "metrics.path"},
		{"short key", func(c *Config) { c.Store.EncryptionKey = "c2hvcnQ=" }, "want 32 bytes"},
		{"fallback without key", func(c *Config) { c.Store.FallbackKeys = []string{"x"} }, "requires store.encryption_key"},
		{"bad shutdown", func(c *Config) { c.Server.ShutdownTimeout = "later" }, "server.shutdown_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestStore_Keys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	old := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))

	active, fallback, err := Store{EncryptionKey: key, FallbackKeys: []string{old}}.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte(1), fallback[0][0])

	active, fallback, err = Store{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)
}
