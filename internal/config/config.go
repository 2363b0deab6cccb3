// Package config loads concierge settings from a YAML file and CONCIERGE_* environment
// variables. Environment values win over the file; command flags win over both.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "concierge.yaml"

// Store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the resolved application configuration.
type Config struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Store     StoreConfig   `mapstructure:"store"`
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption at rest.
	EncryptionKey string      `mapstructure:"encryption_key"`
	FallbackKeys  []string    `mapstructure:"fallback_keys"`
	Agent         AgentConfig `mapstructure:"agent"`
}

type StoreConfig struct {
	Backend string        `mapstructure:"backend"`
	Path    string        `mapstructure:"path"`
	Prefix  string        `mapstructure:"prefix"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AgentConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		BaseURL:   "http://localhost:8000",
		Timeout:   30 * time.Second,
		LogLevel:  "info",
		LogFormat: string(logging.FormatText),
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    ".concierge/session",
			Prefix:  "concierge:session:",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Agent: AgentConfig{Addr: "127.0.0.1:7070"},
	}
}

// envKeys maps environment variables to dotted config keys.
var envKeys = map[string]string{
	"CONCIERGE_BASE_URL":       "base_url",
	"CONCIERGE_TIMEOUT":        "timeout",
	"CONCIERGE_LOG_LEVEL":      "log_level",
	"CONCIERGE_LOG_FORMAT":     "log_format",
	"CONCIERGE_STORE_BACKEND":  "store.backend",
	"CONCIERGE_STORE_PATH":     "store.path",
	"CONCIERGE_STORE_PREFIX":   "store.prefix",
	"CONCIERGE_STORE_TTL":      "store.ttl",
	"CONCIERGE_REDIS_ADDR":     "store.redis.addr",
	"CONCIERGE_REDIS_PASSWORD": "store.redis.password",
	"CONCIERGE_REDIS_DB":       "store.redis.db",
	"CONCIERGE_ENCRYPTION_KEY": "encryption_key",
	"CONCIERGE_AGENT_ADDR":     "agent.addr",
}

// Load reads path (a missing file is not an error unless required), overlays the
// environment and validates the result.
func Load(path string, required bool) (Config, error) {
	return load(path, required, os.LookupEnv)
}

func load(path string, required bool, lookup func(string) (string, bool)) (Config, error) {
	raw := map[string]any{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	for env, key := range envKeys {
		if v, ok := lookup(env); ok {
			setPath(raw, strings.Split(key, "."), v)
		}
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setPath writes value at a dotted path, creating nested maps as needed.
func setPath(m map[string]any, path []string, value string) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, _, err := c.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the active and fallback encryption keys. A nil active key means
// encryption is disabled.
func (c Config) Keys() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		if len(c.FallbackKeys) > 0 {
			return nil, nil, errors.New("fallback_keys require encryption_key")
		}
		return nil, nil, nil
	}
	active, err = decodeKey(c.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption_key: %w", err)
	}
	for i, k := range c.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
