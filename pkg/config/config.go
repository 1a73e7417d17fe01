// Package config loads layout service configuration from YAML, JSON or TOML
// files, applies defaults and validates the result.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-layouts/pkg/cache"
	"github.com/goliatone/go-layouts/pkg/device"
)

// Cache drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// Authorization engines.
const (
	EngineGrants = "grants"
	EngineRego   = "rego"
)

// Config is the full service configuration.
type Config struct {
	Cache       CacheConfig        `json:"cache" yaml:"cache" toml:"cache"`
	Breakpoints device.Breakpoints `json:"breakpoints" yaml:"breakpoints" toml:"breakpoints" validate:"dive"`
	Definitions DefinitionsConfig  `json:"definitions" yaml:"definitions" toml:"definitions"`
	Authz       AuthzConfig        `json:"authz" yaml:"authz" toml:"authz"`
	Logging     LoggingConfig      `json:"logging" yaml:"logging" toml:"logging"`
	HTTP        HTTPConfig         `json:"http" yaml:"http" toml:"http"`
	// Catalogs are option lists served to data sources as catalog:NAME.
	Catalogs map[string][]string `json:"catalogs" yaml:"catalogs" toml:"catalogs"`
}

// CacheConfig selects the cache store and key scheme.
type CacheConfig struct {
	TTLSeconds int         `json:"ttl" yaml:"ttl" toml:"ttl" validate:"gte=0"`
	Prefix     string      `json:"prefix" yaml:"prefix" toml:"prefix" validate:"required"`
	Driver     string      `json:"driver" yaml:"driver" toml:"driver" validate:"oneof=memory redis none"`
	Redis      RedisConfig `json:"redis" yaml:"redis" toml:"redis"`
}

// TTL returns the cache expiry as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RedisConfig addresses the redis server used by the redis driver.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" toml:"addr" validate:"omitempty,hostname_port"`
	Password string `json:"password" yaml:"password" toml:"password"`
	DB       int    `json:"db" yaml:"db" toml:"db" validate:"gte=0"`
}

// DefinitionsConfig points at layout definition files.
type DefinitionsConfig struct {
	Dir   string `json:"dir" yaml:"dir" toml:"dir"`
	Watch bool   `json:"watch" yaml:"watch" toml:"watch"`
}

// AuthzConfig selects the authorization resolver. Grants map roles to
// permission patterns for both engines; Policy is an optional rego file
// replacing the embedded policy.
type AuthzConfig struct {
	Engine string              `json:"engine" yaml:"engine" toml:"engine" validate:"oneof=grants rego"`
	Policy string              `json:"policy" yaml:"policy" toml:"policy"`
	Grants map[string][]string `json:"grants" yaml:"grants" toml:"grants"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" toml:"format" validate:"oneof=console json"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr" validate:"required"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			TTLSeconds: 3600,
			Prefix:     cache.DefaultPrefix,
			Driver:     DriverMemory,
			Redis:      RedisConfig{Addr: "localhost:6379"},
		},
		Breakpoints: device.DefaultBreakpoints(),
		Authz:       AuthzConfig{Engine: EngineGrants},
		Logging:     LoggingConfig{Level: "info", Format: "console"},
		HTTP:        HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path, picking the decoder from its extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.Definitions.Dir != "" && !filepath.IsAbs(cfg.Definitions.Dir) {
		cfg.Definitions.Dir = filepath.Join(filepath.Dir(path), cfg.Definitions.Dir)
	}
	if cfg.Authz.Policy != "" && !filepath.IsAbs(cfg.Authz.Policy) {
		cfg.Authz.Policy = filepath.Join(filepath.Dir(path), cfg.Authz.Policy)
	}
	return cfg, nil
}

// Parse decodes data in format ("yaml", "yml", "json" or "toml", with or
// without a leading dot) over the defaults and validates the result.
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()
	var err error
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, cfg)
	case "json":
		err = json.Unmarshal(data, cfg)
	case "toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config: unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", format, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			messages := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				messages = append(messages, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	if c.Cache.Driver == DriverRedis && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: invalid: cache.redis.addr is required for the redis driver")
	}
	if err := c.Breakpoints.Validate(); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
