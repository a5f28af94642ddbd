package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Cache backends
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

// Rule modes
const (
	ModeWhitelist = "whitelist"
	ModeBlacklist = "blacklist"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `koanf:"server" yaml:"server"`
	Client ClientConfig `koanf:"client" yaml:"client"`
	Cache  CacheConfig  `koanf:"cache" yaml:"cache"`
	Rules  RulesConfig  `koanf:"rules" yaml:"rules"`
	Log    LogConfig    `koanf:"log" yaml:"log"`
}

// ServerConfig contains proxy server configuration
type ServerConfig struct {
	Port  int         `koanf:"port" yaml:"port"`
	HTTPS HTTPSConfig `koanf:"https" yaml:"https"`
}

// HTTPSConfig controls TLS interception in proxy mode
type HTTPSConfig struct {
	Enabled    bool   `koanf:"enabled" yaml:"enabled"`
	CACertFile string `koanf:"ca_cert_file" yaml:"ca_cert_file"`
	CAKeyFile  string `koanf:"ca_key_file" yaml:"ca_key_file"`
}

// ClientConfig contains the HTTP client configuration
type ClientConfig struct {
	BaseURL  string `koanf:"base_url" yaml:"base_url"`
	Timeout  string `koanf:"timeout" yaml:"timeout"`
	Coalesce bool   `koanf:"coalesce" yaml:"coalesce"`
}

// CacheConfig contains cache-related configuration
type CacheConfig struct {
	// TTL is the freshness window of a cached response
	TTL     string      `koanf:"ttl" yaml:"ttl"`
	Prefix  string      `koanf:"prefix" yaml:"prefix"`
	Backend string      `koanf:"backend" yaml:"backend"`
	Folder  string      `koanf:"folder" yaml:"folder"`
	Redis   RedisConfig `koanf:"redis" yaml:"redis"`
	S3      S3Config    `koanf:"s3" yaml:"s3"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Password string `koanf:"password" yaml:"password,omitempty"`
	DB       int    `koanf:"db" yaml:"db"`
}

type S3Config struct {
	Endpoint  string `koanf:"endpoint" yaml:"endpoint"`
	Region    string `koanf:"region" yaml:"region"`
	Bucket    string `koanf:"bucket" yaml:"bucket"`
	AccessKey string `koanf:"access_key" yaml:"access_key,omitempty"`
	SecretKey string `koanf:"secret_key" yaml:"secret_key,omitempty"`
}

// RulesConfig contains caching rules configuration
type RulesConfig struct {
	Mode  string      `koanf:"mode" yaml:"mode"` // "whitelist" or "blacklist"
	Rules []CacheRule `koanf:"rules" yaml:"rules"`
}

// CacheRule defines a caching rule
type CacheRule struct {
	BaseURI string `koanf:"base_uri" yaml:"base_uri"`
}

type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

// Default returns the configuration used when no file overrides a value
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Client: ClientConfig{Timeout: "30s"},
		Cache: CacheConfig{
			TTL:     "5m",
			Prefix:  "tripcache:",
			Backend: BackendMemory,
			Folder:  "./cache",
		},
		Rules: RulesConfig{Mode: ModeBlacklist},
		Log:   LogConfig{Level: "info"},
	}
}

// Load loads configuration from a YAML file on top of the defaults
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	return &config, nil
}

// GetCacheTTL parses and returns the cache TTL duration
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// GetClientTimeout parses and returns the client timeout, zero meaning none
func (c *Config) GetClientTimeout() (time.Duration, error) {
	if c.Client.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Client.Timeout)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Client.BaseURL != "" {
		if _, err := url.Parse(c.Client.BaseURL); err != nil {
			return fmt.Errorf("invalid client base URL: %w", err)
		}
	}

	if _, err := c.GetClientTimeout(); err != nil {
		return fmt.Errorf("invalid client timeout format: %w", err)
	}

	if c.Cache.TTL == "" {
		return fmt.Errorf("cache TTL is required")
	}

	ttl, err := c.GetCacheTTL()
	if err != nil {
		return fmt.Errorf("invalid cache TTL format: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", c.Cache.TTL)
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendDisk:
		if c.Cache.Folder == "" {
			return fmt.Errorf("cache folder is required for the disk backend")
		}
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	case BackendS3:
		if c.Cache.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	if c.Rules.Mode != ModeWhitelist && c.Rules.Mode != ModeBlacklist {
		return fmt.Errorf("rules mode must be 'whitelist' or 'blacklist', got: %s", c.Rules.Mode)
	}

	return nil
}

// Dump renders the configuration as YAML, secrets excluded
func (c *Config) Dump() ([]byte, error) {
	redacted := *c
	redacted.Cache.Redis.Password = ""
	redacted.Cache.S3.AccessKey = ""
	redacted.Cache.S3.SecretKey = ""
	return yamlv3.Marshal(&redacted)
}
