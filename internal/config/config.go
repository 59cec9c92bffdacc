// Package config loads service configuration from defaults, an optional
// YAML file and CATALOGUE_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"book-catalogue/internal/core/model"

	"gopkg.in/yaml.v3"
)

type CacheBackend string

const (
	BackendMemory CacheBackend = "memory"
	BackendFile   CacheBackend = "file"
	BackendRedis  CacheBackend = "redis"
	BackendBadger CacheBackend = "badger"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	SourceURL  string `yaml:"source_url"`
	LogLevel   string `yaml:"log_level"`

	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	RefreshDelay time.Duration `yaml:"refresh_delay"`

	Cache CacheConfig `yaml:"cache"`

	RefreshRateLimit int           `yaml:"refresh_rate_limit"`
	RefreshWindow    time.Duration `yaml:"refresh_window"`
}

type CacheConfig struct {
	Backend CacheBackend  `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Key     string        `yaml:"key"`
	Dir     string        `yaml:"dir"`
	Redis   RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func Default() Config {
	return Config{
		ListenAddr:   ":8080",
		SourceURL:    model.DefaultSourceURL,
		LogLevel:     "info",
		HTTPTimeout:  10 * time.Second,
		RefreshDelay: time.Second,
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     30 * time.Minute,
			Key:     "catalogue_cache",
			Dir:     ".catalogue-cache",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		RefreshRateLimit: 10,
		RefreshWindow:    time.Minute,
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := mergeEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func mergeEnv(cfg *Config, getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("CATALOGUE_LISTEN_ADDR", &cfg.ListenAddr)
	if port := getenv("PORT"); port != "" && getenv("CATALOGUE_LISTEN_ADDR") == "" {
		cfg.ListenAddr = ":" + port
	}
	str("CATALOGUE_SOURCE_URL", &cfg.SourceURL)
	str("CATALOGUE_LOG_LEVEL", &cfg.LogLevel)
	dur("CATALOGUE_HTTP_TIMEOUT", &cfg.HTTPTimeout)
	dur("CATALOGUE_REFRESH_DELAY", &cfg.RefreshDelay)

	var backend string
	str("CATALOGUE_CACHE_BACKEND", &backend)
	if backend != "" {
		cfg.Cache.Backend = CacheBackend(backend)
	}
	dur("CATALOGUE_CACHE_TTL", &cfg.Cache.TTL)
	str("CATALOGUE_CACHE_KEY", &cfg.Cache.Key)
	str("CATALOGUE_CACHE_DIR", &cfg.Cache.Dir)
	str("CATALOGUE_REDIS_ADDR", &cfg.Cache.Redis.Addr)
	str("CATALOGUE_REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	num("CATALOGUE_REDIS_DB", &cfg.Cache.Redis.DB)

	num("CATALOGUE_REFRESH_RATE_LIMIT", &cfg.RefreshRateLimit)
	dur("CATALOGUE_REFRESH_WINDOW", &cfg.RefreshWindow)

	return errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error
	if c.SourceURL == "" {
		errs = append(errs, errors.New("source_url is required"))
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile, BackendBadger:
		if c.Cache.Dir == "" {
			errs = append(errs, fmt.Errorf("cache.dir is required for the %s backend", c.Cache.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Redis.Addr == "" {
		errs = append(errs, errors.New("cache.redis.addr is required for the redis backend"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.RefreshDelay < 0 {
		errs = append(errs, errors.New("refresh_delay must not be negative"))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, errors.New("http_timeout must not be negative"))
	}
	if c.RefreshRateLimit < 0 {
		errs = append(errs, errors.New("refresh_rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}
