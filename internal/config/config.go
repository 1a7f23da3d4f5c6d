
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// LEVELS_CACHE_BACKEND=redis.
const EnvPrefix = "LEVELS"

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	SourceURL string       `mapstructure:"source_url"`
	Log       LogConfig    `mapstructure:"log"`
	HTTP      HTTPConfig   `mapstructure:"http"`
	Cache     CacheConfig  `mapstructure:"cache"`
	Detail    DetailConfig `mapstructure:"detail"`
	Output    OutputConfig `mapstructure:"output"`
	Server    ServerConfig `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
	UserAgent     string        `mapstructure:"user_agent"`
	RetryAttempts uint          `mapstructure:"retry_attempts"` // extra attempts after the first
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	ListFile   string        `mapstructure:"list_file"`
	DetailFile string        `mapstructure:"detail_file"`
	ListTTL    time.Duration `mapstructure:"list_ttl"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds redis connection settings and the keys the two cache
// documents live under.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	ListKey   string `mapstructure:"list_key"`
	DetailKey string `mapstructure:"detail_key"`
}

type DetailConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_url", "https://www.newsinlevels.com")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.dial_timeout", 5*time.Second)
	v.SetDefault("http.max_body_bytes", int64(5<<20))
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.retry_attempts", 0)
	v.SetDefault("http.retry_delay", 500*time.Millisecond)

	v.SetDefault("cache.backend", BackendFile)
	v.SetDefault("cache.list_file", "article_list_cache.json")
	v.SetDefault("cache.detail_file", "article_cache.json")
	v.SetDefault("cache.list_ttl", time.Hour)
	v.SetDefault("cache.redis.addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.list_key", "newsinlevels:article_list")
	v.SetDefault("cache.redis.detail_key", "newsinlevels:articles")

	v.SetDefault("detail.concurrency", 4)
	v.SetDefault("detail.timeout", 30*time.Second)

	v.SetDefault("output.path", "")
	v.SetDefault("output.format", "json")

	v.SetDefault("server.addr", ":8080")
}

// Load reads configFile (or config.yaml from the usual places when empty),
// applies LEVELS_* environment overrides and validates the result. A missing
// default config file is not an error; a missing explicit one is.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/newsinlevels-crawler")
	}

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.SourceURL == "" {
		errs = append(errs, errors.New("source_url must be set"))
	}
	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.ListFile == "" || c.Cache.DetailFile == "" {
			errs = append(errs, errors.New("cache.list_file and cache.detail_file must be set for the file backend"))
		}
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr must be set for the redis backend"))
		}
		if c.Cache.Redis.ListKey == "" || c.Cache.Redis.DetailKey == "" || c.Cache.Redis.ListKey == c.Cache.Redis.DetailKey {
			errs = append(errs, errors.New("cache.redis.list_key and cache.redis.detail_key must be set and distinct"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}
	if c.Cache.ListTTL <= 0 {
		errs = append(errs, errors.New("cache.list_ttl must be positive"))
	}
	if c.Detail.Concurrency < 1 {
		errs = append(errs, errors.New("detail.concurrency must be at least 1"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	switch c.Output.Format {
	case "json", "ndjson":
	default:
		errs = append(errs, fmt.Errorf("unknown output.format %q", c.Output.Format))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
