// Package server provides configuration of the tabserve HTTP server.
//
// Values come from, in priority order, environment variables (TABSERVE_<KEY>,
// with "." in keys replaced by "_"), a config file, and defaults.
package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opst/tabserve/pkg/artifact"
	"github.com/opst/tabserve/pkg/configs/task"
)

const EnvPrefix = "TABSERVE"

type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"loglevel"`

	Tasks  TasksConfig  `mapstructure:"tasks"`
	Models ModelsConfig `mapstructure:"models"`
	Auth   AuthConfig   `mapstructure:"auth"`

	// file served at GET /sample. Empty to disable.
	SampleFile string `mapstructure:"sample_file"`

	// task ids whose pools are created at startup.
	Warmup []string `mapstructure:"warmup"`

	// wait for in-flight requests on shutdown.
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`

	// give up connecting to redis or postgres at startup after this.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// TasksConfig tells where task configurations are.
//
// When Redis.Addr is set, they are read from Redis. Otherwise, from files in Dir.
type TasksConfig struct {
	Dir    string      `mapstructure:"dir"`
	Prefix string      `mapstructure:"prefix"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// ModelsConfig tells where model artifacts are.
//
// When PostgresURI is set, they are read from the database. Otherwise, from files in Dir.
type ModelsConfig struct {
	Dir         string `mapstructure:"dir"`
	PostgresURI string `mapstructure:"postgres_uri"`
}

// AuthConfig enables bearer token authentication of /invocations
// when HMACKey is set.
type AuthConfig struct {
	HMACKey string `mapstructure:"hmac_key"`
	Issuer  string `mapstructure:"issuer"`
}

func Default() *Config {
	return &Config{
		Port:     8080,
		LogLevel: "info",
		Tasks: TasksConfig{
			Dir:    task.DefaultConfigDir(),
			Prefix: task.DefaultPrefix,
			Redis:  RedisConfig{Prefix: "tabserve"},
		},
		Models:         ModelsConfig{Dir: artifact.DefaultModelDir()},
		Warmup:         []string{},
		ShutdownGrace:  15 * time.Second,
		ConnectTimeout: 30 * time.Second,
	}
}

// SetDefaults registers default values and environment bindings to v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("port", d.Port)
	v.SetDefault("loglevel", d.LogLevel)
	v.SetDefault("tasks.dir", d.Tasks.Dir)
	v.SetDefault("tasks.prefix", d.Tasks.Prefix)
	v.SetDefault("tasks.redis.addr", d.Tasks.Redis.Addr)
	v.SetDefault("tasks.redis.password", d.Tasks.Redis.Password)
	v.SetDefault("tasks.redis.db", d.Tasks.Redis.DB)
	v.SetDefault("tasks.redis.prefix", d.Tasks.Redis.Prefix)
	v.SetDefault("models.dir", d.Models.Dir)
	v.SetDefault("models.postgres_uri", d.Models.PostgresURI)
	v.SetDefault("auth.hmac_key", d.Auth.HMACKey)
	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("sample_file", d.SampleFile)
	v.SetDefault("warmup", d.Warmup)
	v.SetDefault("shutdown_grace", d.ShutdownGrace)
	v.SetDefault("connect_timeout", d.ConnectTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile merges the config file at path into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var ErrInvalidConfig = errors.New("invalid server config")

func (c *Config) Validate() error {
	errs := []error{}
	if c.Port < 1 || 65535 < c.Port {
		errs = append(errs, fmt.Errorf("port should be in 1-65535, but %d", c.Port))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "off", "":
	default:
		errs = append(errs, fmt.Errorf("loglevel should be debug, info, warn, error or off, but %s", c.LogLevel))
	}
	if c.Tasks.Redis.Addr == "" && c.Tasks.Dir == "" {
		errs = append(errs, errors.New("tasks.dir or tasks.redis.addr is required"))
	}
	if c.Models.PostgresURI == "" && c.Models.Dir == "" {
		errs = append(errs, errors.New("models.dir or models.postgres_uri is required"))
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("connect_timeout should be positive, but %s", c.ConnectTimeout))
	}
	if c.ShutdownGrace < 0 {
		errs = append(errs, fmt.Errorf("shutdown_grace should not be negative, but %s", c.ShutdownGrace))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
