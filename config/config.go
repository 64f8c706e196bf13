// Package config provides configuration loading for the OLDAP library.
// Settings come from (highest precedence first) OLDAP_* environment
// variables, an optional YAML config file (Load only), and the documented
// defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variable names recognized by the library.
const (
	EnvTripleStoreServer   = "OLDAP_TS_SERVER"
	EnvTripleStoreRepo     = "OLDAP_TS_REPO"
	EnvTripleStoreUser     = "OLDAP_TS_USER"
	EnvTripleStorePassword = "OLDAP_TS_PASSWORD"
	EnvRedisURL            = "OLDAP_REDIS_URL"
	EnvJWTSecret           = "OLDAP_JWT_SECRET"
)

// Defaults applied when neither config file nor environment provides a
// value. DefaultRedisURL is not applied: an unset OLDAP_REDIS_URL leaves
// RedisURL empty, which selects the in-process cache.
const (
	DefaultTripleStoreServer = "http://localhost:7200"
	DefaultTripleStoreRepo   = "oldap"
	DefaultRedisURL          = "redis://localhost:6379"
	DefaultJWTSecret         = "You have to change this!!! +D&RWG+"
)

// TripleStoreConfig holds the connection parameters of the SPARQL endpoint.
type TripleStoreConfig struct {
	Server   string
	Repo     string
	User     string
	Password string
}

// Config is the resolved library configuration.
type Config struct {
	TripleStore TripleStoreConfig
	RedisURL    string
	JWTSecret   string
}

// FromEnv resolves the configuration from environment variables alone.
func FromEnv() *Config {
	env := NewEnvConfig("OLDAP")
	return &Config{
		TripleStore: TripleStoreConfig{
			Server:   env.GetString("TS_SERVER", DefaultTripleStoreServer),
			Repo:     env.GetString("TS_REPO", DefaultTripleStoreRepo),
			User:     env.GetString("TS_USER", ""),
			Password: env.GetString("TS_PASSWORD", ""),
		},
		RedisURL:  os.Getenv(EnvRedisURL),
		JWTSecret: env.GetString("JWT_SECRET", DefaultJWTSecret),
	}
}

// Load resolves the configuration from an optional YAML file and the
// environment; a set environment variable takes precedence over the file's
// value. An empty path skips the file.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OLDAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("ts.server", DefaultTripleStoreServer)
	v.SetDefault("ts.repo", DefaultTripleStoreRepo)
	v.SetDefault("ts.user", "")
	v.SetDefault("ts.password", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("jwt.secret", DefaultJWTSecret)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return &Config{
		TripleStore: TripleStoreConfig{
			Server:   v.GetString("ts.server"),
			Repo:     v.GetString("ts.repo"),
			User:     v.GetString("ts.user"),
			Password: v.GetString("ts.password"),
		},
		RedisURL:  v.GetString("redis.url"),
		JWTSecret: v.GetString("jwt.secret"),
	}, nil
}

// EnvConfig provides utilities for loading configuration from environment
// variables under an optional prefix.
type EnvConfig struct {
	prefix string
}

// NewEnvConfig creates a new environment configuration loader.
func NewEnvConfig(prefix string) *EnvConfig {
	return &EnvConfig{prefix: prefix}
}

// GetString retrieves a string value from environment with a default.
func (ec *EnvConfig) GetString(key, defaultValue string) string {
	if value := os.Getenv(ec.buildKey(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetInt retrieves an integer value from environment with a default.
func (ec *EnvConfig) GetInt(key string, defaultValue int) int {
	if value := os.Getenv(ec.buildKey(key)); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetBool retrieves a boolean value from environment with a default.
func (ec *EnvConfig) GetBool(key string, defaultValue bool) bool {
	if value := os.Getenv(ec.buildKey(key)); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetDuration retrieves a duration value from environment with a default.
func (ec *EnvConfig) GetDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(ec.buildKey(key)); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func (ec *EnvConfig) buildKey(key string) string {
	if ec.prefix != "" {
		return ec.prefix + "_" + key
	}
	return key
}
