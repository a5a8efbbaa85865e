// Package config handles configuration of the CashbackHub dev backend:
// defaults, environment, an optional JSON file and command-line flags.
package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/cashbackhub/internal/logging"
)

// Refresh token store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds runtime settings of the dev backend.
//
// Fields:
//   - Addr: HTTP bind address.
//   - PublicURL: base URL used in links the backend logs (email verification).
//   - SecretKey: HMAC secret for signing access tokens (HS256).
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - RefreshStore: where refresh tokens live, memory or redis.
//   - LoginRateLimit / LoginRateBurst: per-IP budget for login and register.
//   - AdminEmail / AdminPassword: seed an admin account when both are set.
type Config struct {
	Addr                         string
	PublicURL                    string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	BcryptCost                   int
	RequestTimeout               time.Duration

	RefreshStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginRateLimit float64
	LoginRateBurst int

	AdminEmail    string
	AdminPassword string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure outside local development.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.PublicURL = "http://127.0.0.1:8080"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 5 * time.Minute
	c.RefreshTokenValidityDuration = 24 * time.Hour
	c.BcryptCost = 10
	c.RequestTimeout = 10 * time.Second
	c.RefreshStore = StoreMemory
	c.RedisAddr = "127.0.0.1:6379"
	c.LoginRateLimit = 1
	c.LoginRateBurst = 5
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoggingOptions selects the zap backend for the server log.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Backend: "zap",
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Output:  os.Stdout,
	}
}

// LoadConfig applies defaults, then the environment, then an optional JSON
// file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
