package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables understood by parseEnv.
const (
	EnvAPIBaseURL     = "CASHBACK_API_URL"
	EnvRequestTimeout = "CASHBACK_REQUEST_TIMEOUT"
	EnvDatabasePath   = "CASHBACK_DB_PATH"
	EnvTokenStore     = "CASHBACK_TOKEN_STORE"
	EnvLogBackend     = "CASHBACK_LOG_BACKEND"
	EnvLogLevel       = "CASHBACK_LOG_LEVEL"
	EnvLogFormat      = "CASHBACK_LOG_FORMAT"
	EnvOnlineCheck    = "CASHBACK_ONLINE_CHECK_INTERVAL"
)

// parseEnv overlays cfg with environment variables. A .env file in the
// working directory is loaded first; variables already set win over it.
// Unparseable durations are ignored.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.APIBaseURL, EnvAPIBaseURL)
	setString(&cfg.DatabasePath, EnvDatabasePath)
	setString(&cfg.TokenStore, EnvTokenStore)
	setString(&cfg.LogBackend, EnvLogBackend)
	setString(&cfg.LogLevel, EnvLogLevel)
	setString(&cfg.LogFormat, EnvLogFormat)

	setDuration(&cfg.RequestTimeout, EnvRequestTimeout)
	setDuration(&cfg.OnlineCheckInterval, EnvOnlineCheck)
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
