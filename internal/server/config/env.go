package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays cfg with environment variables, loading a .env file
// first. Malformed numbers and durations keep the current value.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	cfg.Addr = getEnv("SERVER_ADDR", cfg.Addr)
	cfg.PublicURL = getEnv("SERVER_PUBLIC_URL", cfg.PublicURL)
	cfg.SecretKey = getEnv("AUTH_JWT_SECRET", cfg.SecretKey)
	cfg.AccessTokenValidityDuration = getEnvAsDuration("AUTH_ACCESS_TOKEN_TTL", cfg.AccessTokenValidityDuration)
	cfg.RefreshTokenValidityDuration = getEnvAsDuration("AUTH_REFRESH_TOKEN_TTL", cfg.RefreshTokenValidityDuration)
	cfg.BcryptCost = getEnvAsInt("AUTH_BCRYPT_COST", cfg.BcryptCost)
	cfg.RequestTimeout = getEnvAsDuration("HTTP_REQUEST_TIMEOUT", cfg.RequestTimeout)

	cfg.RefreshStore = getEnv("REFRESH_STORE", cfg.RefreshStore)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvAsInt("REDIS_DB", cfg.RedisDB)

	cfg.LoginRateLimit = getEnvAsFloat("LOGIN_RATE_LIMIT", cfg.LoginRateLimit)
	cfg.LoginRateBurst = getEnvAsInt("LOGIN_RATE_BURST", cfg.LoginRateBurst)

	cfg.AdminEmail = getEnv("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.AdminPassword)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
