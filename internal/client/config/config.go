package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/cashbackhub/internal/logging"
)

// Token store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds runtime settings of the CashbackHub client.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DatabasePath   string
	TokenStore     string

	// OnlineCheckInterval is how often the client pings the backend to
	// show the connectivity mode in the prompt. Zero disables the check.
	OnlineCheckInterval time.Duration

	LogBackend string
	LogLevel   string
	LogFormat  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "cashbackhub.db"
	c.TokenStore = StoreSQLite
	c.OnlineCheckInterval = 30 * time.Second
	c.LogBackend = "slog"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoggingOptions converts the log settings for logging.New.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Output:  os.Stderr,
	}
}

// LoadConfig applies, in order of increasing precedence: defaults, the
// environment (including a .env file), a JSON or YAML config file, and
// command-line flags. Malformed input panics, as there is nothing sensible
// to run with.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFile(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
