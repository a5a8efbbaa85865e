package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/cashbackhub/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string   base URL of the platform API
//	-t int      request timeout (in seconds)
//	-d string   path of the local client database
//	-store      token store backend: sqlite or memory
//	-l string   log level
//	-i int      online check interval (in seconds), 0 disables it
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-d", "-store", "-l", "-i"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the platform API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local client database")
	fs.StringVar(&cfg.TokenStore, "store", cfg.TokenStore, "token store backend: sqlite or memory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
}
