package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/cashbackhub/internal/flagx"
	"github.com/dmitrijs2005/cashbackhub/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk representation, shared by JSON and YAML.
// Empty fields leave the current value untouched.
type FileConfig struct {
	APIBaseURL     string         `json:"api_base_url" yaml:"api_base_url"`
	RequestTimeout timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	DatabasePath   string         `json:"database_path" yaml:"database_path"`
	TokenStore     string         `json:"token_store" yaml:"token_store"`
	OnlineCheck    timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	Log            struct {
		Backend string `json:"backend" yaml:"backend"`
		Level   string `json:"level" yaml:"level"`
		Format  string `json:"format" yaml:"format"`
	} `json:"log" yaml:"log"`
}

// parseFile overlays cfg with the file named by -c/-config. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON.
func parseFile(cfg *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	overlay(&cfg.APIBaseURL, fc.APIBaseURL)
	overlay(&cfg.DatabasePath, fc.DatabasePath)
	overlay(&cfg.TokenStore, fc.TokenStore)
	overlay(&cfg.LogBackend, fc.Log.Backend)
	overlay(&cfg.LogLevel, fc.Log.Level)
	overlay(&cfg.LogFormat, fc.Log.Format)
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.OnlineCheck.Duration > 0 {
		cfg.OnlineCheckInterval = fc.OnlineCheck.Duration
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
