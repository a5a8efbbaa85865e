// Package config loads runtime configuration for the CashbackHub client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, optionally from a .env file (CASHBACK_*).
//  3. Optional JSON or YAML file selected with -c or -config.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   base URL of the platform API
//	-t int      request timeout (seconds)
//	-d string   path of the local SQLite database holding credentials
//	-store      "sqlite" (default) or "memory"
//	-l string   log level
//
// # File schema
//
//	api_base_url: http://127.0.0.1:8080
//	request_timeout: 10s
//	database_path: cashbackhub.db
//	token_store: sqlite
//	log:
//	  backend: zap
//	  level: debug
//	  format: json
package config
