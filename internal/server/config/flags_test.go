package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    func(c *Config)
		expectPanic bool
	}{
		{
			name: "overrides",
			args: []string{"-a", "127.0.0.1:9090", "-s", "secret", "-t", "1", "-r", "3",
				"-store", "redis", "-redis", "redis:6379", "-l", "debug", "-c", "ignored.json"},
			expected: func(c *Config) {
				c.Addr = "127.0.0.1:9090"
				c.SecretKey = "secret"
				c.AccessTokenValidityDuration = time.Minute
				c.RefreshTokenValidityDuration = 3 * time.Minute
				c.RefreshStore = StoreRedis
				c.RedisAddr = "redis:6379"
				c.LogLevel = "debug"
			},
		},
		{name: "no flags", args: nil, expected: func(*Config) {}},
		{name: "bad minutes", args: []string{"-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			c.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(c, tt.args) })
				return
			}

			require.NotPanics(t, func() { parseFlags(c, tt.args) })
			want := &Config{}
			want.LoadDefaults()
			tt.expected(want)
			assert.Empty(t, cmp.Diff(want, c))
		})
	}
}
