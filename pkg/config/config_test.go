package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8443", cfg.HTTPAddr)
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 1.0, cfg.TraceProbability)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(env(map[string]string{
		"HTTP_ADDR":         ":9000",
		"DATABASE_URL":      "postgres://localhost/gotur",
		"TRACE_PROBABILITY": "0.25",
		"SESSION_TTL":       "15m",
		"TLS_CERT":          "c.crt",
		"TLS_KEY":           "c.key",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres://localhost/gotur", cfg.DatabaseURL)
	assert.Equal(t, 0.25, cfg.TraceProbability)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "c.crt", cfg.TLSCert)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad probability":   {"TRACE_PROBABILITY": "lots"},
		"probability range": {"TRACE_PROBABILITY": "1.5"},
		"bad ttl":           {"SESSION_TTL": "forever"},
		"half tls":          {"TLS_CERT": "c.crt"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(env(vars))
			assert.Error(t, err)
		})
	}
}
