package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quillauthd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
bind: 0.0.0.0:8443
base_url: https://accounts.example.com
token_key: MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=
token_ttl: 12h
store:
  driver: redis
  redis_addr: localhost:6379
notifier:
  driver: smtp
  smtp_addr: relay.example.com:587
  smtp_from: auth@example.com
session:
  jwt_secret: a-long-enough-secret-for-hs256-use
  ttl: 30m
csrf:
  enabled: true
  secret: csrf-secret
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8443", cfg.Bind)
	assert.Equal(t, "https://accounts.example.com", cfg.BaseURL)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "smtp", cfg.Notifier.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.CSRF.Enabled)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
base_url: https://accounts.example.com
token_key: MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=
session:
  jwt_secret: a-long-enough-secret-for-hs256-use
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:7010", cfg.Bind)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "quillauth.db", cfg.Store.SQLitePath)
	assert.Equal(t, "log", cfg.Notifier.Driver)
	assert.Equal(t, "quillauthd", cfg.Session.Issuer)
	assert.False(t, cfg.CSRF.Enabled)
}

func TestLoadConfigMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing base_url", "token_key: abc=\nsession:\n  jwt_secret: s\n"},
		{"missing token_key", "base_url: https://x\nsession:\n  jwt_secret: s\n"},
		{"missing jwt_secret", "base_url: https://x\ntoken_key: abc=\n"},
		{"csrf without secret", "base_url: https://x\ntoken_key: abc=\nsession:\n  jwt_secret: s\ncsrf:\n  enabled: true\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
