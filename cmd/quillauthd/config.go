package main

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type serveConfig struct {
	Bind string `koanf:"bind"`

	// BaseURL is the public prefix of this service; verification and reset
	// links are built from it.
	BaseURL string `koanf:"base_url"`

	// TokenKey is the base64-encoded 32-byte key for link encryption.
	TokenKey string        `koanf:"token_key"`
	TokenTTL time.Duration `koanf:"token_ttl"`

	AllowUsernameLogin bool `koanf:"allow_username_login"`

	Store struct {
		Driver        string `koanf:"driver"`
		SQLitePath    string `koanf:"sqlite_path"`
		RedisAddr     string `koanf:"redis_addr"`
		RedisPassword string `koanf:"redis_password"`
		RedisDB       int    `koanf:"redis_db"`
	} `koanf:"store"`

	Notifier struct {
		Driver       string `koanf:"driver"`
		SMTPAddr     string `koanf:"smtp_addr"`
		SMTPFrom     string `koanf:"smtp_from"`
		SMTPUsername string `koanf:"smtp_username"`
		SMTPPassword string `koanf:"smtp_password"`
	} `koanf:"notifier"`

	Session struct {
		JWTSecret string        `koanf:"jwt_secret"`
		TTL       time.Duration `koanf:"ttl"`
		Issuer    string        `koanf:"issuer"`
	} `koanf:"session"`

	CSRF struct {
		Enabled bool   `koanf:"enabled"`
		Secret  string `koanf:"secret"`
	} `koanf:"csrf"`
}

func defaultServeConfig() *serveConfig {
	cfg := &serveConfig{
		Bind:     "localhost:7010",
		TokenTTL: 24 * time.Hour,
	}
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = "quillauth.db"
	cfg.Notifier.Driver = "log"
	cfg.Session.TTL = time.Hour
	cfg.Session.Issuer = "quillauthd"
	return cfg
}

func loadConfig(path string) (*serveConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("unable to load config %v: %w", path, err)
	}
	cfg := defaultServeConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config %v: %w", path, err)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("config %v: base_url is required", path)
	}
	if cfg.TokenKey == "" {
		return nil, fmt.Errorf("config %v: token_key is required", path)
	}
	if cfg.Session.JWTSecret == "" {
		return nil, fmt.Errorf("config %v: session.jwt_secret is required", path)
	}
	if cfg.CSRF.Enabled && cfg.CSRF.Secret == "" {
		return nil, fmt.Errorf("config %v: csrf.secret is required when csrf is enabled", path)
	}
	return cfg, nil
}
