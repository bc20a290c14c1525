package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/quillauth/quillauth"
	"github.com/quillauth/quillauth/httpapi"
	"github.com/quillauth/quillauth/internal/httpserver"
	"github.com/quillauth/quillauth/internal/logutil"
	"github.com/quillauth/quillauth/notify"
	"github.com/quillauth/quillauth/stores/redistore"
	"github.com/quillauth/quillauth/stores/sqlitestore"
)

func serveCmd() *cli.Command {
	configPath := "quillauthd.yaml"
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the authentication HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to the YAML configuration file",
				Value:       configPath,
				Destination: &configPath,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return serve(ctx.Context, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *serveConfig) error {
	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	tokenKey, err := base64.StdEncoding.DecodeString(cfg.TokenKey)
	if err != nil {
		return fmt.Errorf("token_key is not valid base64: %w", err)
	}

	engineCfg := quillauth.Config{
		TokenTTL:            cfg.TokenTTL,
		VerificationURLBase: cfg.BaseURL + "/verify",
		ResetURLBase:        cfg.BaseURL + "/reset-password",
		AllowUsernameLogin:  cfg.AllowUsernameLogin,
		RehashOnLogin:       true,
		Metrics:             quillauth.MetricsConfig{Enabled: true},
	}
	engine, err := quillauth.New().
		WithStore(store).
		WithNotifier(notifier).
		WithTokenKey(tokenKey).
		WithLogger(log.Logger).
		WithConfig(engineCfg).
		Build()
	if err != nil {
		return err
	}

	issuer, err := httpapi.NewJWTIssuer(
		[]byte(cfg.Session.JWTSecret), cfg.Session.TTL, cfg.Session.Issuer)
	if err != nil {
		return err
	}

	var guard httpapi.CSRFGuard
	if cfg.CSRF.Enabled {
		guard = httpapi.NewDoubleSubmit([]byte(cfg.CSRF.Secret))
	}

	server := httpapi.New(engine, issuer, guard, log.Logger)
	serveCtx := logutil.WithLogger(ctx, log.Logger)
	log.Info().Str("bind", cfg.Bind).Str("store", cfg.Store.Driver).Msg("quillauthd starting")
	return httpserver.Serve(serveCtx, cfg.Bind, server.Routes())
}

func openStore(ctx context.Context, cfg *serveConfig) (quillauth.CredentialStore, func(), error) {
	switch cfg.Store.Driver {
	case "sqlite":
		store, err := sqlitestore.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis at %v unreachable: %w", cfg.Store.RedisAddr, err)
		}
		return redistore.New(client), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q (want sqlite or redis)", cfg.Store.Driver)
	}
}

func buildNotifier(cfg *serveConfig) (quillauth.Notifier, error) {
	switch cfg.Notifier.Driver {
	case "log":
		return notify.NewLog(log.Logger), nil
	case "smtp":
		var auth smtp.Auth
		if cfg.Notifier.SMTPUsername != "" {
			host, _, err := net.SplitHostPort(cfg.Notifier.SMTPAddr)
			if err != nil {
				host = cfg.Notifier.SMTPAddr
			}
			auth = smtp.PlainAuth("", cfg.Notifier.SMTPUsername, cfg.Notifier.SMTPPassword, host)
		}
		return notify.NewSMTP(cfg.Notifier.SMTPAddr, cfg.Notifier.SMTPFrom, auth), nil
	default:
		return nil, fmt.Errorf("unknown notifier driver %q (want log or smtp)", cfg.Notifier.Driver)
	}
}
