// Package app wires the shared runtime of the dashboard server and the
// terminal console: local store, session, HTTP client, push channel and the
// optional cache and audit backends.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"auto-uc2-dashboard/api"
	"auto-uc2-dashboard/config"
	"auto-uc2-dashboard/models"
	"auto-uc2-dashboard/negotiation"
	"auto-uc2-dashboard/realtime"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/session"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *gorm.DB
	Sessions *session.Manager
	API      *api.Client
	Socket   *realtime.Socket
	Deps     services.Deps

	closers []func() error
}

// New opens the local store, restores the stored session and builds the
// clients. profile isolates the stored session of each front end.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, profile string) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	db, err := config.InitDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.DB = db
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	a.Sessions = session.NewManager(session.NewGormStore(db, profile, logger), logger)
	if err := a.Sessions.Restore(ctx); err != nil {
		logger.Warn("could not restore session", slog.Any("error", err))
	}

	a.API = api.New(cfg.API.BaseURL, a.Sessions, api.WithLogger(logger))

	sock, err := realtime.New(cfg.Realtime.URL, a.Sessions.Token, realtime.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Socket = sock
	a.closers = append(a.closers, sock.Close)
	a.Sessions.OnChange(func(session.Session, bool) { sock.Reconnect() })

	a.Deps = services.Deps{API: a.API, Logger: logger}
	a.Deps.Cache = a.cache()
	a.Deps.Audit = a.audit()
	return a, nil
}

func (a *App) cache() services.Cache {
	rc := a.Config.Redis
	if rc.Addr == "" {
		return services.NopCache{}
	}
	client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	cache, err := services.NewRedisCache(client, rc.Prefix, rc.TTL)
	if err != nil {
		a.Logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		_ = client.Close()
		return services.NopCache{}
	}
	a.closers = append(a.closers, cache.Close)
	return cache
}

func (a *App) audit() services.Auditor {
	ac := a.Config.AMQP
	if ac.URL == "" {
		return services.NopAuditor{}
	}
	audit, err := services.NewAMQPAudit(ac.URL, ac.Exchange, a.Logger)
	if err != nil {
		a.Logger.Warn("amqp unavailable, audit disabled", slog.Any("error", err))
		return services.NopAuditor{}
	}
	a.closers = append(a.closers, audit.Close)
	return audit
}

// NegotiationConfig is the negotiation screen tuning for operator me.
func (a *App) NegotiationConfig(me string) negotiation.Config {
	n := a.Config.Negotiation
	return negotiation.Config{
		Options: negotiation.Options{
			Me:             me,
			SuppressAIPush: true,
			AIBotEmail:     n.AIBotEmail,
			MetricsLogCap:  n.MetricsLogCap,
		},
		TypingQuiet:         n.TypingQuiet,
		RemoteTypingTimeout: n.RemoteTypingTimeout,
		MaxAttachmentBytes:  a.Config.Upload.MaxBytes,
		AutoSelectFirst:     true,
	}
}

// Close releases everything New opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
