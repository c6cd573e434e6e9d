package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/account"
	"github.com/MrEthical07/goAccount/account/memstore"
	"github.com/MrEthical07/goAccount/account/pgstore"
	"github.com/MrEthical07/goAccount/account/redisstore"
	"github.com/MrEthical07/goAccount/httpapi"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/mailer"
	promexport "github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// App owns the engine, its backends and the HTTP server.
type App struct {
	config  *Config
	logger  logging.Logger
	engine  *goAccount.Engine
	handler http.Handler
	closers []func() error
}

// NewApp wires every backend named by cfg. On error, anything already
// opened is closed.
func NewApp(ctx context.Context, cfg *Config, out io.Writer) (*App, error) {
	app := &App{config: cfg}
	ready := false
	defer func() {
		if !ready {
			app.closeBackends()
		}
	}()

	logger, err := newLogger(cfg, out)
	if err != nil {
		return nil, err
	}
	app.logger = logger

	var client redis.UniversalClient
	if cfg.Store == "redis" || cfg.RedisAddr != "" {
		client, err = app.openRedis(ctx)
		if err != nil {
			return nil, err
		}
	}

	store, err := app.openStore(ctx, client)
	if err != nil {
		return nil, err
	}

	m, err := newMailer(cfg, app.logger)
	if err != nil {
		return nil, err
	}

	engineCfg := cfg.Engine()
	builder := goAccount.New().
		WithConfig(engineCfg).
		WithStore(store).
		WithMailer(m).
		WithLogger(app.logger)
	if client != nil {
		builder = builder.WithRedis(client)
	}
	if cfg.AuditLog {
		builder = builder.WithAuditSink(goAccount.NewLogSink(app.logger))
	}
	app.engine, err = builder.Build()
	if err != nil {
		return nil, fmt.Errorf("engine init error: %w", err)
	}
	for _, w := range app.engine.SecurityReport().Warnings {
		app.logger.Warn(ctx, "security posture", "warning", w)
	}

	opts := httpapi.Options{Logger: app.logger, TrustProxy: cfg.TrustProxy}
	if cfg.MetricsEnabled {
		opts.Metrics = promexport.NewPrometheusExporter(app.engine).Handler()
	}
	app.handler = httpapi.New(app.engine, opts)
	ready = true
	return app, nil
}

func newLogger(cfg *Config, out io.Writer) (logging.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if cfg.LogFormat == "text" {
		return logging.NewText(out, level), nil
	}
	return logging.NewJSON(out, level), nil
}

// openRedis connects to cfg.RedisAddr, or starts an in-process server when
// the address is empty.
func (a *App) openRedis(ctx context.Context) (redis.UniversalClient, error) {
	addr := a.config.RedisAddr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start in-process redis: %w", err)
		}
		a.closers = append(a.closers, func() error { mr.Close(); return nil })
		addr = mr.Addr()
		a.logger.Warn(ctx, "using in-process redis; data is not persisted", "addr", addr)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	a.closers = append(a.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping error: %w", err)
	}
	return client, nil
}

func (a *App) openStore(ctx context.Context, client redis.UniversalClient) (account.Store, error) {
	switch a.config.Store {
	case "redis":
		return redisstore.New(client, a.config.RedisPrefix), nil
	case "postgres":
		db, err := pgstore.Open(ctx, a.config.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := pgstore.Migrate(ctx, db); err != nil {
			return nil, err
		}
		return pgstore.New(db), nil
	default:
		a.logger.Warn(ctx, "using in-memory store; accounts are lost on restart")
		return memstore.New(), nil
	}
}

func newMailer(cfg *Config, log logging.Logger) (mailer.Mailer, error) {
	engineCfg := cfg.Engine()
	templates := mailer.Templates{
		AppName:  cfg.AppName,
		ResetURL: cfg.ResetURL,
		CodeTTL:  engineCfg.Verification.CodeTTL,
		ResetTTL: engineCfg.PasswordReset.TokenTTL,
	}
	if cfg.Mailer != "smtp" {
		return mailer.NewLogMailer(log, templates), nil
	}
	return mailer.NewSMTP(mailer.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		From:      cfg.SMTPFrom,
		TLS:       cfg.SMTPTLS,
		Timeout:   engineCfg.Email.SendTimeout,
		Templates: templates,
	})
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.logger.Info(ctx, "starting accountd", "addr", a.config.Addr, "store", a.config.Store, "mailer", a.config.Mailer)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error(shutdownCtx, "shutdown error", "err", err)
	}
	wg.Wait()

	a.Close()
	a.logger.Info(shutdownCtx, "accountd stopped")
	return runErr
}

// Close stops the engine and releases backends.
func (a *App) Close() {
	if a.engine != nil {
		a.engine.Close()
		a.engine = nil
	}
	a.closeBackends()
}

func (a *App) closeBackends() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}
