// Command authgated serves the account authentication HTTP API backed
// by Redis and either an in-memory or PostgreSQL credential store.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/halcyondev/authgate"
	"github.com/halcyondev/authgate/httpd"
	"github.com/halcyondev/authgate/mail"
	"github.com/halcyondev/authgate/memstore"
	promexport "github.com/halcyondev/authgate/metrics/export/prometheus"
	"github.com/halcyondev/authgate/pgstore"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flags := newFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("connected to redis", "addr", cfg.Redis.Addr)

	credentials, cleanup, err := newCredentialStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return err
	}

	engineCfg := authgate.DefaultConfig()
	engineCfg.JWT.SigningMethod = cfg.JWT.SigningMethod
	engineCfg.JWT.Issuer = cfg.JWT.Issuer
	engineCfg.JWT.AccessTTL = cfg.JWT.AccessTTL
	switch cfg.JWT.SigningMethod {
	case "hs256":
		if cfg.JWT.Secret == "" {
			return errors.New("hs256 requires jwt.secret")
		}
		engineCfg.JWT.PrivateKey = []byte(cfg.JWT.Secret)
		engineCfg.JWT.PublicKey = []byte(cfg.JWT.Secret)
	case "ed25519":
		engineCfg.JWT.PrivateKey = []byte(cfg.JWT.PrivateKey)
		engineCfg.JWT.PublicKey = []byte(cfg.JWT.PublicKey)
	default:
		return fmt.Errorf("unknown signing method %q", cfg.JWT.SigningMethod)
	}
	engineCfg.Audit.Enabled = cfg.Audit.Enabled
	engineCfg.Metrics.Enabled = cfg.Metrics.Enabled

	builder := authgate.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithCredentialStore(credentials).
		WithMailer(mailer)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(authgate.NewJSONWriterSink(os.Stdout))
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	server := httpd.NewServer(httpd.Config{}, engine,
		httpd.WithLogger(logger),
		httpd.WithMetricsHandler(promexport.NewExporter(engine).Handler()),
		httpd.WithPinger(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}),
	)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(cfg fileConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Log.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("log format %q", cfg.Log.Format)
	}
	return slog.New(handler), nil
}

func newCredentialStore(ctx context.Context, cfg fileConfig) (authgate.CredentialStore, func(), error) {
	switch cfg.Store {
	case "postgres":
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres ping: %w", err)
		}
		slog.Info("connected to postgres")
		return pgstore.New(db), func() { _ = db.Close() }, nil
	default:
		return memstore.New(), func() {}, nil
	}
}

func newMailer(cfg fileConfig, logger *slog.Logger) (authgate.Mailer, error) {
	switch cfg.Mailer {
	case "smtp":
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Subject:  cfg.SMTP.Subject,
		})
	default:
		return mail.NewLogSender(logger), nil
	}
}
