// Package bootstrap holds the startup and shutdown sequence every binary in
// cmd/ shares: .env loading, config, logger and the shared connections.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	"github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/instance"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/migrate"
	"github.com/angelmondragon/tandemflight-backend/pkg/pubsub"
	"github.com/angelmondragon/tandemflight-backend/pkg/redis"
)

type closer struct {
	name string
	fn   func() error
}

// Process is one running binary. Resources opened through it are closed in
// reverse order by Close, and also before Fail exits.
type Process struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger

	closers []closer
	exit    func(int)
}

// Start loads .env and config, then rebuilds the logger at the configured
// level. It exits the process when config cannot be loaded.
func Start(kind string) *Process {
	p := &Process{
		Kind:   kind,
		Logger: logger.New(logger.Options{ServiceName: kind}),
		exit:   os.Exit,
	}
	if err := godotenv.Load(); err != nil {
		p.Logger.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	p.Must("config", err)
	p.use(cfg)
	return p
}

func (p *Process) use(cfg *config.Config) {
	cfg.Service.Kind = p.Kind
	p.Config = cfg
	p.Logger = logger.New(logger.Options{
		ServiceName: p.Kind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
}

// Must stops the process when a required resource failed to come up.
func (p *Process) Must(resource string, err error) {
	if err == nil {
		return
	}
	p.Fail(fmt.Sprintf("resource not working: %s", resource), err)
}

// Fail logs err, releases everything opened so far and exits with status 1.
func (p *Process) Fail(msg string, err error) {
	p.Logger.Error(context.Background(), msg, err)
	p.Close()
	p.exit(1)
}

// OnClose registers fn to run during Close.
func (p *Process) OnClose(name string, fn func() error) {
	p.closers = append(p.closers, closer{name: name, fn: fn})
}

// Close runs the registered closers newest first. It is safe to call twice.
func (p *Process) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		c := p.closers[i]
		if err := c.fn(); err != nil {
			p.Logger.Error(context.Background(), fmt.Sprintf("error closing %s", c.name), err)
		}
	}
	p.closers = nil
}

// DB opens the Postgres pool and applies dev migrations when enabled.
func (p *Process) DB(ctx context.Context) *db.Client {
	client, err := db.New(ctx, p.Config.DB, p.Logger)
	p.Must("database", err)
	p.OnClose("database", client.Close)
	p.Must("dev migrations", migrate.MaybeRunDev(ctx, p.Config, p.Logger, client))
	return client
}

func (p *Process) Redis(ctx context.Context) *redis.Client {
	client, err := redis.New(ctx, p.Config.Redis, p.Logger)
	p.Must("redis", err)
	p.OnClose("redis", client.Close)
	return client
}

func (p *Process) PubSub(ctx context.Context) *pubsub.Client {
	client, err := pubsub.NewClient(ctx, p.Config.GCP, p.Config.PubSub, p.Logger)
	p.Must("pubsub", err)
	p.OnClose("pubsub", client.Close)
	return client
}

// SignalContext is canceled on SIGINT or SIGTERM and carries the process
// identity as log fields.
func (p *Process) SignalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return p.Logger.WithFields(ctx, p.identity()), stop
}

func (p *Process) identity() map[string]any {
	return map[string]any{
		"env":         p.Config.App.Env,
		"serviceKind": p.Kind,
		"instance":    instance.GetID(p.Kind),
	}
}

// Wait treats context cancellation as a clean stop and fails on anything else.
func (p *Process) Wait(ctx context.Context, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		p.Fail(p.Kind+" stopped unexpectedly", err)
		return
	}
	p.Logger.Info(ctx, p.Kind+" shutting down gracefully")
	p.Close()
}
