// Package di wires the application together
package di

import (
	"context"
	"net/http"

	"mindcanvas/application/commands/bus"
	querybus "mindcanvas/application/queries/bus"
	"mindcanvas/application/services"
	domainconfig "mindcanvas/domain/config"
	"mindcanvas/infrastructure/config"
	"mindcanvas/infrastructure/messaging/inmemory"
	"mindcanvas/infrastructure/persistence/kv"
	"mindcanvas/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	LogLevel     zap.AtomicLevel
	Backend      *kv.Backend
	EventBus     *inmemory.EventBus
	Gateway      *services.PersistenceGateway
	Session      *services.Session
	AutoSaver    *services.AutoSaver
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Metrics      *observability.Collector
	Tracer       *observability.Tracer
	Handler      http.Handler

	watcher *config.Watcher
	cancel  context.CancelFunc
}

// Start launches the background work: autosave, following external writes
// to the stored document and config hot reload.
func (c *Container) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	if c.AutoSaver != nil {
		c.AutoSaver.Start(ctx)
	}

	if c.Config.Storage.Watch {
		if c.Backend.Notifier == nil {
			c.Logger.Warn("Storage backend cannot be watched", zap.String("backend", c.Backend.Name))
		} else if err := c.Session.Follow(ctx, c.Backend.Notifier); err != nil {
			c.Logger.Warn("Failed to follow stored document", zap.Error(err))
		}
	}

	if c.Config.ConfigFile != "" {
		w, err := config.NewWatcher(c.Config, nil, c.Logger)
		if err != nil {
			c.Logger.Warn("Configuration hot reload unavailable", zap.Error(err))
			return
		}
		w.OnChange(c.applyConfig)
		c.watcher = w
	}
}

// applyConfig takes the settings that can change without a restart
func (c *Container) applyConfig(next *config.Config) {
	level, err := ParseLogLevel(next.LogLevel)
	if err != nil {
		c.Logger.Warn("Ignoring reloaded log level", zap.Error(err))
		return
	}
	if level.Level() != c.LogLevel.Level() {
		c.LogLevel.SetLevel(level.Level())
		c.Logger.Info("Log level changed", zap.String("level", level.String()))
	}
}

// Shutdown stops background work, then saves and closes the session. The
// autosaver stops first so none of its writes lands after the final save.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	if c.AutoSaver != nil {
		c.AutoSaver.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}
	err := c.Session.Close(ctx)
	_ = c.Logger.Sync()
	return err
}

// Discard stops background work without the final save. One-shot commands
// that must not rewrite the stored document use it instead of Shutdown.
func (c *Container) Discard() {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	if c.AutoSaver != nil {
		c.AutoSaver.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}
	_ = c.Logger.Sync()
}
