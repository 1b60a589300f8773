package di

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"mindcanvas/application/commands/bus"
	commandhandlers "mindcanvas/application/commands/handlers"
	"mindcanvas/application/ports"
	querybus "mindcanvas/application/queries/bus"
	queryhandlers "mindcanvas/application/queries/handlers"
	"mindcanvas/application/services"
	domainconfig "mindcanvas/domain/config"
	"mindcanvas/domain/core/aggregates"
	"mindcanvas/domain/core/valueobjects"
	"mindcanvas/infrastructure/config"
	"mindcanvas/infrastructure/messaging/inmemory"
	"mindcanvas/infrastructure/persistence/kv"
	"mindcanvas/interfaces/http/rest"
	pkgerrors "mindcanvas/pkg/errors"
	"mindcanvas/pkg/observability"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "mindcanvas"

// ProvideLogLevel creates the level shared by the logger and config reloads
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	return ParseLogLevel(cfg.LogLevel)
}

// ParseLogLevel turns "debug", "info", ... into an atomic level
func ParseLogLevel(name string) (zap.AtomicLevel, error) {
	if name == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	level, err := zap.ParseAtomicLevel(strings.ToLower(name))
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideDomainConfig picks the canvas rules for the environment and
// applies the storage overrides
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	dc := domainconfig.LoadDomainConfig(cfg.Environment)
	if cfg.Storage.Key != "" {
		dc.StorageKey = cfg.Storage.Key
	}
	if cfg.AutoSaveInterval > 0 {
		dc.AutoSaveInterval = cfg.AutoSaveInterval
	}
	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain config: %w", err)
	}
	return dc, nil
}

// ProvideBackend opens the configured key-value store
func ProvideBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*kv.Backend, func(), error) {
	backend, err := kv.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	cleanup := func() {
		if err := backend.Close(); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	}
	return backend, cleanup, nil
}

// ProvideKeyValueStore exposes the backend's store as the port
func ProvideKeyValueStore(backend *kv.Backend) ports.KeyValueStore {
	return backend.Store
}

// ProvideMetrics creates the prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideTracer installs OTLP tracing when enabled
func ProvideTracer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.Tracer, func(), error) {
	tracer, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Enabled:     cfg.EnableTracing,
		Endpoint:    cfg.TracingEndpoint,
		SampleRate:  1,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tracer, cleanup, nil
}

// ProvideEventBus creates the in-process event bus with its standing
// subscribers
func ProvideEventBus(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (*inmemory.EventBus, error) {
	eventBus := inmemory.NewEventBus(logger)
	if err := eventBus.Subscribe(inmemory.AllEvents, inmemory.NewLoggingHandler(logger)); err != nil {
		return nil, err
	}
	if cfg.EnableMetrics {
		if err := eventBus.Subscribe(inmemory.AllEvents, inmemory.NewMetricsHandler(metrics)); err != nil {
			return nil, err
		}
	}
	return eventBus, nil
}

// ProvideEventPublisher adapts the bus to the publisher port
func ProvideEventPublisher(eventBus *inmemory.EventBus) ports.EventPublisher {
	return eventBus
}

// ProvideGateway creates the persistence gateway
func ProvideGateway(
	store ports.KeyValueStore,
	dc *domainconfig.DomainConfig,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.PersistenceGateway {
	return services.NewPersistenceGateway(store, dc, ports.SystemClock{}, publisher, logger)
}

// ProvideMindMap creates the empty document the stored one is restored into
func ProvideMindMap(cfg *config.Config, dc *domainconfig.DomainConfig) (*aggregates.MindMap, error) {
	ids, err := valueobjects.NewIDGenerator(cfg.IDStrategy)
	if err != nil {
		return nil, err
	}
	return aggregates.NewMindMap(dc, ids), nil
}

// ProvideSession starts the session loop and restores the autosave
// document. The session is closed by Container.Shutdown.
func ProvideSession(
	ctx context.Context,
	m *aggregates.MindMap,
	gateway *services.PersistenceGateway,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) (*services.Session, error) {
	session := services.NewSession(m, gateway, publisher, logger)
	session.Start()

	restored, err := session.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore document: %w", err)
	}
	logger.Info("Session ready", zap.Bool("restored", restored), zap.String("key", gateway.Key()))
	return session, nil
}

// ProvideAutoSaver returns nil when autosave is disabled
func ProvideAutoSaver(
	cfg *config.Config,
	dc *domainconfig.DomainConfig,
	session *services.Session,
	gateway *services.PersistenceGateway,
	logger *zap.Logger,
) *services.AutoSaver {
	if !cfg.AutoSave {
		return nil
	}
	return services.NewAutoSaver(session, gateway, dc.AutoSaveInterval, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	session *services.Session,
	gateway *services.PersistenceGateway,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.TracingMiddleware(tracer),
		bus.MetricsMiddleware(metrics),
	)

	registrars := []interface{ Register(*bus.CommandBus) error }{
		commandhandlers.NewNodeHandlers(session, logger),
		commandhandlers.NewCanvasHandlers(session),
		commandhandlers.NewDocumentHandlers(session, gateway, logger),
	}
	for _, r := range registrars {
		if err := r.Register(commandBus); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	session *services.Session,
	gateway *services.PersistenceGateway,
	metrics *observability.Collector,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.NewMetricsMiddleware(metrics).Wrap)
	if err := queryhandlers.NewMindMapQueries(session, gateway).Register(queryBus); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideErrorHandler creates the HTTP error responder. Development builds
// include error causes in responses.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter creates the REST router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	metrics *observability.Collector,
	errs *pkgerrors.ErrorHandler,
	store ports.KeyValueStore,
	logger *zap.Logger,
) *rest.Router {
	var exposed *observability.Collector
	if cfg.EnableMetrics {
		exposed = metrics
	}
	var origins []string
	if cfg.EnableCORS {
		origins = cfg.AllowedOrigins
	}
	return rest.NewRouter(commandBus, queryBus, exposed, errs, logger, origins, readyCheck(store)).
		WithRateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
}

// ProvideHTTPHandler builds the routed handler
func ProvideHTTPHandler(router *rest.Router) http.Handler {
	return router.Setup()
}

// readyCheck probes the store with a read of a key nobody writes
func readyCheck(store ports.KeyValueStore) rest.ReadyCheck {
	return func(ctx context.Context) error {
		_, _, err := store.Get(ctx, "__ready__")
		return err
	}
}
