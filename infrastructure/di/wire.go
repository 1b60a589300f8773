//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"mindcanvas/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideDomainConfig,
	ProvideBackend,
	ProvideKeyValueStore,
	ProvideMetrics,
	ProvideTracer,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideGateway,
	ProvideMindMap,
	ProvideSession,
	ProvideAutoSaver,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideErrorHandler,
	ProvideRouter,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "Config", "DomainConfig", "Logger", "LogLevel", "Backend",
		"EventBus", "Gateway", "Session", "AutoSaver", "CommandBus", "QueryBus",
		"Metrics", "Tracer", "Handler"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
