package kv

import (
	"context"
	"fmt"

	"mindcanvas/application/ports"
	appconfig "mindcanvas/infrastructure/config"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// Backend is an opened store plus its optional change notifier
type Backend struct {
	Name     string
	Store    ports.KeyValueStore
	Notifier ports.ChangeNotifier
	closers  []func() error
}

// Close releases connections held by the backend
func (b *Backend) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open creates the backend selected by cfg.Backend. Remote backends are
// wrapped in a circuit breaker when cfg.CircuitBreaker is set.
func Open(ctx context.Context, cfg appconfig.StorageConfig, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{Name: cfg.Backend}
	remote := false

	switch cfg.Backend {
	case appconfig.BackendMemory:
		s := NewMemoryStore()
		b.Store, b.Notifier = s, s

	case appconfig.BackendFile:
		s, err := NewFileStore(cfg.Dir, logger)
		if err != nil {
			return nil, err
		}
		b.Store, b.Notifier = s, s

	case appconfig.BackendSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.Store = s
		b.closers = append(b.closers, s.Close)

	case appconfig.BackendPostgres:
		s, err := NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		b.Store = s
		b.closers = append(b.closers, s.Close)
		remote = true

	case appconfig.BackendRedis:
		s, err := NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		b.Store, b.Notifier = s, s
		b.closers = append(b.closers, s.Close)
		remote = true

	case appconfig.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		b.Store = NewDynamoDBStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable)
		remote = true

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if remote && cfg.CircuitBreaker {
		b.Store = NewBreakerStore(b.Store, DefaultBreakerConfig("storage-"+cfg.Backend), logger)
	}

	logger.Info("Storage backend opened",
		zap.String("backend", cfg.Backend),
		zap.Bool("circuitBreaker", remote && cfg.CircuitBreaker),
		zap.Bool("watchable", b.Notifier != nil),
	)
	return b, nil
}
