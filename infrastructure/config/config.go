package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mindcanvas/pkg/utils"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address" toml:"server_address"`
	Environment   string `yaml:"environment" toml:"environment"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage" toml:"storage"`

	// Document behaviour
	AutoSave         bool          `yaml:"autosave" toml:"autosave"`
	AutoSaveInterval time.Duration `yaml:"autosave_interval" toml:"autosave_interval"`
	IDStrategy       string        `yaml:"id_strategy" toml:"id_strategy"`

	// Lambda configuration
	IsLambda bool `yaml:"-" toml:"-"`

	// Logging
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// Feature flags
	EnableMetrics   bool     `yaml:"enable_metrics" toml:"enable_metrics"`
	EnableTracing   bool     `yaml:"enable_tracing" toml:"enable_tracing"`
	TracingEndpoint string   `yaml:"tracing_endpoint" toml:"tracing_endpoint"`
	EnableCORS      bool     `yaml:"enable_cors" toml:"enable_cors"`
	AllowedOrigins  []string `yaml:"allowed_origins" toml:"allowed_origins"`

	// Requests per minute per client on /api/v1, 0 disables
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" toml:"rate_limit_per_minute"`
	RateLimitBurst     int `yaml:"rate_limit_burst" toml:"rate_limit_burst"`

	// ConfigFile is the file the configuration was overlaid from, if any
	ConfigFile string `yaml:"-" toml:"-"`
}

// StorageConfig selects and configures the key-value backend
type StorageConfig struct {
	Backend     string `yaml:"backend" toml:"backend"`
	Key         string `yaml:"key" toml:"key"`
	Dir         string `yaml:"dir" toml:"dir"`
	SQLitePath  string `yaml:"sqlite_path" toml:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url" toml:"postgres_url"`
	RedisURL    string `yaml:"redis_url" toml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix" toml:"redis_prefix"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region" toml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table" toml:"dynamodb_table"`

	CircuitBreaker bool `yaml:"circuit_breaker" toml:"circuit_breaker"`
	Watch          bool `yaml:"watch" toml:"watch"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerAddress:    ":8080",
		Environment:      "development",
		AutoSave:         true,
		AutoSaveInterval: 5 * time.Second,
		IDStrategy:       "timestamp",
		LogLevel:         "info",
		EnableCORS:       true,
		AllowedOrigins:   []string{"*"},
		Storage: StorageConfig{
			Backend:        BackendFile,
			Dir:            defaultDataDir(),
			SQLitePath:     filepath.Join(defaultDataDir(), "mindcanvas.db"),
			RedisURL:       "redis://localhost:6379/0",
			RedisPrefix:    "mindcanvas:",
			AWSRegion:      "us-west-2",
			DynamoDBTable:  "mindcanvas",
			CircuitBreaker: true,
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "mindcanvas")
	}
	return ".mindcanvas"
}

// LoadConfig loads defaults, then the file named by CONFIG_FILE (if any),
// then environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// LoadFile overlays the YAML or TOML file at path onto cfg. The format is
// chosen by extension.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}

	cfg.ConfigFile = path
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.AutoSave = getEnvBool("AUTOSAVE", cfg.AutoSave)
	cfg.AutoSaveInterval = getEnvDuration("AUTOSAVE_INTERVAL", cfg.AutoSaveInterval)
	cfg.IDStrategy = getEnv("ID_STRATEGY", cfg.IDStrategy)

	s := &cfg.Storage
	s.Backend = getEnv("STORAGE_BACKEND", s.Backend)
	s.Key = getEnv("STORAGE_KEY", s.Key)
	s.Dir = getEnv("STORAGE_DIR", s.Dir)
	s.SQLitePath = getEnv("SQLITE_PATH", s.SQLitePath)
	s.PostgresURL = getEnv("DATABASE_URL", s.PostgresURL)
	s.RedisURL = getEnv("REDIS_URL", s.RedisURL)
	s.RedisPrefix = getEnv("REDIS_PREFIX", s.RedisPrefix)
	s.AWSRegion = getEnv("AWS_REGION", s.AWSRegion)
	s.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", s.DynamoDBTable))
	s.CircuitBreaker = getEnvBool("STORAGE_CIRCUIT_BREAKER", s.CircuitBreaker)
	s.Watch = getEnvBool("STORAGE_WATCH", s.Watch)

	// Lambda configuration
	cfg.IsLambda = getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.EnableTracing)
	cfg.TracingEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.TracingEndpoint)
	cfg.EnableCORS = getEnvBool("ENABLE_CORS", cfg.EnableCORS)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite, BackendPostgres, BackendDynamoDB:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendPostgres && c.Storage.PostgresURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}
	if c.Storage.Backend == BackendDynamoDB && c.Storage.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.AutoSave && c.AutoSaveInterval <= 0 {
		return fmt.Errorf("autosave interval must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5s") or plain milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := utils.ParseDurationOrMillis(value); err == nil {
		return d
	}
	return defaultValue
}
