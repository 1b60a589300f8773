package main

import (
	"context"
	"fmt"
	"os"

	"mindcanvas/infrastructure/config"
	"mindcanvas/infrastructure/di"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

var (
	configFile string
	backend    string
	storageDir string
	storageKey string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "mindcanvas",
	Short:         "mindcanvas: a mind map you can drive from the browser or the terminal",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("mindcanvas {{ .Version }}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML or TOML config file (overrides CONFIG_FILE)")
	flags.StringVar(&backend, "backend", "", "storage backend: memory, file, sqlite, postgres, redis, dynamodb")
	flags.StringVar(&storageDir, "dir", "", "directory for the file backend")
	flags.StringVar(&storageKey, "key", "", "storage key of the document")
	flags.StringVar(&logLevel, "log-level", "", "log level (default from config, warn for one-shot commands)")

	rootCmd.AddCommand(
		serveCmd(),
		showCmd(),
		searchCmd(),
		exportCmd(),
		importCmd(),
		clearCmd(),
	)
}

// loadConfig applies the persistent flags over the environment config
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if storageDir != "" {
		cfg.Storage.Dir = storageDir
	}
	if storageKey != "" {
		cfg.Storage.Key = storageKey
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

// withContainer runs fn against a container with background work disabled.
// With save set the session's final save is performed on the way out.
func withContainer(ctx context.Context, save bool, fn func(*di.Container) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.AutoSave = false
	cfg.Storage.Watch = false
	if logLevel == "" {
		cfg.LogLevel = "warn"
	}

	c, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	defer cleanup()

	runErr := fn(c)
	if save && runErr == nil {
		return c.Shutdown(ctx)
	}
	c.Discard()
	return runErr
}
