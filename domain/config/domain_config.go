package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable canvas rules and constraints
type DomainConfig struct {
	// Node sizing
	DefaultNodeWidth  float64
	DefaultNodeHeight float64
	MinNodeWidth      float64
	MinNodeHeight     float64

	// Content defaults
	DefaultTitle       string
	NewNodeTitle       string
	DefaultDescription string

	// Initial document
	InitialNodeID    string
	InitialNodeTitle string
	InitialNodeX     float64
	InitialNodeY     float64

	// Viewport
	MinZoom  float64
	MaxZoom  float64
	ZoomStep float64

	// Connection geometry, canvas units
	EdgeAnchorOffsetX float64
	EdgeAnchorOffsetY float64
	EdgeControlOffset float64

	// Connection policy
	AllowSelfConnections      bool
	AllowDuplicateConnections bool
	MaxNodesPerDocument       int

	// Persistence
	DocumentVersion  string
	StorageKey       string
	AutoSaveInterval time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		DefaultNodeWidth:  300,
		DefaultNodeHeight: 200,
		MinNodeWidth:      200,
		MinNodeHeight:     150,

		DefaultTitle:       "Untitled",
		NewNodeTitle:       "New Task",
		DefaultDescription: "Click to edit description",

		InitialNodeID:    "1",
		InitialNodeTitle: "My Mindmap Todo",
		InitialNodeX:     400,
		InitialNodeY:     200,

		MinZoom:  0.3,
		MaxZoom:  3.0,
		ZoomStep: 0.1,

		EdgeAnchorOffsetX: 120,
		EdgeAnchorOffsetY: 60,
		EdgeControlOffset: 50,

		AllowSelfConnections:      false,
		AllowDuplicateConnections: true,
		MaxNodesPerDocument:       0, // unlimited

		DocumentVersion:  "1.0.0",
		StorageKey:       "mindmap-autosave",
		AutoSaveInterval: 5 * time.Second,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Keep hosted documents bounded
	config.MaxNodesPerDocument = 5000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.AllowSelfConnections = true
	config.AutoSaveInterval = 2 * time.Second

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MinNodeWidth <= 0 || c.MinNodeHeight <= 0 {
		return fmt.Errorf("minimum node size must be positive")
	}
	if c.DefaultNodeWidth < c.MinNodeWidth || c.DefaultNodeHeight < c.MinNodeHeight {
		return fmt.Errorf("default node size %.0fx%.0f is below the minimum %.0fx%.0f",
			c.DefaultNodeWidth, c.DefaultNodeHeight, c.MinNodeWidth, c.MinNodeHeight)
	}
	if c.MinZoom <= 0 || c.MinZoom > c.MaxZoom {
		return fmt.Errorf("invalid zoom range [%g, %g]", c.MinZoom, c.MaxZoom)
	}
	if c.ZoomStep <= 0 {
		return fmt.Errorf("zoom step must be positive")
	}
	if c.StorageKey == "" {
		return fmt.Errorf("storage key is required")
	}
	if c.AutoSaveInterval <= 0 {
		return fmt.Errorf("autosave interval must be positive")
	}
	return nil
}
