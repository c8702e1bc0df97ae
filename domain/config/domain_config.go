package config

import "time"

// DomainConfig holds all configurable editor rules and layout constraints
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph  int
	MaxEdgesPerGraph  int
	DefaultGraphTitle string

	// Node constraints
	MaxLabelLength int
	MinLabelLength int

	// Canvas and layout
	CanvasWidth  float64
	CanvasHeight float64
	NodeWidth    float64
	NodeHeight   float64

	// Force simulation tuning
	SimulationTicks   int
	RepulsionStrength float64
	CenteringStrength float64
	CollisionRadius   float64
	LinkDistance      float64

	// Polar child placement
	ChildRadius      float64
	ChildAngleStep   float64 // degrees per sibling index
	ChildAngleOffset float64 // degrees
	ChildJitter      float64 // full jitter budget; placement uses at most half

	// Chat constraints
	ChatTimeout        time.Duration
	MaxChatMessages    int
	FallbackChatAnswer string

	// Validation settings
	AllowSelfConnections bool
	AllowDuplicateEdges  bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Graph constraints
		MaxNodesPerGraph:  10000,
		MaxEdgesPerGraph:  50000,
		DefaultGraphTitle: "Untitled Graph",

		// Node constraints
		MaxLabelLength: 200,
		MinLabelLength: 1,

		// Canvas and layout
		CanvasWidth:  1200,
		CanvasHeight: 800,
		NodeWidth:    160,
		NodeHeight:   48,

		// Force simulation tuning
		SimulationTicks:   300,
		RepulsionStrength: 1800,
		CenteringStrength: 0.05,
		CollisionRadius:   90,
		LinkDistance:      180,

		// Polar child placement
		ChildRadius:      220,
		ChildAngleStep:   30,
		ChildAngleOffset: 15,
		ChildJitter:      24,

		// Chat constraints
		ChatTimeout:        10 * time.Second,
		MaxChatMessages:    200,
		FallbackChatAnswer: "The assistant is unavailable right now. Please try again in a moment.",

		// Validation settings
		AllowSelfConnections: false,
		AllowDuplicateEdges:  false,
	}
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()

	// More permissive for development
	cfg.MaxNodesPerGraph = 100000
	cfg.MaxEdgesPerGraph = 500000
	cfg.AllowSelfConnections = true
	cfg.AllowDuplicateEdges = true
	cfg.SimulationTicks = 100

	return cfg
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()

	// More restrictive limits for production
	cfg.MaxNodesPerGraph = 5000
	cfg.MaxEdgesPerGraph = 25000

	return cfg
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
	return nil
}
