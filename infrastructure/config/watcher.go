package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domainconfig "kgraph/domain/config"
)

// DynamicConfig represents runtime-changeable editor tuning. It is
// loaded from a YAML file and overlaid onto the domain configuration;
// zero values mean "keep the current setting".
type DynamicConfig struct {
	Limits LimitsConfig `yaml:"limits"`
	Layout LayoutConfig `yaml:"layout"`
	Chat   ChatConfig   `yaml:"chat"`
}

// LimitsConfig holds graph size limits
type LimitsConfig struct {
	MaxNodesPerGraph int `yaml:"maxNodesPerGraph"`
	MaxEdgesPerGraph int `yaml:"maxEdgesPerGraph"`
	MaxLabelLength   int `yaml:"maxLabelLength"`
}

// LayoutConfig holds force simulation and child placement tuning
type LayoutConfig struct {
	SimulationTicks   int     `yaml:"simulationTicks"`
	RepulsionStrength float64 `yaml:"repulsionStrength"`
	LinkDistance      float64 `yaml:"linkDistance"`
	ChildRadius       float64 `yaml:"childRadius"`
	ChildAngleStep    float64 `yaml:"childAngleStep"`
}

// ChatConfig holds chat collaborator tuning
type ChatConfig struct {
	TimeoutMs      int    `yaml:"timeoutMs"`
	MaxMessages    int    `yaml:"maxMessages"`
	FallbackAnswer string `yaml:"fallbackAnswer"`
}

// ApplyTo overlays the non-zero dynamic settings onto a domain config
func (d *DynamicConfig) ApplyTo(cfg *domainconfig.DomainConfig) {
	if d.Limits.MaxNodesPerGraph > 0 {
		cfg.MaxNodesPerGraph = d.Limits.MaxNodesPerGraph
	}
	if d.Limits.MaxEdgesPerGraph > 0 {
		cfg.MaxEdgesPerGraph = d.Limits.MaxEdgesPerGraph
	}
	if d.Limits.MaxLabelLength > 0 {
		cfg.MaxLabelLength = d.Limits.MaxLabelLength
	}
	if d.Layout.SimulationTicks > 0 {
		cfg.SimulationTicks = d.Layout.SimulationTicks
	}
	if d.Layout.RepulsionStrength > 0 {
		cfg.RepulsionStrength = d.Layout.RepulsionStrength
	}
	if d.Layout.LinkDistance > 0 {
		cfg.LinkDistance = d.Layout.LinkDistance
	}
	if d.Layout.ChildRadius > 0 {
		cfg.ChildRadius = d.Layout.ChildRadius
	}
	if d.Layout.ChildAngleStep > 0 {
		cfg.ChildAngleStep = d.Layout.ChildAngleStep
	}
	if d.Chat.TimeoutMs > 0 {
		cfg.ChatTimeout = time.Duration(d.Chat.TimeoutMs) * time.Millisecond
	}
	if d.Chat.MaxMessages > 0 {
		cfg.MaxChatMessages = d.Chat.MaxMessages
	}
	if d.Chat.FallbackAnswer != "" {
		cfg.FallbackChatAnswer = d.Chat.FallbackAnswer
	}
}

// Validate rejects dynamic settings that would break the editor
func (d *DynamicConfig) Validate() error {
	if d.Limits.MaxNodesPerGraph < 0 {
		return fmt.Errorf("maxNodesPerGraph cannot be negative")
	}
	if d.Limits.MaxEdgesPerGraph < 0 {
		return fmt.Errorf("maxEdgesPerGraph cannot be negative")
	}
	if d.Layout.SimulationTicks < 0 || d.Layout.SimulationTicks > 10000 {
		return fmt.Errorf("simulationTicks must be between 0 and 10000")
	}
	if d.Chat.TimeoutMs < 0 {
		return fmt.Errorf("chat timeoutMs cannot be negative")
	}
	return nil
}

// ConfigWatcher watches the dynamic tuning file for changes
type ConfigWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  *DynamicConfig
	mu       sync.RWMutex
	onChange []func(*DynamicConfig)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewConfigWatcher loads the tuning file and starts watching it.
// Watching the parent directory as well catches editors that save by
// writing a temp file and renaming it over the original.
func NewConfigWatcher(configPath string, logger *zap.Logger) (*ConfigWatcher, error) {
	current, err := loadDynamicConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(configPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		logger.Warn("failed to watch config directory", zap.Error(err))
	}

	return &ConfigWatcher{
		path:     configPath,
		watcher:  watcher,
		current:  current,
		onChange: make([]func(*DynamicConfig), 0),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching for configuration changes
func (w *ConfigWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes
func (w *ConfigWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

// OnChange registers a callback for configuration changes
func (w *ConfigWatcher) OnChange(handler func(*DynamicConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the current dynamic configuration
func (w *ConfigWatcher) Current() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *ConfigWatcher) watchLoop() {
	var debounce *time.Timer
	const debounceWindow = 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceWindow, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))
		}
	}
}

// reload re-reads the tuning file; an unreadable or invalid file keeps
// the current settings in place.
func (w *ConfigWatcher) reload() {
	next, err := loadDynamicConfig(w.path)
	if err != nil {
		w.logger.Error("failed to reload configuration", zap.Error(err))
		return
	}
	if err := next.Validate(); err != nil {
		w.logger.Error("invalid configuration, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = next
	handlers := make([]func(*DynamicConfig), len(w.onChange))
	copy(handlers, w.onChange)
	w.mu.Unlock()

	for _, handler := range handlers {
		go handler(next)
	}
	w.logger.Info("configuration reloaded", zap.String("path", w.path))
}

func loadDynamicConfig(path string) (*DynamicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg DynamicConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
