// Package di wires the application together. Providers are consumed by
// wire to generate InitializeContainer; the Container owns shutdown
// ordering for everything it built.
package di

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	hackos "github.com/hack-pad/hackpadfs/os"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kgraph/application/editor"
	"kgraph/application/layout"
	"kgraph/application/ports"
	"kgraph/application/projection"
	"kgraph/application/selection"
	domaincfg "kgraph/domain/config"
	"kgraph/infrastructure/config"
	"kgraph/infrastructure/llm"
	"kgraph/infrastructure/logging"
	"kgraph/infrastructure/persistence"
	"kgraph/infrastructure/persistence/kv"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domaincfg.DomainConfig
	Logger       *zap.Logger
	RemoteCore   *logging.RemoteCore
	Watcher      *config.ConfigWatcher
	Store        ports.KeyValueStore
	States       *persistence.StateStore
	Editor       *editor.Editor
}

// Shutdown releases everything the container owns, editor first so that
// no effect is still running when the store closes.
func (c *Container) Shutdown(ctx context.Context) error {
	c.Editor.Close()
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.RemoteCore != nil {
		c.RemoteCore.Close()
	}
	err := c.Store.Close()
	_ = c.Logger.Sync()
	return err
}

// ProvideRemoteCore creates the remote log core when a sink is configured
func ProvideRemoteCore(cfg *config.Config) *logging.RemoteCore {
	if cfg.LogSinkURL == "" {
		return nil
	}
	return logging.NewRemoteCore(cfg.LogSinkURL, zapcore.InfoLevel)
}

// ProvideLogger creates the application logger, teed into the remote
// sink when one is configured
func ProvideLogger(cfg *config.Config, remote *logging.RemoteCore) (*zap.Logger, error) {
	logger, err := logging.NewLogger(cfg.Environment)
	if err != nil {
		return nil, err
	}
	if remote != nil {
		logger = logging.WithRemoteSink(logger, remote)
	}
	return logger, nil
}

// ProvideConfigWatcher creates the dynamic tuning watcher, or nil when
// no tuning file is configured
func ProvideConfigWatcher(cfg *config.Config, logger *zap.Logger) (*config.ConfigWatcher, error) {
	if cfg.DynamicConfigPath == "" {
		return nil, nil
	}
	watcher, err := config.NewConfigWatcher(cfg.DynamicConfigPath, logger)
	if err != nil {
		return nil, err
	}
	watcher.Start()
	return watcher, nil
}

// ProvideDomainConfig builds the editor rules for the environment and
// overlays the dynamic tuning file once at startup. Live reloads are
// registered in ProvideEditor and routed through the editor's dispatch
// lock, so nothing mutates the shared config from the watcher goroutine.
func ProvideDomainConfig(cfg *config.Config, watcher *config.ConfigWatcher) *domaincfg.DomainConfig {
	domain := domaincfg.LoadDomainConfig(cfg.Environment)
	if watcher != nil {
		watcher.Current().ApplyTo(domain)
	}
	return domain
}

// ProvideKeyValueStore creates the persistence backend selected by
// STORAGE_DRIVER
func ProvideKeyValueStore(cfg *config.Config) (ports.KeyValueStore, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return kv.NewMemoryStore(), nil

	case config.DriverFile:
		abs, err := filepath.Abs(cfg.StorageDir)
		if err != nil {
			return nil, err
		}
		// hackpadfs paths are unrooted
		dir := strings.TrimPrefix(filepath.ToSlash(abs), "/")
		return kv.NewFileStore(hackos.NewFS(), dir)

	case config.DriverSQLite:
		return kv.NewSQLiteStore(cfg.SQLitePath)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// ProvideStateStore creates the persistence adapter over the key-value store
func ProvideStateStore(store ports.KeyValueStore, logger *zap.Logger) *persistence.StateStore {
	return persistence.NewStateStore(store, logger)
}

// ProvideTracker creates the selection tracker
func ProvideTracker(logger *zap.Logger) *selection.Tracker {
	return selection.NewTracker(logger)
}

// ProvideProjector creates the render projection
func ProvideProjector(logger *zap.Logger) *projection.Projector {
	return projection.NewProjector(logger)
}

// ProvideSimulator creates the force-directed layout simulator
func ProvideSimulator(domain *domaincfg.DomainConfig) layout.Simulator {
	return layout.NewForceSimulator(domain, rand.NewSource(time.Now().UnixNano()))
}

// ProvidePlacer creates the polar child placer
func ProvidePlacer(domain *domaincfg.DomainConfig) *layout.PolarPlacer {
	return layout.NewPolarPlacer(domain, rand.NewSource(time.Now().UnixNano()))
}

// ProvideChatModel creates the chat collaborator client
func ProvideChatModel(cfg *config.Config) ports.ChatModel {
	return llm.NewOpenRouterClient(llm.Config{
		BaseURL: cfg.ChatBaseURL,
		APIKey:  cfg.ChatAPIKey,
		Model:   cfg.ChatModel,
		Timeout: time.Duration(cfg.ChatTimeoutMs) * time.Millisecond,
	})
}

// ProvideEventSink creates the log-backed domain event sink
func ProvideEventSink(logger *zap.Logger) ports.EventSink {
	return logging.NewEventSink(logger)
}

// ProvideEditor creates the editor runtime and hooks dynamic tuning
// reloads into it, serialized with event dispatch
func ProvideEditor(
	cfg *config.Config,
	domain *domaincfg.DomainConfig,
	watcher *config.ConfigWatcher,
	states *persistence.StateStore,
	tracker *selection.Tracker,
	projector *projection.Projector,
	simulator layout.Simulator,
	placer *layout.PolarPlacer,
	chat ports.ChatModel,
	events ports.EventSink,
	logger *zap.Logger,
) *editor.Editor {
	ed := editor.New(editor.Params{
		Config:         domain,
		States:         states,
		Tracker:        tracker,
		Projector:      projector,
		Simulator:      simulator,
		Placer:         placer,
		Chat:           chat,
		Events:         events,
		Logger:         logger,
		ViewportWindow: time.Duration(cfg.ViewportThrottleMs) * time.Millisecond,
	})
	if watcher != nil {
		watcher.OnChange(func(next *config.DynamicConfig) {
			ed.ApplyTuning(next.ApplyTo)
		})
	}
	return ed
}
