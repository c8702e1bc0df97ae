//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"kgraph/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideRemoteCore,
	ProvideLogger,
	ProvideConfigWatcher,
	ProvideDomainConfig,
	ProvideKeyValueStore,
	ProvideStateStore,
	ProvideTracker,
	ProvideProjector,
	ProvideSimulator,
	ProvidePlacer,
	ProvideChatModel,
	ProvideEventSink,
	ProvideEditor,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
