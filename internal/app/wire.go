//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/vocsync/internal/infrastructure/config"
	"github.com/eslsoft/vocsync/internal/infrastructure/database"
	"github.com/eslsoft/vocsync/internal/infrastructure/server"
)

var configSet = wire.NewSet(
	config.Load,
	server.NewLogger,
)

var storeSet = wire.NewSet(
	database.Open,
	ProvideLocalStore,
	ProvideRemoteStore,
)

var usecaseSet = wire.NewSet(
	ProvideManager,
	ProvideWordList,
	ProvideBackup,
)

var serverSet = wire.NewSet(
	ProvideDocumentStore,
	server.NewServer,
)

// Initialize builds the word list server container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		serverSet,
		wire.Struct(new(Container), "Logger", "Server"),
	)
	return nil, nil, nil
}

// InitializeClient builds the sync engine using Wire.
func InitializeClient() (*Client, func(), error) {
	wire.Build(
		configSet,
		storeSet,
		usecaseSet,
		wire.Struct(new(Client), "*"),
	)
	return nil, nil, nil
}
