package app

import (
	"github.com/sirupsen/logrus"

	adapterrepo "github.com/eslsoft/vocsync/internal/adapter/repository"
	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/infrastructure/config"
	"github.com/eslsoft/vocsync/internal/infrastructure/server"
	"github.com/eslsoft/vocsync/internal/usecase"
	"github.com/eslsoft/vocsync/internal/usecase/backup"
)

// WordItemManager is the sync manager for word items.
type WordItemManager = usecase.Manager[*entity.WordItem]

// Container aggregates the word list server dependencies produced by Wire.
type Container struct {
	Logger *logrus.Logger
	Server *server.Server
}

// Client aggregates the sync engine dependencies produced by Wire.
type Client struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Local    *adapterrepo.LocalStore[*entity.WordItem]
	Manager  *WordItemManager
	WordList usecase.WordListUsecase
	Backup   *backup.Service
}
