package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/adapter/codec"
	"github.com/eslsoft/vocsync/internal/adapter/remote"
	adapterrepo "github.com/eslsoft/vocsync/internal/adapter/repository"
	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/infrastructure/config"
	"github.com/eslsoft/vocsync/internal/infrastructure/database"
	"github.com/eslsoft/vocsync/internal/infrastructure/docstore"
	"github.com/eslsoft/vocsync/internal/usecase"
	"github.com/eslsoft/vocsync/internal/usecase/backup"
)

// ProvideLocalStore opens the segmented local store and makes sure its tables exist.
func ProvideLocalStore(cfg *config.Config, db *database.DB, logger *logrus.Logger) (*adapterrepo.LocalStore[*entity.WordItem], error) {
	store := adapterrepo.NewLocalStore[*entity.WordItem](db, cfg.Sync.UserID, codec.NewWordItemSegments(), logger)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}
	return store, nil
}

// ProvideRemoteStore builds the HTTP document store. It reports unavailable until
// remote.base_url and remote.token are configured.
func ProvideRemoteStore(cfg *config.Config, logger *logrus.Logger) *remote.Store[*entity.WordItem] {
	return remote.NewStore[*entity.WordItem](remote.Options{
		BaseURL: cfg.Remote.BaseURL,
		Token:   cfg.Remote.Token,
		UserID:  cfg.Sync.UserID,
		Timeout: cfg.Remote.Timeout,
	}, codec.NewWordItemDocuments(), logger)
}

// ProvideManager starts the word item sync manager; the cleanup drains its queue.
func ProvideManager(cfg *config.Config, local *adapterrepo.LocalStore[*entity.WordItem], remoteStore *remote.Store[*entity.WordItem], logger *logrus.Logger) (*WordItemManager, func()) {
	m := usecase.NewManager[*entity.WordItem](local, remoteStore, usecase.NewWordItemMerger(), usecase.ManagerOptions{
		SerializeReads: cfg.Sync.SerializeReads,
	}, logger)
	return m, m.Close
}

// ProvideWordList attaches the manager to a fresh event bus and builds the word list usecase on it.
func ProvideWordList(m *WordItemManager) usecase.WordListUsecase {
	bus := usecase.NewBroadcaster[*entity.WordItem]()
	m.Attach(bus)
	return usecase.NewWordListUsecase(bus, m)
}

// ProvideBackup builds the backup service on the manager.
func ProvideBackup(m *WordItemManager, logger *logrus.Logger) (*backup.Service, error) {
	return backup.NewService(m, logger)
}

// ProvideDocumentStore selects the word list server storage from server.store.
func ProvideDocumentStore(cfg *config.Config, logger *logrus.Logger) (docstore.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Server.Store)) {
	case "", "memory":
		logger.Warn("using in-memory document store, data is lost on restart")
		return docstore.NewMemory(), func() {}, nil
	case "postgres":
		pool, cleanup, err := database.NewConnection(cfg, logger)
		if err != nil {
			if cleanup != nil {
				cleanup()
			}
			return nil, nil, err
		}
		store := docstore.NewPostgres(pool)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate document store: %w", err)
		}
		return store, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported server.store %q", cfg.Server.Store)
	}
}
