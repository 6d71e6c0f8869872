package main

import (
	"chat-relay/repositories"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type store struct {
	users    repositories.IUserRepository
	messages repositories.IMessageRepository
	close    func()
}

// openStore opens the configured driver. Both repositories share the same database.
func openStore(config Config, log *slog.Logger) (store, error) {
	switch config.StoreDriver {
	case storeSQLite:
		db, err := repositories.NewSQLiteStore(config.SQLiteFilepath)
		if err != nil {
			return store{}, fmt.Errorf("database opening failed: %w", err)
		}
		if config.LimitMessages != nil {
			log.Warn("LIMIT_MESSAGES is ignored by the sqlite driver")
		}
		return store{users: db, messages: db, close: func() {
			log.Info("Closing SQLite...")
			_ = db.Close()
		}}, nil
	default:
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return store{}, fmt.Errorf("database opening failed: %w", err)
		}
		users, err := repositories.NewUserRepository(db)
		if err != nil {
			_ = db.Close()
			return store{}, err
		}
		messages := repositories.NewMessageRepository(db, log, config.LimitMessages)
		return store{users: users, messages: messages, close: func() {
			log.Info("Closing BadgerDB...")
			_ = users.Close()
			_ = db.Close()
		}}, nil
	}
}
