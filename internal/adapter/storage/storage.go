// Package storage selects the basket's persistence backend.
package storage

import (
	"fmt"

	"github.com/couchcryptid/flood-report-basket/internal/adapter/filestore"
	"github.com/couchcryptid/flood-report-basket/internal/adapter/sqlite"
	"github.com/couchcryptid/flood-report-basket/internal/basket"
	"github.com/couchcryptid/flood-report-basket/internal/config"
)

// Settings identifies a storage slot on a backend.
type Settings struct {
	Backend    string // config.StorageFile or config.StorageSQLite
	Dir        string
	SQLitePath string
	Slot       string
}

// SettingsFromConfig extracts storage settings from service configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Backend:    cfg.StorageBackend,
		Dir:        cfg.StorageDir,
		SQLitePath: cfg.SQLitePath,
		Slot:       cfg.StorageSlot,
	}
}

// Open returns the slot for s and a function that releases it.
func Open(s Settings) (basket.Storage, func() error, error) {
	switch s.Backend {
	case config.StorageFile, "":
		return filestore.New(s.Dir, s.Slot), func() error { return nil }, nil
	case config.StorageSQLite:
		db, err := sqlite.Open(s.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewSlot(db, s.Slot), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}
