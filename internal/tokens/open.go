package tokens

import (
	"fmt"

	"github.com/desertthunder/upl/internal/shared"
)

// Open returns the [Store] selected by cfg.Backend.
//
// The sqlite backend opens its own database at cfg.Path and applies the shared migrations.
func Open(cfg shared.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &SQLiteStore{db: db, owned: true}, nil
	case "bolt":
		return OpenBoltStore(cfg.Path)
	case "keyring":
		return NewKeyringStore(cfg.KeyringService), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownBackend, cfg.Backend)
	}
}
