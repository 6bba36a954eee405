package store

import (
	"fmt"

	"github.com/hadiscover/hadiscover/internal/config"
)

// Open builds the Store selected by DATABASE_TYPE.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.DatabaseType {
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.DatabasePath)
	case config.BackendPostgreSQL:
		return NewPostgresStore(cfg.DatabaseURL, cfg.DatabasePoolSize, cfg.DatabaseMaxOverflow)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, cfg.DatabaseType)
	}
}
