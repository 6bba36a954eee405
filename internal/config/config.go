// Package config loads runtime settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hadiscover/hadiscover/internal/engine"
)

// Supported DATABASE_TYPE values.
const (
	BackendSQLite     = "sqlite"
	BackendPostgreSQL = "postgresql"
)

// Defaults applied when the environment leaves a knob unset.
const (
	DefaultDatabasePath = "./data/hadiscover.db"
	DefaultPoolSize     = 50
	DefaultMaxOverflow  = 10
	DefaultHTTPAddr     = ":8000"
	DefaultCacheSize    = 1000
)

var (
	// ErrInvalidConfig is wrapped by every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the full runtime configuration. Zero interaction with the
// environment after FromEnv returns: every consumer reads the struct.
type Config struct {
	DatabaseType        string // sqlite or postgresql
	DatabasePath        string // sqlite file path
	DatabaseURL         string // postgresql DSN
	DatabasePoolSize    int
	DatabaseMaxOverflow int

	SearchEngine       string // none, meilisearch, elasticsearch, typesense, opensearch
	SearchEngineURL    string
	SearchEngineAPIKey string

	HTTPAddr  string
	CacheSize int

	CorpusPath string // YAML corpus for index-once
}

// FromEnv reads the environment and validates the result.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseType:        strings.ToLower(getenv("DATABASE_TYPE", BackendSQLite)),
		DatabasePath:        getenv("DATABASE_PATH", DefaultDatabasePath),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DatabasePoolSize:    DefaultPoolSize,
		DatabaseMaxOverflow: DefaultMaxOverflow,
		SearchEngine:        strings.ToLower(getenv("SEARCH_ENGINE", engine.KindNone)),
		SearchEngineURL:     os.Getenv("SEARCH_ENGINE_URL"),
		SearchEngineAPIKey:  os.Getenv("SEARCH_ENGINE_API_KEY"),
		HTTPAddr:            getenv("HTTP_ADDR", DefaultHTTPAddr),
		CacheSize:           DefaultCacheSize,
		CorpusPath:          os.Getenv("CORPUS_PATH"),
	}

	var err error
	if cfg.DatabasePoolSize, err = getenvInt("DATABASE_POOL_SIZE", DefaultPoolSize); err != nil {
		return nil, err
	}
	if cfg.DatabaseMaxOverflow, err = getenvInt("DATABASE_MAX_OVERFLOW", DefaultMaxOverflow); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = getenvInt("CACHE_SIZE", DefaultCacheSize); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found. Recognized but
// unimplemented search engines fail here so a typo'd or unsupported value
// never silently disables engine routing at query time.
func (c *Config) Validate() error {
	switch c.DatabaseType {
	case BackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("%w: DATABASE_PATH required for sqlite", ErrInvalidConfig)
		}
	case BackendPostgreSQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL required for postgresql", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown DATABASE_TYPE %q", ErrInvalidConfig, c.DatabaseType)
	}

	if c.DatabasePoolSize <= 0 {
		return fmt.Errorf("%w: DATABASE_POOL_SIZE must be positive", ErrInvalidConfig)
	}
	if c.DatabaseMaxOverflow < 0 {
		return fmt.Errorf("%w: DATABASE_MAX_OVERFLOW must not be negative", ErrInvalidConfig)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("%w: CACHE_SIZE must be positive", ErrInvalidConfig)
	}

	switch c.SearchEngine {
	case "", engine.KindNone:
	case engine.KindMeilisearch:
		if c.SearchEngineURL == "" {
			return fmt.Errorf("%w: SEARCH_ENGINE_URL required for %s", ErrInvalidConfig, c.SearchEngine)
		}
	case engine.KindElasticsearch, engine.KindTypesense, engine.KindOpensearch:
		return fmt.Errorf("%w: %v: %s", ErrInvalidConfig, engine.ErrUnsupportedEngine, c.SearchEngine)
	default:
		return fmt.Errorf("%w: unknown SEARCH_ENGINE %q", ErrInvalidConfig, c.SearchEngine)
	}

	return nil
}

// EngineEnabled reports whether a search engine client should be built.
func (c *Config) EngineEnabled() bool {
	return c.SearchEngine != "" && c.SearchEngine != engine.KindNone
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfig, key, v)
	}
	return n, nil
}
