package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.DatabaseType)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, DefaultPoolSize, cfg.DatabasePoolSize)
	assert.Equal(t, DefaultMaxOverflow, cfg.DatabaseMaxOverflow)
	assert.Equal(t, "none", cfg.SearchEngine)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DefaultCacheSize, cfg.CacheSize)
	assert.False(t, cfg.EngineEnabled())
}

func TestFromEnvPostgres(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "PostgreSQL")
	t.Setenv("DATABASE_URL", "postgres://ha:ha@localhost:5432/hadiscover")
	t.Setenv("DATABASE_POOL_SIZE", "20")
	t.Setenv("DATABASE_MAX_OVERFLOW", "5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgreSQL, cfg.DatabaseType)
	assert.Equal(t, 20, cfg.DatabasePoolSize)
	assert.Equal(t, 5, cfg.DatabaseMaxOverflow)
}

func TestFromEnvPostgresRequiresURL(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "postgresql")

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFromEnvUnknownBackend(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "mongodb")

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFromEnvMeilisearch(t *testing.T) {
	t.Setenv("SEARCH_ENGINE", "meilisearch")
	t.Setenv("SEARCH_ENGINE_URL", "http://localhost:7700")
	t.Setenv("SEARCH_ENGINE_API_KEY", "masterKey")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.EngineEnabled())
	assert.Equal(t, "masterKey", cfg.SearchEngineAPIKey)
}

func TestFromEnvMeilisearchRequiresURL(t *testing.T) {
	t.Setenv("SEARCH_ENGINE", "meilisearch")

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFromEnvUnimplementedEngineFailsFast(t *testing.T) {
	for _, kind := range []string{"elasticsearch", "typesense", "opensearch"} {
		t.Setenv("SEARCH_ENGINE", kind)
		t.Setenv("SEARCH_ENGINE_URL", "http://localhost:9200")

		_, err := FromEnv()
		assert.ErrorIs(t, err, ErrInvalidConfig, kind)
	}
}

func TestFromEnvBadInteger(t *testing.T) {
	t.Setenv("DATABASE_POOL_SIZE", "fifty")

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidateBounds(t *testing.T) {
	cfg := &Config{DatabaseType: BackendSQLite, DatabasePath: "x.db", DatabasePoolSize: 0, CacheSize: 10}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = &Config{DatabaseType: BackendSQLite, DatabasePath: "x.db", DatabasePoolSize: 1, DatabaseMaxOverflow: -1, CacheSize: 10}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = &Config{DatabaseType: BackendSQLite, DatabasePath: "x.db", DatabasePoolSize: 1, CacheSize: 0}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
