package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hadiscover/hadiscover/pkg/types"
)

// PostgresStore implements the Store interface using PostgreSQL with the
// pg_trgm extension for trigram-indexed fuzzy text matching.
type PostgresStore struct {
	db *sql.DB
}

// trgmThreshold is the minimum trigram similarity for a fuzzy match.
const trgmThreshold = 0.3

const pgSchema = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE IF NOT EXISTS repositories (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    owner TEXT NOT NULL,
    description TEXT,
    url TEXT NOT NULL UNIQUE,
    stars INTEGER DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT now(),
    updated_at TIMESTAMPTZ DEFAULT now()
);

CREATE TABLE IF NOT EXISTS automations (
    id BIGSERIAL PRIMARY KEY,
    repository_id BIGINT NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
    alias TEXT NOT NULL,
    description TEXT,
    trigger_types TEXT NOT NULL DEFAULT '',
    action_calls TEXT NOT NULL DEFAULT '',
    action_domains TEXT NOT NULL DEFAULT '',
    blueprint_path TEXT NOT NULL DEFAULT '',
    source_file_path TEXT,
    github_url TEXT,
    start_line INTEGER DEFAULT 0,
    end_line INTEGER DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT now(),
    updated_at TIMESTAMPTZ DEFAULT now(),
    UNIQUE(repository_id, alias)
);

CREATE INDEX IF NOT EXISTS idx_automations_repository ON automations(repository_id);
CREATE INDEX IF NOT EXISTS idx_automations_blueprint ON automations(blueprint_path);
CREATE INDEX IF NOT EXISTS idx_automations_alias_trgm ON automations USING gin (alias gin_trgm_ops);
CREATE INDEX IF NOT EXISTS idx_automations_desc_trgm ON automations USING gin (description gin_trgm_ops);
`

// NewPostgresStore connects to PostgreSQL and ensures the schema exists.
// poolSize and maxOverflow bound the connection pool: database/sql queues
// callers when every connection is in use rather than opening more.
func NewPostgresStore(url string, poolSize, maxOverflow int) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if poolSize <= 0 {
		poolSize = 50
	}
	if maxOverflow < 0 {
		maxOverflow = 0
	}
	db.SetMaxOpenConns(poolSize + maxOverflow)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure postgres schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// buildPostgresWhere assembles the WHERE clause with $N placeholders.
func buildPostgresWhere(q types.SearchQuery) (string, []interface{}) {
	var conds []string
	var args []interface{}

	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	if q.Term != "" {
		args = append(args, q.Term)
		p := next()
		// Trigram similarity catches typos; ILIKE catches short terms below
		// the trigram threshold. Both use the gin_trgm_ops indexes.
		conds = append(conds, fmt.Sprintf(
			"(a.alias ILIKE '%%' || %[1]s || '%%' OR a.description ILIKE '%%' || %[1]s || '%%' OR similarity(a.alias, %[1]s) > %[2]g)",
			p, trgmThreshold))
	}
	if q.TriggerFilter != "" {
		args = append(args, q.TriggerFilter)
		conds = append(conds, fmt.Sprintf("(',' || a.trigger_types || ',') LIKE '%%,' || %s || ',%%'", next()))
	}
	if q.ActionDomainFilter != "" {
		args = append(args, q.ActionDomainFilter)
		conds = append(conds, fmt.Sprintf("(',' || a.action_domains || ',') LIKE '%%,' || %s || ',%%'", next()))
	}
	if q.BlueprintOnly {
		conds = append(conds, "a.blueprint_path != ''")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Search returns one page of matching automations with the total match count
func (s *PostgresStore) Search(ctx context.Context, q types.SearchQuery) (*types.SearchPage, error) {
	where, args := buildPostgresWhere(q)

	countQuery := "SELECT COUNT(*) FROM automations a" + where
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}

	pageQuery := "SELECT" + hitColumns + `
		FROM automations a
		JOIN repositories r ON r.id = a.repository_id` + where + `
		ORDER BY r.stars DESC, a.alias ASC, a.id ASC` +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	pageArgs := append(append([]interface{}{}, args...), q.PerPage, q.Offset())

	rows, err := s.db.QueryContext(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to search automations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits, err := scanHits(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan search results: %w", err)
	}

	return &types.SearchPage{
		Hits:    hits,
		Total:   total,
		Page:    q.Page,
		PerPage: q.PerPage,
	}, nil
}

// Matching returns the complete filtered set for facet aggregation
func (s *PostgresStore) Matching(ctx context.Context, q types.SearchQuery) ([]types.SearchHit, error) {
	where, args := buildPostgresWhere(q)

	query := "SELECT" + hitColumns + `
		FROM automations a
		JOIN repositories r ON r.id = a.repository_id` + where + `
		ORDER BY a.id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load matching automations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits, err := scanHits(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan matching automations: %w", err)
	}
	return hits, nil
}

// Statistics summarizes the indexed corpus
func (s *PostgresStore) Statistics(ctx context.Context) (*types.Statistics, error) {
	stats := &types.Statistics{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM repositories").Scan(&stats.TotalRepositories)
	if err != nil {
		return nil, fmt.Errorf("failed to count repositories: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(CASE WHEN blueprint_path != '' THEN 1 END) FROM automations").
		Scan(&stats.TotalAutomations, &stats.TotalBlueprints)
	if err != nil {
		return nil, fmt.Errorf("failed to count automations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT trigger_types, action_domains FROM automations")
	if err != nil {
		return nil, fmt.Errorf("failed to scan tag columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	triggers := make(distinctTags)
	domains := make(distinctTags)
	for rows.Next() {
		var triggerCSV, domainCSV string
		if err := rows.Scan(&triggerCSV, &domainCSV); err != nil {
			return nil, err
		}
		triggers.addList(triggerCSV)
		domains.addList(domainCSV)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.TriggerTypes = len(triggers)
	stats.ActionDomains = len(domains)
	return stats, nil
}

// UpsertRepository inserts a repository or updates the row with the same URL
func (s *PostgresStore) UpsertRepository(ctx context.Context, repo *types.Repository) error {
	query := `
		INSERT INTO repositories (name, owner, description, url, stars, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT(url) DO UPDATE SET
			name = excluded.name,
			owner = excluded.owner,
			description = excluded.description,
			stars = excluded.stars,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := s.db.QueryRowContext(ctx, query,
		repo.Name, repo.Owner, repo.Description, repo.URL, repo.Stars, now).Scan(&repo.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert repository: %w", err)
	}
	repo.UpdatedAt = now
	return nil
}

// UpsertAutomation inserts an automation or updates the row with the same
// (repository, alias) pair
func (s *PostgresStore) UpsertAutomation(ctx context.Context, auto *types.Automation) error {
	if err := auto.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO automations (repository_id, alias, description, trigger_types,
			action_calls, action_domains, blueprint_path, source_file_path,
			github_url, start_line, end_line, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT(repository_id, alias) DO UPDATE SET
			description = excluded.description,
			trigger_types = excluded.trigger_types,
			action_calls = excluded.action_calls,
			action_domains = excluded.action_domains,
			blueprint_path = excluded.blueprint_path,
			source_file_path = excluded.source_file_path,
			github_url = excluded.github_url,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := s.db.QueryRowContext(ctx, query,
		auto.RepositoryID, auto.Alias, auto.Description,
		joinList(auto.TriggerTypes), joinList(auto.ActionCalls),
		joinList(auto.ActionDomains()), auto.BlueprintPath,
		auto.SourceFilePath, auto.GitHubURL, auto.StartLine, auto.EndLine,
		now).Scan(&auto.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert automation: %w", err)
	}
	auto.UpdatedAt = now
	return nil
}
