package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hadiscover/hadiscover/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite. Text matching is
// LIKE pattern scanning: cost grows with corpus size, which is exactly why
// the cache layer exists. The PostgreSQL backend is the answer at scale.
type SQLiteStore struct {
	db *sql.DB
}

// openSQLite opens a SQLite database with appropriate settings
func openSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database file is accessible
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// buildWhere assembles the WHERE clause and args for a normalized query.
func buildSQLiteWhere(q types.SearchQuery) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if q.Term != "" {
		// Substring pattern scan over alias and description. Deliberately
		// unindexed: LIKE '%term%' cannot use a btree index.
		conds = append(conds, "(LOWER(a.alias) LIKE '%' || ? || '%' OR LOWER(a.description) LIKE '%' || ? || '%')")
		args = append(args, q.Term, q.Term)
	}
	if q.TriggerFilter != "" {
		conds = append(conds, "(',' || a.trigger_types || ',') LIKE '%,' || ? || ',%'")
		args = append(args, q.TriggerFilter)
	}
	if q.ActionDomainFilter != "" {
		conds = append(conds, "(',' || a.action_domains || ',') LIKE '%,' || ? || ',%'")
		args = append(args, q.ActionDomainFilter)
	}
	if q.BlueprintOnly {
		conds = append(conds, "a.blueprint_path != ''")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const hitColumns = `
	a.id, a.repository_id, a.alias, a.description, a.trigger_types,
	a.action_calls, a.blueprint_path, a.source_file_path, a.github_url,
	a.start_line, a.end_line, a.created_at, a.updated_at,
	r.id, r.name, r.owner, r.description, r.url, r.stars, r.created_at, r.updated_at`

// scanHits reads joined automation+repository rows.
func scanHits(rows *sql.Rows) ([]types.SearchHit, error) {
	var hits []types.SearchHit
	for rows.Next() {
		var hit types.SearchHit
		var triggers, calls string
		var autoDesc, repoDesc, sourcePath, githubURL sql.NullString
		err := rows.Scan(
			&hit.Automation.ID, &hit.Automation.RepositoryID, &hit.Automation.Alias,
			&autoDesc, &triggers, &calls, &hit.Automation.BlueprintPath,
			&sourcePath, &githubURL, &hit.Automation.StartLine, &hit.Automation.EndLine,
			&hit.Automation.CreatedAt, &hit.Automation.UpdatedAt,
			&hit.Repository.ID, &hit.Repository.Name, &hit.Repository.Owner,
			&repoDesc, &hit.Repository.URL, &hit.Repository.Stars,
			&hit.Repository.CreatedAt, &hit.Repository.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		hit.Automation.Description = autoDesc.String
		hit.Automation.TriggerTypes = splitList(triggers)
		hit.Automation.ActionCalls = splitList(calls)
		hit.Automation.SourceFilePath = sourcePath.String
		hit.Automation.GitHubURL = githubURL.String
		hit.Repository.Description = repoDesc.String
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Search returns one page of matching automations with the total match count
func (s *SQLiteStore) Search(ctx context.Context, q types.SearchQuery) (*types.SearchPage, error) {
	where, args := buildSQLiteWhere(q)

	countQuery := "SELECT COUNT(*) FROM automations a" + where
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}

	pageQuery := "SELECT" + hitColumns + `
		FROM automations a
		JOIN repositories r ON r.id = a.repository_id` + where + `
		ORDER BY r.stars DESC, a.alias ASC, a.id ASC
		LIMIT ? OFFSET ?`
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
func (s *SQLiteStore) Matching(ctx context.Context, q types.SearchQuery) ([]types.SearchHit, error) {
	where, args := buildSQLiteWhere(q)

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
func (s *SQLiteStore) Statistics(ctx context.Context) (*types.Statistics, error) {
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

	// Tag columns are comma-separated; distinct values are accumulated in Go.
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
func (s *SQLiteStore) UpsertRepository(ctx context.Context, repo *types.Repository) error {
	query := `
		INSERT INTO repositories (name, owner, description, url, stars, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
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
		repo.Name, repo.Owner, repo.Description, repo.URL, repo.Stars, now, now).Scan(&repo.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert repository: %w", err)
	}
	repo.UpdatedAt = now
	return nil
}

// UpsertAutomation inserts an automation or updates the row with the same
// (repository, alias) pair
func (s *SQLiteStore) UpsertAutomation(ctx context.Context, auto *types.Automation) error {
	if err := auto.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO automations (repository_id, alias, description, trigger_types,
			action_calls, action_domains, blueprint_path, source_file_path,
			github_url, start_line, end_line, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		now, now).Scan(&auto.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert automation: %w", err)
	}
	auto.UpdatedAt = now
	return nil
}
