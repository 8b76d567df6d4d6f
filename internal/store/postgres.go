package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/XploY04/jobs.ai/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id                 TEXT PRIMARY KEY,
	source             TEXT NOT NULL,
	source_id          TEXT NOT NULL,
	title              TEXT NOT NULL,
	company            TEXT NOT NULL,
	description        TEXT NOT NULL,
	employment_type    TEXT,
	seniority_level    TEXT,
	category           TEXT,
	is_remote          BOOLEAN NOT NULL DEFAULT FALSE,
	quality_score      INTEGER NOT NULL DEFAULT 0,
	urgency            TEXT,
	title_company_hash TEXT NOT NULL,
	posted_at          TIMESTAMPTZ NOT NULL,
	fetched_at         TIMESTAMPTZ NOT NULL,
	data               JSONB NOT NULL,
	raw_data           JSONB
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_hash ON jobs (title_company_hash);
CREATE INDEX IF NOT EXISTS idx_jobs_source    ON jobs (source);
CREATE INDEX IF NOT EXISTS idx_jobs_posted_at ON jobs (posted_at);

CREATE TABLE IF NOT EXISTS discovered_companies (
	platform      TEXT NOT NULL,
	slug          TEXT NOT NULL,
	name          TEXT,
	discovered_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (platform, slug)
);
`

// PostgresStore is the Postgres-backed implementation of model.JobStore and
// model.CompanyStore, for deployments where SQLite's single-writer model is
// not enough.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects to the database at dsn and ensures the schema
// exists.
func NewPostgresStore(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// SaveJobs follows the same per-record skip semantics as the SQLite store.
// Each record runs under its own savepoint so a failed insert leaves the
// surrounding transaction usable for its siblings, and duplicates resolve
// via ON CONFLICT so concurrent batches racing on the same id or hash
// cannot error either side.
func (s *PostgresStore) SaveJobs(ctx context.Context, jobs []model.Job) (model.SaveStats, error) {
	var stats model.SaveStats

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, job := range jobs {
		if _, err := tx.Exec(ctx, "SAVEPOINT save_job"); err != nil {
			return model.SaveStats{}, fmt.Errorf("creating savepoint: %w", err)
		}
		inserted, err := s.insertJob(ctx, tx, job)
		if err != nil {
			s.logger.Warn("failed to save job", "job_id", job.ID, "error", err)
			stats.Skipped++
			if _, err := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT save_job"); err != nil {
				return model.SaveStats{}, fmt.Errorf("recovering save transaction: %w", err)
			}
			continue
		}
		if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT save_job"); err != nil {
			return model.SaveStats{}, fmt.Errorf("releasing savepoint: %w", err)
		}
		if inserted {
			stats.New++
		} else {
			stats.Skipped++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.SaveStats{}, fmt.Errorf("committing save transaction: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) insertJob(ctx context.Context, tx pgx.Tx, job model.Job) (bool, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("encoding job: %w", err)
	}
	var rawData []byte
	if job.RawData != nil {
		if rawData, err = json.Marshal(job.RawData); err != nil {
			return false, fmt.Errorf("encoding raw payload: %w", err)
		}
	}

	// No conflict target: any unique violation (id or title_company_hash)
	// counts as a skip.
	tag, err := tx.Exec(ctx, `INSERT INTO jobs
		(id, source, source_id, title, company, description,
		 employment_type, seniority_level, category, is_remote,
		 quality_score, urgency, title_company_hash, posted_at, fetched_at, data, raw_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT DO NOTHING`,
		job.ID, job.Source, job.SourceID, job.Title, job.Company, job.Description,
		job.EmploymentType, job.SeniorityLevel, job.Category, job.IsRemote,
		job.QualityScore, job.Urgency, job.TitleCompanyHash, job.PostedAt.UTC(), job.FetchedAt.UTC(),
		data, rawData)
	if err != nil {
		return false, fmt.Errorf("inserting job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, q model.ListQuery) ([]model.Job, error) {
	where, args := buildWherePg(q)
	limit := clampLimit(q.Limit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(
		"SELECT data, title_company_hash, raw_data FROM jobs%s ORDER BY posted_at DESC, id LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var data []byte
		var hash string
		var rawData []byte
		if err := rows.Scan(&data, &hash, &rawData); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		job, err := decodeJobBytes(data, hash, rawData)
		if err != nil {
			s.logger.Warn("skipping undecodable job row", "error", err)
			continue
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) CountJobs(ctx context.Context, q model.ListQuery) (int, error) {
	where, args := buildWherePg(q)
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM jobs"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var data []byte
	var hash string
	var rawData []byte
	err := s.pool.QueryRow(ctx,
		"SELECT data, title_company_hash, raw_data FROM jobs WHERE id = $1", id).
		Scan(&data, &hash, &rawData)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", id, err)
	}
	return decodeJobBytes(data, hash, rawData)
}

func (s *PostgresStore) FilterOptions(ctx context.Context) (map[string]map[string]int, error) {
	dimensions := map[string]string{
		"sources":          "source",
		"employment_types": "employment_type",
		"seniority_levels": "seniority_level",
		"categories":       "category",
	}

	out := make(map[string]map[string]int, len(dimensions))
	for name, column := range dimensions {
		query := fmt.Sprintf(
			"SELECT %s, COUNT(*) FROM jobs WHERE %s IS NOT NULL AND %s != '' GROUP BY %s",
			column, column, column, column)
		rows, err := s.pool.Query(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("counting by %s: %w", column, err)
		}
		counts := make(map[string]int)
		for rows.Next() {
			var value string
			var count int
			if err := rows.Scan(&value, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning %s count: %w", column, err)
			}
			counts[value] = count
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		out[name] = counts
	}
	return out, nil
}

func (s *PostgresStore) UpdateEnrichment(ctx context.Context, id string, patch model.EnrichmentPatch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning enrichment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var data []byte
	var hash string
	var rawData []byte
	err = tx.QueryRow(ctx,
		"SELECT data, title_company_hash, raw_data FROM jobs WHERE id = $1 FOR UPDATE", id).
		Scan(&data, &hash, &rawData)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("enriching job %s: not found", id)
	}
	if err != nil {
		return fmt.Errorf("enriching job %s: %w", id, err)
	}

	job, err := decodeJobBytes(data, hash, rawData)
	if err != nil {
		return fmt.Errorf("enriching job %s: %w", id, err)
	}
	job.Skills = patch.Skills
	job.Category = patch.Category
	job.SeniorityLevel = patch.SeniorityLevel
	job.QualityScore = patch.QualityScore
	job.Urgency = patch.Urgency

	updated, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding enriched job %s: %w", id, err)
	}

	_, err = tx.Exec(ctx, `UPDATE jobs SET
		seniority_level = $1, category = $2, quality_score = $3, urgency = $4, data = $5
		WHERE id = $6`,
		patch.SeniorityLevel, patch.Category, patch.QualityScore, patch.Urgency, updated, id)
	if err != nil {
		return fmt.Errorf("updating enrichment for %s: %w", id, err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) UpsertCompanies(ctx context.Context, companies []model.DiscoveredCompany) (int, error) {
	added := 0
	for _, c := range companies {
		discoveredAt := c.DiscoveredAt
		if discoveredAt.IsZero() {
			discoveredAt = time.Now().UTC()
		}
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO discovered_companies (platform, slug, name, discovered_at)
			 VALUES ($1, $2, $3, $4) ON CONFLICT (platform, slug) DO NOTHING`,
			c.Platform, c.Slug, c.Name, discoveredAt)
		if err != nil {
			return added, fmt.Errorf("upserting company %s/%s: %w", c.Platform, c.Slug, err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, platform string) ([]model.DiscoveredCompany, error) {
	query := "SELECT platform, slug, name, discovered_at FROM discovered_companies"
	var args []any
	if platform != "" {
		query += " WHERE platform = $1"
		args = append(args, platform)
	}
	query += " ORDER BY platform, slug"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	defer rows.Close()

	var companies []model.DiscoveredCompany
	for rows.Next() {
		var c model.DiscoveredCompany
		if err := rows.Scan(&c.Platform, &c.Slug, &c.Name, &c.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("scanning company row: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func decodeJobBytes(data []byte, hash string, rawData []byte) (*model.Job, error) {
	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decoding job document: %w", err)
	}
	job.TitleCompanyHash = hash
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &job.RawData); err != nil {
			return nil, fmt.Errorf("decoding raw payload: %w", err)
		}
	}
	return &job, nil
}

// buildWherePg mirrors buildWhere using numbered placeholders.
func buildWherePg(q model.ListQuery) (string, []any) {
	var clauses []string
	var args []any

	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + search + "%"
		args = append(args, pattern)
		clauses = append(clauses, fmt.Sprintf(
			"(title ILIKE %s OR company ILIKE %s OR description ILIKE %s)", next(), next(), next()))
	}
	if len(q.Sources) > 0 {
		args = append(args, q.Sources)
		clauses = append(clauses, "source = ANY("+next()+")")
	}
	if q.EmploymentType != "" {
		args = append(args, strings.ToUpper(q.EmploymentType))
		clauses = append(clauses, "employment_type = "+next())
	}
	if q.RemoteOnly {
		clauses = append(clauses, "is_remote")
	}
	if len(q.Seniority) > 0 {
		args = append(args, lowered(q.Seniority))
		clauses = append(clauses, "seniority_level = ANY("+next()+")")
	}
	if len(q.Category) > 0 {
		args = append(args, lowered(q.Category))
		clauses = append(clauses, "category = ANY("+next()+")")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
