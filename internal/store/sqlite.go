// Package store provides the persistence layer for canonical jobs and
// discovered ATS companies, with SQLite as the default engine and Postgres
// as the production option.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/XploY04/jobs.ai/internal/model"
)

const sqliteSchema = `
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
	is_remote          INTEGER NOT NULL DEFAULT 0,
	quality_score      INTEGER NOT NULL DEFAULT 0,
	urgency            TEXT,
	title_company_hash TEXT NOT NULL,
	posted_at          DATETIME NOT NULL,
	fetched_at         DATETIME NOT NULL,
	data               TEXT NOT NULL,
	raw_data           TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_hash      ON jobs (title_company_hash);
CREATE INDEX IF NOT EXISTS idx_jobs_source    ON jobs (source);
CREATE INDEX IF NOT EXISTS idx_jobs_posted_at ON jobs (posted_at);

CREATE TABLE IF NOT EXISTS discovered_companies (
	platform      TEXT NOT NULL,
	slug          TEXT NOT NULL,
	name          TEXT,
	discovered_at DATETIME NOT NULL,
	PRIMARY KEY (platform, slug)
);
`

// SQLiteStore persists jobs and discovered companies in a SQLite database.
// It implements model.JobStore and model.CompanyStore.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// SaveJobs inserts each job unless a row with the same id or the same
// title+company fingerprint already exists. A failure on one record is
// counted as skipped and never aborts the rest of the batch.
func (s *SQLiteStore) SaveJobs(ctx context.Context, jobs []model.Job) (model.SaveStats, error) {
	var stats model.SaveStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	for _, job := range jobs {
		inserted, err := insertJobTx(ctx, tx, job)
		if err != nil {
			s.logger.Warn("failed to save job", "job_id", job.ID, "error", err)
			stats.Skipped++
			continue
		}
		if inserted {
			stats.New++
		} else {
			stats.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return model.SaveStats{}, fmt.Errorf("committing save transaction: %w", err)
	}
	return stats, nil
}

func insertJobTx(ctx context.Context, tx *sql.Tx, job model.Job) (bool, error) {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM jobs WHERE id = ?", job.ID).Scan(&exists)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("checking id: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM jobs WHERE title_company_hash = ?", job.TitleCompanyHash).Scan(&exists)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("checking fingerprint: %w", err)
	}

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

	_, err = tx.ExecContext(ctx, `INSERT INTO jobs
		(id, source, source_id, title, company, description,
		 employment_type, seniority_level, category, is_remote,
		 quality_score, urgency, title_company_hash, posted_at, fetched_at, data, raw_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Source, job.SourceID, job.Title, job.Company, job.Description,
		job.EmploymentType, job.SeniorityLevel, job.Category, boolToInt(job.IsRemote),
		job.QualityScore, job.Urgency, job.TitleCompanyHash, job.PostedAt.UTC(), job.FetchedAt.UTC(),
		string(data), nullableString(string(rawData)))
	if err != nil {
		return false, fmt.Errorf("inserting job: %w", err)
	}
	return true, nil
}

// ListJobs returns a page of jobs matching the query, newest first.
func (s *SQLiteStore) ListJobs(ctx context.Context, q model.ListQuery) ([]model.Job, error) {
	where, args := buildWhere(q)
	limit := clampLimit(q.Limit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT data, title_company_hash, raw_data FROM jobs" + where +
		" ORDER BY posted_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var data, hash string
		var rawData sql.NullString
		if err := rows.Scan(&data, &hash, &rawData); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		job, err := decodeJob(data, hash, rawData)
		if err != nil {
			s.logger.Warn("skipping undecodable job row", "error", err)
			continue
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// CountJobs returns the total number of jobs matching the query, ignoring
// pagination.
func (s *SQLiteStore) CountJobs(ctx context.Context, q model.ListQuery) (int, error) {
	where, args := buildWhere(q)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return count, nil
}

// GetJob returns the job with the given id, or (nil, nil) when absent.
func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var data, hash string
	var rawData sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT data, title_company_hash, raw_data FROM jobs WHERE id = ?", id).
		Scan(&data, &hash, &rawData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", id, err)
	}
	return decodeJob(data, hash, rawData)
}

// FilterOptions returns the distinct values and row counts for each
// filterable dimension.
func (s *SQLiteStore) FilterOptions(ctx context.Context) (map[string]map[string]int, error) {
	dimensions := map[string]string{
		"sources":          "source",
		"employment_types": "employment_type",
		"seniority_levels": "seniority_level",
		"categories":       "category",
	}

	out := make(map[string]map[string]int, len(dimensions))
	for name, column := range dimensions {
		counts, err := s.countByColumn(ctx, column)
		if err != nil {
			return nil, err
		}
		out[name] = counts
	}
	return out, nil
}

func (s *SQLiteStore) countByColumn(ctx context.Context, column string) (map[string]int, error) {
	query := fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM jobs WHERE %s IS NOT NULL AND %s != '' GROUP BY %s",
		column, column, column, column)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("counting by %s: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var value string
		var count int
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("scanning %s count: %w", column, err)
		}
		counts[value] = count
	}
	return counts, rows.Err()
}

// UpdateEnrichment applies the derived-field patch to one job, keeping the
// filter columns and the JSON document in sync.
func (s *SQLiteStore) UpdateEnrichment(ctx context.Context, id string, patch model.EnrichmentPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning enrichment transaction: %w", err)
	}
	defer tx.Rollback()

	var data, hash string
	var rawData sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT data, title_company_hash, raw_data FROM jobs WHERE id = ?", id).
		Scan(&data, &hash, &rawData)
	if err == sql.ErrNoRows {
		return fmt.Errorf("enriching job %s: not found", id)
	}
	if err != nil {
		return fmt.Errorf("enriching job %s: %w", id, err)
	}

	job, err := decodeJob(data, hash, rawData)
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

	_, err = tx.ExecContext(ctx, `UPDATE jobs SET
		seniority_level = ?, category = ?, quality_score = ?, urgency = ?, data = ?
		WHERE id = ?`,
		patch.SeniorityLevel, patch.Category, patch.QualityScore, patch.Urgency,
		string(updated), id)
	if err != nil {
		return fmt.Errorf("updating enrichment for %s: %w", id, err)
	}
	return tx.Commit()
}

// UpsertCompanies inserts discovered companies, ignoring (platform, slug)
// pairs already present. Returns the number of new rows.
func (s *SQLiteStore) UpsertCompanies(ctx context.Context, companies []model.DiscoveredCompany) (int, error) {
	added := 0
	for _, c := range companies {
		discoveredAt := c.DiscoveredAt
		if discoveredAt.IsZero() {
			discoveredAt = time.Now().UTC()
		}
		res, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO discovered_companies (platform, slug, name, discovered_at) VALUES (?, ?, ?, ?)",
			c.Platform, c.Slug, c.Name, discoveredAt)
		if err != nil {
			return added, fmt.Errorf("upserting company %s/%s: %w", c.Platform, c.Slug, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}
	return added, nil
}

// ListCompanies returns discovered companies, optionally restricted to one
// platform.
func (s *SQLiteStore) ListCompanies(ctx context.Context, platform string) ([]model.DiscoveredCompany, error) {
	query := "SELECT platform, slug, name, discovered_at FROM discovered_companies"
	var args []any
	if platform != "" {
		query += " WHERE platform = ?"
		args = append(args, platform)
	}
	query += " ORDER BY platform, slug"

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeJob(data, hash string, rawData sql.NullString) (*model.Job, error) {
	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("decoding job document: %w", err)
	}
	job.TitleCompanyHash = hash
	if rawData.Valid && rawData.String != "" {
		if err := json.Unmarshal([]byte(rawData.String), &job.RawData); err != nil {
			return nil, fmt.Errorf("decoding raw payload: %w", err)
		}
	}
	return &job, nil
}

// buildWhere assembles the WHERE clause shared by ListJobs and CountJobs.
func buildWhere(q model.ListQuery) (string, []any) {
	var clauses []string
	var args []any

	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + search + "%"
		clauses = append(clauses, "(title LIKE ? OR company LIKE ? OR description LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	if len(q.Sources) > 0 {
		clauses = append(clauses, "source IN ("+placeholders(len(q.Sources))+")")
		for _, s := range q.Sources {
			args = append(args, s)
		}
	}
	if q.EmploymentType != "" {
		clauses = append(clauses, "employment_type = ?")
		args = append(args, strings.ToUpper(q.EmploymentType))
	}
	if q.RemoteOnly {
		clauses = append(clauses, "is_remote = 1")
	}
	if len(q.Seniority) > 0 {
		clauses = append(clauses, "seniority_level IN ("+placeholders(len(q.Seniority))+")")
		for _, s := range q.Seniority {
			args = append(args, strings.ToLower(s))
		}
	}
	if len(q.Category) > 0 {
		clauses = append(clauses, "category IN ("+placeholders(len(q.Category))+")")
		for _, c := range q.Category {
			args = append(args, strings.ToLower(c))
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > model.MaxPageSize {
		return model.MaxPageSize
	}
	return limit
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
