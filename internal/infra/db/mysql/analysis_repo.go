package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS code_analyses (
  id            VARCHAR(64)  NOT NULL PRIMARY KEY,
  language      VARCHAR(128) NOT NULL,
  source_sha256 CHAR(64)     NOT NULL,
  source_url    VARCHAR(512) NOT NULL,
  result_json   JSON         NOT NULL,
  provider      VARCHAR(32)  NOT NULL,
  model         VARCHAR(128) NOT NULL,
  created_at    DATETIME(3)  NOT NULL,
  INDEX idx_code_analyses_created (created_at)
);`

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Migrate creates the table when it does not exist yet.
func (r *AnalysisRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO code_analyses
  (id, language, source_sha256, source_url, result_json, provider, model, created_at)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  language=VALUES(language), source_url=VALUES(source_url), result_json=VALUES(result_json);
`
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID,
		stringOrDash(a.Language),
		a.SourceSHA256,
		a.SourceURL,
		jsonOrEmpty(a.Result),
		stringOrDash(a.Provider),
		stringOrDash(a.Model),
		createdAt.UTC(),
	)
	return err
}

// Get returns one record or domain.ErrNotFound.
func (r *AnalysisRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	const q = `
SELECT id, language, source_sha256, source_url, result_json, provider, model, created_at
FROM code_analyses
WHERE id=?;`
	a, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, language, source_sha256, source_url, result_json, provider, model, created_at
FROM code_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		a, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.Record, error) {
	var a domain.Record
	var created time.Time
	if err := s.Scan(&a.ID, &a.Language, &a.SourceSHA256, &a.SourceURL, &a.Result, &a.Provider, &a.Model, &created); err != nil {
		return nil, err
	}
	a.CreatedAt = created
	return &a, nil
}
