package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS code_analyses (
  id            TEXT        PRIMARY KEY,
  language      TEXT        NOT NULL,
  source_sha256 TEXT        NOT NULL,
  source_url    TEXT        NOT NULL,
  result_json   JSONB       NOT NULL,
  provider      TEXT        NOT NULL,
  model         TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_code_analyses_created ON code_analyses (created_at DESC);`

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

// Save inserts or updates an analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO code_analyses
  (id, language, source_sha256, source_url, result_json, provider, model, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  language=EXCLUDED.language,
  source_url=EXCLUDED.source_url,
  result_json=EXCLUDED.result_json;
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
		createdAt,
	)
	return err
}

// Get returns one record or domain.ErrNotFound.
func (r *AnalysisRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	const q = `
SELECT id, language, source_sha256, source_url, result_json, provider, model, created_at
FROM code_analyses
WHERE id=$1;`
	row := r.db.QueryRowContext(ctx, q, id)
	var a domain.Record
	var created time.Time
	if err := row.Scan(&a.ID, &a.Language, &a.SourceSHA256, &a.SourceURL, &a.Result, &a.Provider, &a.Model, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.CreatedAt = created
	return &a, nil
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
LIMIT $1 OFFSET $2;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var a domain.Record
		var created time.Time
		if err := rows.Scan(&a.ID, &a.Language, &a.SourceSHA256, &a.SourceURL, &a.Result, &a.Provider, &a.Model, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = created
		out = append(out, &a)
	}
	return out, rows.Err()
}
