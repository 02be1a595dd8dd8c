package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/code-understood/internal/application"
	domain "github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

type stubExtractor struct {
	out   string
	err   error
	codes []string
}

func (s *stubExtractor) Extract(ctx context.Context, code string) (string, error) {
	s.codes = append(s.codes, code)
	return s.out, s.err
}

func (s *stubExtractor) Provider() string { return "stub" }
func (s *stubExtractor) Model() string    { return "stub-1" }

type memRepo struct {
	saved   []*domain.Record
	saveErr error
}

func (m *memRepo) Save(ctx context.Context, r *domain.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, r)
	return nil
}

func (m *memRepo) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	return m.saved, nil
}

type memArchive struct {
	keys []string
	err  error
}

func (m *memArchive) Put(ctx context.Context, key string, code []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "http://minio.local/sources/" + key, nil
}

var fixed = application.FixedClock(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))

func TestAnalyze(t *testing.T) {
	ex := &stubExtractor{out: "```json\n{\"language\":\"Python\",\"primary_concepts\":[\"I/O\"]}\n```"}
	repo := &memRepo{}
	archive := &memArchive{}
	svc := &Service{Extractor: ex, Repo: repo, Archive: archive, Clock: fixed}

	res, err := svc.Analyze(context.Background(), "print('hi')")
	require.NoError(t, err)
	assert.Equal(t, "Python", res.Language.String())
	assert.Equal(t, []string{"print('hi')"}, ex.codes)

	require.Len(t, archive.keys, 1)
	assert.Regexp(t, `^sources/2026/03/04/[0-9a-f-]{36}\.txt$`, archive.keys[0])

	require.Len(t, repo.saved, 1)
	rec := repo.saved[0]
	assert.Equal(t, "Python", rec.Language)
	assert.Equal(t, "stub", rec.Provider)
	assert.Equal(t, "stub-1", rec.Model)
	assert.Equal(t, time.Time(fixed), rec.CreatedAt)
	assert.Equal(t, "http://minio.local/sources/"+archive.keys[0], rec.SourceURL)
	assert.Len(t, rec.SourceSHA256, 64)

	var stored domain.Result
	require.NoError(t, json.Unmarshal([]byte(rec.Result), &stored))
	assert.Equal(t, []string{"I/O"}, stored.PrimaryConcepts.Items())
}

func TestAnalyzeValidation(t *testing.T) {
	ex := &stubExtractor{out: "{}"}
	svc := &Service{Extractor: ex, MaxCodeBytes: 8}

	_, err := svc.Analyze(context.Background(), "  \n")
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = svc.Analyze(context.Background(), "123456789")
	assert.ErrorIs(t, err, domain.ErrCodeTooLarge)

	assert.Empty(t, ex.codes)
}

func TestAnalyzeExtractorFailure(t *testing.T) {
	quota := &stubExtractor{err: domain.ErrQuotaExceeded}
	_, err := (&Service{Extractor: quota}).Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)

	garbage := &stubExtractor{out: "sorry, I cannot help"}
	_, err = (&Service{Extractor: garbage}).Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidOutput)
}

func TestAnalyzeKeepIsBestEffort(t *testing.T) {
	ex := &stubExtractor{out: `{"language":"Go"}`}
	repo := &memRepo{saveErr: errors.New("db down")}
	archive := &memArchive{err: errors.New("bucket missing")}
	svc := &Service{Extractor: ex, Repo: repo, Archive: archive}

	res, err := svc.Analyze(context.Background(), "package main")
	require.NoError(t, err)
	assert.Equal(t, "Go", res.Language.String())
}

func TestHistory(t *testing.T) {
	_, err := (&Service{}).List(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
	_, err = (&Service{}).Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	repo := &memRepo{}
	svc := &Service{Extractor: &stubExtractor{out: `{"language":"Go"}`}, Repo: repo, Clock: fixed}
	_, err = svc.Analyze(context.Background(), "package main")
	require.NoError(t, err)

	page, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	require.Len(t, page.Data, 1)

	rec, err := svc.Get(context.Background(), page.Data[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", rec.Language)
	assert.Empty(t, rec.SourceURL)
}
