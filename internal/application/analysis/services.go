package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/code-understood/internal/application"
	domain "github.com/bryanwahyu/code-understood/internal/domain/analysis"
	"github.com/bryanwahyu/code-understood/internal/infra/ai/prompt"
)

// ErrHistoryDisabled is returned by history queries when no repository is configured.
var ErrHistoryDisabled = errors.New("analysis history is not configured")

// Service implements the backend's analyze use case.
// Repo and Archive are optional; when nil the analysis is not kept.
type Service struct {
	Extractor    domain.Extractor
	Repo         domain.Repository
	Archive      domain.SourceArchive
	Clock        application.Clock
	Log          *zap.Logger
	MaxCodeBytes int
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) now() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

// Analyze extracts concepts from code. Archive and history writes are best effort
// and never fail the request.
func (s *Service) Analyze(ctx context.Context, code string) (*domain.Result, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.ErrEmptyInput
	}
	if s.MaxCodeBytes > 0 && len(code) > s.MaxCodeBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", domain.ErrCodeTooLarge, len(code), s.MaxCodeBytes)
	}

	log := s.logger()
	text, err := s.Extractor.Extract(ctx, code)
	if err != nil {
		log.Error("concept extraction failed",
			zap.String("provider", s.Extractor.Provider()),
			zap.Error(err),
		)
		return nil, err
	}
	log.Debug("model output", zap.String("raw", text))

	result, err := prompt.ParseResult(text)
	if err != nil {
		log.Warn("unparseable model output", zap.Error(err))
		return nil, err
	}

	s.keep(ctx, code, result)
	return result, nil
}

func (s *Service) keep(ctx context.Context, code string, result *domain.Result) {
	if s.Repo == nil && s.Archive == nil {
		return
	}
	log := s.logger()
	now := s.now().Now()
	id := uuid.New().String()
	sum := sha256.Sum256([]byte(code))

	var sourceURL string
	if s.Archive != nil {
		key := fmt.Sprintf("sources/%s/%s.txt", now.UTC().Format("2006/01/02"), id)
		url, err := s.Archive.Put(ctx, key, []byte(code))
		if err != nil {
			log.Warn("source archive failed", zap.String("key", key), zap.Error(err))
		} else {
			sourceURL = url
		}
	}

	if s.Repo == nil {
		return
	}
	body, err := json.Marshal(result)
	if err != nil {
		log.Warn("encode result for history", zap.Error(err))
		return
	}
	rec := &domain.Record{
		ID:           domain.RecordID(id),
		Language:     result.Language.String(),
		SourceSHA256: hex.EncodeToString(sum[:]),
		SourceURL:    sourceURL,
		Result:       string(body),
		Provider:     s.Extractor.Provider(),
		Model:        s.Extractor.Model(),
		CreatedAt:    now,
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		log.Warn("save analysis failed", zap.String("id", id), zap.Error(err))
	}
}

// Get returns one stored analysis.
func (s *Service) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	if s.Repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.Repo.Get(ctx, id)
}

// List returns a page of stored analyses, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (*domain.Page, error) {
	if s.Repo == nil {
		return nil, ErrHistoryDisabled
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	list, err := s.Repo.Paginate(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*domain.Record{}
	}
	return &domain.Page{Data: list, Page: page, PageSize: pageSize}, nil
}
