package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/code-understood/internal/application/analysis"
	domain "github.com/bryanwahyu/code-understood/internal/domain/analysis"
	"github.com/bryanwahyu/code-understood/internal/middleware"
)

// DefaultOrigin is where the browser front-end is served during development.
const DefaultOrigin = "http://127.0.0.1:5500"

const runningMessage = "Concept Extractor Backend is running"

// AnalysisService is what the router needs from the analysis use case.
type AnalysisService interface {
	Analyze(ctx context.Context, code string) (*domain.Result, error)
	Get(ctx context.Context, id domain.RecordID) (*domain.Record, error)
	List(ctx context.Context, page, pageSize int) (*domain.Page, error)
}

// Options configures the cross-cutting parts of the router. The zero value
// serves the default origin without auth or rate limiting.
type Options struct {
	CORSOrigins  []string
	APIKeys      map[string]string
	Limiter      *middleware.RateLimiter
	MaxCodeBytes int
	Checkers     map[string]middleware.HealthChecker
	Ready        *middleware.Readiness
	Log          *zap.Logger
}

type Router struct {
	svc  AnalysisService
	opts Options
	log  *zap.Logger
}

func NewRouter(svc AnalysisService, opts Options) http.Handler {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{DefaultOrigin}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Ready == nil {
		opts.Ready = &middleware.Readiness{}
		opts.Ready.Set(true)
	}
	r := &Router{svc: svc, opts: opts, log: opts.Log}

	mux := chi.NewRouter()
	mux.Use(middleware.Logging(r.log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	mux.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": runningMessage})
	})
	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/readyz", opts.Ready.Handler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Group(func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		if opts.Limiter != nil {
			rt.With(middleware.RateLimit(opts.Limiter)).Post("/analyze", r.wrap(r.handleAnalyze))
		} else {
			rt.Post("/analyze", r.wrap(r.handleAnalyze))
		}
		rt.Get("/v1/analyses", r.wrap(r.handleList))
		rt.Get("/v1/analyses/{id}", r.wrap(r.handleGet))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks errors caused by the request itself.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, domain.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
		case errors.Is(err, domain.ErrCodeTooLarge), errors.As(err, &tooBig):
			writeError(w, http.StatusRequestEntityTooLarge, domain.ErrCodeTooLarge.Error())
		case errors.Is(err, domain.ErrEmptyInput), errors.As(err, &br):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, appanalysis.ErrHistoryDisabled):
			writeError(w, http.StatusNotImplemented, err.Error())
		default:
			r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

// POST /analyze
// Body: {"code": "<source>"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	if limit := r.opts.MaxCodeBytes; limit > 0 {
		// room for JSON escaping
		req.Body = http.MaxBytesReader(w, req.Body, int64(limit)*2+1024)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badRequest{errors.New("request body is empty")}
		}
		return badRequest{err}
	}

	code := middleware.SanitizeString(body.Code)
	if err := middleware.ValidateCode(code, r.opts.MaxCodeBytes); err != nil {
		return err
	}

	done := middleware.TrackAnalysis()
	result, err := r.svc.Analyze(req.Context(), code)
	done(err)
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) || errors.Is(err, domain.ErrEmptyInput) || errors.Is(err, domain.ErrCodeTooLarge) {
			return err
		}
		// provider and model failures are reported in a 200 body
		return writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
	}
	return writeJSON(w, http.StatusOK, result)
}

// GET /v1/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.List(req.Context(), middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRecordID(id); err != nil {
		return badRequest{err}
	}
	rec, err := r.svc.Get(req.Context(), domain.RecordID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}
