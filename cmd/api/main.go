package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/code-understood/internal/application"
	appanalysis "github.com/bryanwahyu/code-understood/internal/application/analysis"
	"github.com/bryanwahyu/code-understood/internal/config"
	domain "github.com/bryanwahyu/code-understood/internal/domain/analysis"
	"github.com/bryanwahyu/code-understood/internal/infra/ai/gemini"
	"github.com/bryanwahyu/code-understood/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/code-understood/internal/infra/db/mysql"
	"github.com/bryanwahyu/code-understood/internal/infra/db/postgres"
	"github.com/bryanwahyu/code-understood/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/code-understood/internal/infra/storage"
	"github.com/bryanwahyu/code-understood/internal/logging"
	"github.com/bryanwahyu/code-understood/internal/middleware"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		stop()
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ready := &middleware.Readiness{}

	extractor, err := newExtractor(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ai init: %w", err)
	}
	log.Info("extractor ready", zap.String("provider", extractor.Provider()), zap.String("model", extractor.Model()))

	svc := &appanalysis.Service{
		Extractor:    extractor,
		Clock:        application.SystemClock{},
		Log:          log.Named("analysis"),
		MaxCodeBytes: cfg.Server.MaxCodeBytes,
	}
	checkers := map[string]middleware.HealthChecker{}

	// history is optional
	if cfg.Database.Driver != "" {
		db, repo, err := openRepository(ctx, cfg)
		if err != nil {
			return fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
		}
		defer db.Close()
		svc.Repo = repo
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		log.Info("analysis history enabled", zap.String("driver", cfg.Database.Driver))
	}

	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		svc.Archive = store
		log.Info("source archive enabled", zap.String("bucket", cfg.Minio.BucketName))
	}

	var limiter *middleware.RateLimiter
	if rl := cfg.Server.RateLimit; rl.Capacity > 0 {
		limiter = middleware.NewRateLimiter(rl.Capacity, max(1, rl.RefillRate))
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		CORSOrigins:  cfg.Server.CORSOrigins,
		APIKeys:      cfg.Server.APIKeys,
		Limiter:      limiter,
		MaxCodeBytes: cfg.Server.MaxCodeBytes,
		Checkers:     checkers,
		Ready:        ready,
		Log:          log.Named("http"),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // model calls are slow
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", addr))
		ready.Set(true)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if limiter != nil {
		g.Go(func() error {
			limiter.Run(gctx, 5*time.Minute)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		ready.Set(false)
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newExtractor(ctx context.Context, cfg *config.Config) (domain.Extractor, error) {
	switch cfg.AI.Provider {
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		if cfg.AI.APIKey == "" {
			return nil, errors.New("openai: api key is required")
		}
		return openai.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model), nil
	}
}

type migrator interface {
	domain.Repository
	Migrate(ctx context.Context) error
}

func openRepository(ctx context.Context, cfg *config.Config) (*sql.DB, domain.Repository, error) {
	var (
		db   *sql.DB
		repo migrator
		err  error
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN())
		if err == nil {
			repo = postgres.NewAnalysisRepository(db)
		}
	default:
		db, err = mysqlp.Connect(ctx, cfg.DSN())
		if err == nil {
			repo = mysqlp.NewAnalysisRepository(db)
		}
	}
	if err != nil {
		return nil, nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, repo, nil
}
