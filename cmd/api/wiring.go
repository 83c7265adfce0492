package main

import (
	"context"
	"fmt"
	"log"

	appai "github.com/bryanwahyu/marine-vision/internal/application/ai"
	"github.com/bryanwahyu/marine-vision/internal/config"
	"github.com/bryanwahyu/marine-vision/internal/domain/analysis"
	"github.com/bryanwahyu/marine-vision/internal/domain/history"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
	ollamaClient "github.com/bryanwahyu/marine-vision/internal/infra/ai/ollama"
	openaiClient "github.com/bryanwahyu/marine-vision/internal/infra/ai/openai"
	"github.com/bryanwahyu/marine-vision/internal/infra/analyzer/remote"
	mysqlp "github.com/bryanwahyu/marine-vision/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/marine-vision/internal/infra/db/postgres"
	filehist "github.com/bryanwahyu/marine-vision/internal/infra/history/file"
	"github.com/bryanwahyu/marine-vision/internal/infra/storage"
	"github.com/bryanwahyu/marine-vision/internal/middleware"
)

// openHistory picks the history backend and registers its health check.
func openHistory(ctx context.Context, cfg *config.Config, health map[string]middleware.HealthChecker) (history.Store, func(), error) {
	noop := func() {}

	switch cfg.History.Backend {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, noop, fmt.Errorf("mysql connect: %w", err)
		}
		repo := mysqlp.NewHistoryRepository(db, cfg.History.Namespace)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		health["database"] = middleware.PingCheck(db)
		health["history"] = middleware.HistoryCheck(repo)
		return repo, func() { db.Close() }, nil

	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, noop, fmt.Errorf("postgres connect: %w", err)
		}
		repo := pgp.NewHistoryRepository(db, cfg.History.Namespace)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		health["database"] = middleware.PingCheck(db)
		health["history"] = middleware.HistoryCheck(repo)
		return repo, func() { db.Close() }, nil

	default:
		st, err := filehist.New(cfg.History.Dir, cfg.History.Namespace)
		if err != nil {
			return nil, noop, err
		}
		log.Printf("history store file=%s", st.Path())
		health["history"] = middleware.HistoryCheck(st)
		return st, noop, nil
	}
}

// openPreviews returns the preview store plus the in-memory store when that
// is the one in use, so the router can serve its handles.
func openPreviews(ctx context.Context, cfg *config.Config, baseURL string) (media.PreviewStore, *storage.MemoryStore, error) {
	if !cfg.Minio.Enabled {
		mem := storage.NewMemoryStore(baseURL)
		return mem, mem, nil
	}
	st, err := storage.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
		cfg.Minio.PresignExpiry.Duration,
	)
	if err != nil {
		return nil, nil, err
	}
	return st, nil, nil
}

// openRemote returns nil when no remote backend is configured.
func openRemote(cfg *config.Config) (analysis.Analyzer, error) {
	a := cfg.Analysis
	switch a.Backend {
	case "openai":
		if a.APIKey == "" {
			return nil, nil
		}
		return appai.NewService("openai", openaiClient.NewClientWithBaseURL(a.APIKey, a.Model, a.Endpoint)), nil

	case "ollama":
		if a.Endpoint == "" {
			return nil, nil
		}
		cli, err := ollamaClient.NewClient(a.Endpoint, a.Model, a.Timeout.Duration)
		if err != nil {
			return nil, err
		}
		return appai.NewService("ollama", cli), nil

	default:
		if a.Endpoint == "" {
			return nil, nil
		}
		if err := middleware.ValidateEndpointURL(a.Endpoint); err != nil {
			return nil, err
		}
		// typed nil must not leak into the interface
		r := remote.New(a.Endpoint, a.Timeout.Duration)
		if r == nil {
			return nil, nil
		}
		return r, nil
	}
}
