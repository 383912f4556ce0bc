package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/basel-ax/imgworkshop/internal/config"
)

// Open builds the backend selected by cfg.LastImageBackend.
// The returned close function releases backend connections.
func Open(ctx context.Context, cfg *config.Config) (LastImageRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.LastImageBackend {
	case config.BackendFile:
		return NewFileLastImageRepository(cfg.OutputDir), noop, nil

	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		repo := NewPostgresLastImageRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, db.Close, nil

	case config.BackendMinio:
		repo, err := NewMinioLastImageRepository(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil

	case config.BackendRedis:
		repo, err := NewRedisLastImageRepository(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown last image backend %q", cfg.LastImageBackend)
	}
}
