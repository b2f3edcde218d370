// Package app assembles configured components for the server and admin binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"bloglist/internal/cache"
	"bloglist/internal/config"
	"bloglist/internal/repository"
	"bloglist/internal/repository/postgres"
	"bloglist/internal/repository/sqlite"
	"bloglist/internal/storage"
)

func NewLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// OpenStore opens the configured database and creates its tables.
func OpenStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.Store, io.Closer, error) {
	var (
		store  repository.Store
		closer io.Closer
	)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
		if err != nil {
			return repository.Store{}, nil, err
		}
		store, closer = postgres.NewStore(pool), closerFunc(func() error { pool.Close(); return nil })
		logger.Info("using postgres database")
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return repository.Store{}, nil, err
		}
		store, closer = sqlite.NewStore(db), db
		logger.Infof("using sqlite database %s", cfg.Database.Path)
	default:
		return repository.Store{}, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if err := store.Init(ctx); err != nil {
		_ = closer.Close()
		return repository.Store{}, nil, fmt.Errorf("init store: %w", err)
	}
	return store, closer, nil
}

// BuildCache returns the configured cache and a closer for it.
func BuildCache(ctx context.Context, cfg config.Config, logger *logrus.Logger) (cache.Cache, io.Closer, error) {
	switch cfg.Cache.Driver {
	case config.CacheRedis:
		c, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "bloglist:")
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using redis cache at %s", cfg.Redis.Addr)
		return c, c, nil
	case config.CacheMemory:
		return cache.NewMemory(), nopCloser{}, nil
	default:
		return cache.Noop{}, nopCloser{}, nil
	}
}

// BuildStorage returns nil when no bucket is configured.
func BuildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not set, snapshot export disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
