package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/discograf/discograf/pkg/catalog"
	memoryrepo "github.com/discograf/discograf/pkg/catalog/repo/memory"
	"github.com/discograf/discograf/pkg/catalog/repo/postgres"
	"github.com/discograf/discograf/pkg/catalog/storage/fs"
	memorystorage "github.com/discograf/discograf/pkg/catalog/storage/memory"
	"github.com/discograf/discograf/pkg/catalog/storage/s3"
)

// Runtime bundles everything BuildService wires up. Close releases the
// database pool when one was opened.
type Runtime struct {
	Service catalog.Service
	Broker  *catalog.Broker
	Pool    *pgxpool.Pool
}

func (r *Runtime) Close() {
	if r.Pool != nil {
		r.Pool.Close()
	}
}

// Validate checks that the backend selections are usable
func (c *Config) Validate() error {
	switch c.Server.DatabaseType {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Server.DatabaseType)
	}

	switch c.Server.StorageBackend {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Server.StorageBackend)
	}

	return nil
}

// BuildService assembles the catalog service from the configured
// backends
func (c *Config) BuildService(ctx context.Context) (*Runtime, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	repo, pool, err := c.buildRepository(ctx)
	if err != nil {
		return nil, err
	}

	store, err := c.buildBlobStore()
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	broker := catalog.NewBroker()
	svc, err := catalog.New(
		catalog.WithRepository(repo),
		catalog.WithBlobStore(store),
		catalog.WithNotifier(catalog.NewOutboxNotifier(broker)),
		catalog.WithMaxUploadSize(c.Server.MaxUploadBytes),
		catalog.WithAllowedContentType(c.Server.ContentTypePrefix),
		catalog.WithPresignExpiry(time.Duration(c.Server.PresignExpirySeconds)*time.Second),
	)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, fmt.Errorf("failed to build catalog service: %w", err)
	}

	return &Runtime{Service: svc, Broker: broker, Pool: pool}, nil
}

func (c *Config) buildRepository(ctx context.Context) (catalog.Repository, *pgxpool.Pool, error) {
	switch c.Server.DatabaseType {
	case "memory":
		return memoryrepo.New(), nil, nil
	case "postgres":
		pool, err := NewDbPool(ctx, c.DB)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewWithPool(pool), pool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.Server.DatabaseType)
	}
}

func (c *Config) buildBlobStore() (catalog.BlobStore, error) {
	switch c.Server.StorageBackend {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fs.New(fs.Config{
			BaseDir:   c.Fs.BaseDir,
			URLPrefix: c.Fs.URLPrefix,
		})
	case "s3":
		return s3.New(s3.Config{
			Region:          c.S3.Region,
			Bucket:          c.S3.BucketName,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Endpoint:        c.S3.Endpoint,
			UseSSL:          c.S3.UseSSL,
			UsePathStyle:    c.S3.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", c.Server.StorageBackend)
	}
}
