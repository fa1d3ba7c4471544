package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is the full server configuration, populated from the
// environment.
type Config struct {
	Server ServerConfig
	DB     DbConfig
	S3     S3Config
	Fs     FsConfig
	Auth   AuthConfig
}

type ServerConfig struct {
	Host                 string `env:"HOST" env-default:"0.0.0.0"`
	Port                 uint16 `env:"PORT" env-default:"8080"`
	MaxUploadBytes       int64  `env:"COVER_MAX_UPLOAD_BYTES" env-default:"10485760"`
	ContentTypePrefix    string `env:"COVER_CONTENT_TYPE_PREFIX" env-default:"image/"`
	PresignExpirySeconds int    `env:"COVER_PRESIGN_EXPIRY_SECONDS" env-default:"604800"`

	// DatabaseType selects the metadata store: "postgres" or "memory".
	DatabaseType string `env:"DATABASE_TYPE" env-default:"postgres"`
	// StorageBackend selects the blob store: "s3", "fs" or "memory".
	StorageBackend string `env:"STORAGE_BACKEND" env-default:"s3"`
}

type FsConfig struct {
	BaseDir   string `env:"FS_BASE_DIR" env-default:"./data/covers"`
	URLPrefix string `env:"FS_URL_PREFIX" env-default:"http://localhost:8080/static/covers"`
}

type AuthConfig struct {
	JwtSecret string `env:"JWT_SECRET" env-default:""`
}

type DbConfig struct {
	Port     uint16 `env:"CATALOG_PG_PORT" env-default:"5432"`
	Host     string `env:"CATALOG_PG_HOST" env-default:"localhost"`
	Name     string `env:"CATALOG_PG_NAME" env-default:"discograf_db"`
	User     string `env:"CATALOG_PG_USER" env-default:"catalog"`
	Password string `env:"CATALOG_PG_PASSWORD" env-default:"pwd"`
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `env:"AWS_S3_BUCKET" env-default:"album-covers"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UseSSL          bool   `env:"AWS_S3_USE_SSL" env-default:"false"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"true"`
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return &config, nil
}

func (c DbConfig) ToDatabaseUrl() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	return u.String()
}

// NewDbPool creates a pgx connection pool and verifies connectivity
func NewDbPool(ctx context.Context, dbConfig DbConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dbConfig.ToDatabaseUrl())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
