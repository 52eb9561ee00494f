// Package config reads the server configuration from the environment. A .env
// file in the working directory is loaded first when present; variables that
// are already set win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Catalog backends.
const (
	CatalogSQLite    = "sqlite"
	CatalogPostgREST = "postgrest"
	CatalogPostgres  = "postgres"
)

// Blob backends.
const (
	BlobSQLite = "sqlite"
	BlobS3     = "s3"
)

// Config is the server configuration.
type Config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string

	CatalogBackend   string
	SupabaseURL      string
	SupabaseKey      string
	SupabaseTable    string
	CatalogRateLimit float64
	PostgresDSN      string

	BlobBackend string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
	S3PublicURL string
}

// Load loads envFile (if it exists) and reads the configuration.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	rateLimit, err := strconv.ParseFloat(getenv("CATALOG_RATE_LIMIT", "10"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("CATALOG_RATE_LIMIT: %w", err)
	}
	useSSL, err := strconv.ParseBool(getenv("S3_USE_SSL", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("S3_USE_SSL: %w", err)
	}

	return Config{
		DBPath:    getenv("VITRINA_DB", "vitrina.sqlite3"),
		Addr:      getenv("VITRINA_ADDR", ":8080"),
		AdminUser: getenv("VITRINA_ADMIN_USER", "admin"),
		LogPath:   getenv("VITRINA_LOG", ""),

		CatalogBackend:   strings.ToLower(getenv("CATALOG_BACKEND", CatalogSQLite)),
		SupabaseURL:      getenv("SUPABASE_URL", ""),
		SupabaseKey:      getenv("SUPABASE_KEY", ""),
		SupabaseTable:    getenv("SUPABASE_TABLE", "produtos"),
		CatalogRateLimit: rateLimit,
		PostgresDSN:      getenv("POSTGRES_DSN", ""),

		BlobBackend: strings.ToLower(getenv("BLOB_BACKEND", BlobSQLite)),
		S3Endpoint:  getenv("S3_ENDPOINT", ""),
		S3AccessKey: getenv("S3_ACCESS_KEY", ""),
		S3SecretKey: getenv("S3_SECRET_KEY", ""),
		S3Bucket:    getenv("S3_BUCKET", "produtos"),
		S3Region:    getenv("S3_REGION", ""),
		S3UseSSL:    useSSL,
		S3PublicURL: getenv("S3_PUBLIC_URL", ""),
	}, nil
}

// Validate checks that the selected backends are configured.
func (c Config) Validate() error {
	var errs []error
	switch c.CatalogBackend {
	case CatalogSQLite:
	case CatalogPostgREST:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			errs = append(errs, errors.New("postgrest catalog needs SUPABASE_URL and SUPABASE_KEY"))
		}
	case CatalogPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres catalog needs POSTGRES_DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CATALOG_BACKEND %q", c.CatalogBackend))
	}

	switch c.BlobBackend {
	case BlobSQLite:
	case BlobS3:
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			errs = append(errs, errors.New("s3 blob storage needs S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend))
	}

	if c.CatalogRateLimit <= 0 {
		errs = append(errs, errors.New("CATALOG_RATE_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
