package blob

import (
	"context"
	"database/sql"

	"github.com/erazemk/vitrina/internal/store"
)

// ImageRoute is the API path SQLite-stored images are served under.
const ImageRoute = "/api/images/"

// DB stores blobs in the local database.
type DB struct {
	DB *sql.DB
}

// Upload stores data under path and returns its URL on this server.
func (s *DB) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := store.PutImage(ctx, s.DB, path, data, contentType); err != nil {
		return "", err
	}
	return ImageRoute + path, nil
}
