package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PutImage stores an image blob under key, replacing any previous one.
func PutImage(ctx context.Context, db *sql.DB, key string, data []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO images (key, data, mime) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, mime = excluded.mime,
		 created_at = CURRENT_TIMESTAMP`,
		key, data, mime,
	)
	if err != nil {
		return fmt.Errorf("storing image: %w", err)
	}
	return nil
}

// GetImage returns an image blob and its MIME type. Returns nil data if the
// key does not exist.
func GetImage(ctx context.Context, db *sql.DB, key string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM images WHERE key = ?`, key,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}
	return data, mime, nil
}
