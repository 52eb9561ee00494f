package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// Settings keys.
const (
	settingJWTSecret      = "jwt_secret"
	settingWhatsAppNumber = "whatsapp_number"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		settingJWTSecret, hex.EncodeToString(buf),
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	secret, err := getSetting(ctx, db, settingJWTSecret)
	if err != nil {
		return "", err
	}
	return secret, nil
}

// GetWhatsAppNumber returns the configured contact number, or "" if unset.
func GetWhatsAppNumber(ctx context.Context, db *sql.DB) (string, error) {
	return getSetting(ctx, db, settingWhatsAppNumber)
}

// SetWhatsAppNumber stores the contact number that order messages go to.
func SetWhatsAppNumber(ctx context.Context, db *sql.DB, number string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingWhatsAppNumber, number,
	)
	if err != nil {
		return fmt.Errorf("storing whatsapp number: %w", err)
	}
	return nil
}

func getSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}
