package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

// tokenTTL bounds how old a decryptable token may be. Issued tokens are valid
// for a day, so anything older is useless even as a rate-limit fallback.
const tokenTTL = 72 * time.Hour

// TokenRepository persists provider access tokens encrypted with fernet.
// It satisfies kis.TokenCache.
type TokenRepository struct {
	db  *sql.DB
	key *fernet.Key
	now func() time.Time
}

// NewTokenRepository creates a TokenRepository using a base64 fernet key.
func NewTokenRepository(db *sql.DB, encodedKey string) (*TokenRepository, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token encryption key: %w", err)
	}
	return &TokenRepository{db: db, key: key, now: time.Now}, nil
}

// Get returns the token issued for endpoint on day.
func (r *TokenRepository) Get(ctx context.Context, endpoint, day string) (string, bool, error) {
	query := `SELECT token FROM kis_access_token WHERE endpoint = ? AND issued_on = ?`
	return r.fetch(ctx, query, endpoint, day)
}

// Latest returns the most recently issued token for endpoint, from any day.
func (r *TokenRepository) Latest(ctx context.Context, endpoint string) (string, bool, error) {
	query := `
		SELECT token FROM kis_access_token
		WHERE endpoint = ?
		ORDER BY issued_on DESC, created_at DESC
		LIMIT 1`
	return r.fetch(ctx, query, endpoint)
}

// Set stores token for (endpoint, day), replacing any previous one, and drops
// rows for the endpoint that can no longer be decrypted.
func (r *TokenRepository) Set(ctx context.Context, endpoint, day, token string) error {
	ciphertext, err := fernet.EncryptAndSign([]byte(token), r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	now := r.now()
	query := `
		INSERT INTO kis_access_token (endpoint, issued_on, token, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (endpoint, issued_on) DO UPDATE SET token = excluded.token, created_at = excluded.created_at`
	if _, err := r.db.ExecContext(ctx, query, endpoint, day, string(ciphertext), formatTimestamp(now)); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}

	cutoff := formatTimestamp(now.Add(-tokenTTL))
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kis_access_token WHERE endpoint = ? AND created_at < ?`, endpoint, cutoff); err != nil {
		return fmt.Errorf("failed to prune access tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) fetch(ctx context.Context, query string, args ...any) (string, bool, error) {
	var ciphertext string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query access token: %w", err)
	}

	plain := fernet.VerifyAndDecrypt([]byte(ciphertext), tokenTTL, []*fernet.Key{r.key})
	if plain == nil {
		// Expired or written under a different key; treat as a miss.
		return "", false, nil
	}
	return string(plain), true, nil
}
