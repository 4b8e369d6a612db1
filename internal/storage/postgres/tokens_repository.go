package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Togather-Foundation/attend/internal/auth"
)

var _ auth.TokenStore = (*TokenRepository)(nil)

func (r *TokenRepository) Insert(ctx context.Context, token auth.Token) error {
	var expiresAt *time.Time
	if !token.ExpiresAt.IsZero() {
		expiresAt = &token.ExpiresAt
	}
	_, err := r.queryer().Exec(ctx, `
INSERT INTO access_tokens (id, user_id, token_hash, expires_at)
VALUES ($1, $2, $3, $4)
`, token.ID, token.UserID, token.Hash, expiresAt)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) LookupByHash(ctx context.Context, hash string) (*auth.Token, error) {
	var (
		token      auth.Token
		expiresAt  pgtype.Timestamptz
		lastUsedAt pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
	)
	err := r.queryer().QueryRow(ctx, `
SELECT id, user_id, token_hash, expires_at, last_used_at, created_at
  FROM access_tokens
 WHERE token_hash = $1
`, hash).Scan(&token.ID, &token.UserID, &token.Hash, &expiresAt, &lastUsedAt, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if expiresAt.Valid {
		token.ExpiresAt = expiresAt.Time
	}
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		token.LastUsedAt = &t
	}
	if createdAt.Valid {
		token.CreatedAt = createdAt.Time
	}
	return &token, nil
}

func (r *TokenRepository) UpdateLastUsed(ctx context.Context, id string) error {
	_, err := r.queryer().Exec(ctx,
		`UPDATE access_tokens SET last_used_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update token last used: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.queryer().Exec(ctx,
		`DELETE FROM access_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}
