package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// Access tokens are opaque random strings handed out at login. Only the
// SHA-256 digest is stored; revoking a token deletes its row.

const tokenBytes = 32

type Token struct {
	ID         string
	UserID     string
	Hash       string
	ExpiresAt  time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

type TokenStore interface {
	Insert(ctx context.Context, token Token) error
	LookupByHash(ctx context.Context, hash string) (*Token, error)
	UpdateLastUsed(ctx context.Context, id string) error
	// DeleteForUser revokes every token the user holds.
	DeleteForUser(ctx context.Context, userID string) error
}

var (
	ErrMissingToken = errors.New("missing access token")
	ErrInvalidToken = errors.New("invalid access token")
)

// GenerateToken returns a new plaintext token and its storage hash.
func GenerateToken() (plaintext, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	plaintext = hex.EncodeToString(buf)
	return plaintext, HashToken(plaintext), nil
}

// HashToken computes the storage digest for a plaintext token.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func TokenFromRequest(r *http.Request) (string, error) {
	if r == nil {
		return "", ErrMissingToken
	}
	return TokenFromHeader(r.Header.Get("Authorization"))
}

func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" || !utf8.ValidString(token) {
		return "", ErrInvalidToken
	}
	return token, nil
}

// ValidateToken resolves the Authorization header to a live stored token.
func ValidateToken(ctx context.Context, store TokenStore, authHeader string) (*Token, error) {
	if store == nil {
		return nil, ErrInvalidToken
	}

	plaintext, err := TokenFromHeader(authHeader)
	if err != nil {
		return nil, err
	}

	stored, err := store.LookupByHash(ctx, HashToken(plaintext))
	if err != nil || stored == nil {
		return nil, ErrInvalidToken
	}
	if !stored.ExpiresAt.IsZero() && stored.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidToken
	}

	_ = store.UpdateLastUsed(ctx, stored.ID)
	return stored, nil
}
