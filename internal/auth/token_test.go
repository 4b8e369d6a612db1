package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryTokenStore struct {
	tokens   map[string]*Token // keyed by hash
	lastUsed []string
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]*Token)}
}

func (m *memoryTokenStore) Insert(_ context.Context, token Token) error {
	m.tokens[token.Hash] = &token
	return nil
}

func (m *memoryTokenStore) LookupByHash(_ context.Context, hash string) (*Token, error) {
	token, ok := m.tokens[hash]
	if !ok {
		return nil, ErrInvalidToken
	}
	return token, nil
}

func (m *memoryTokenStore) UpdateLastUsed(_ context.Context, id string) error {
	m.lastUsed = append(m.lastUsed, id)
	return nil
}

func (m *memoryTokenStore) DeleteForUser(_ context.Context, userID string) error {
	for hash, token := range m.tokens {
		if token.UserID == userID {
			delete(m.tokens, hash)
		}
	}
	return nil
}

func TestGenerateToken(t *testing.T) {
	plaintext, hash, err := GenerateToken()
	require.NoError(t, err)
	require.Len(t, plaintext, 64)
	require.Equal(t, HashToken(plaintext), hash)

	other, _, err := GenerateToken()
	require.NoError(t, err)
	require.NotEqual(t, plaintext, other)
}

func TestTokenFromHeader(t *testing.T) {
	token, err := TokenFromHeader("Bearer abc123")
	require.NoError(t, err)
	require.Equal(t, "abc123", token)

	token, err = TokenFromHeader("bearer abc123")
	require.NoError(t, err)
	require.Equal(t, "abc123", token)

	_, err = TokenFromHeader("")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("Basic abc123")
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("Bearer")
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestValidateToken(t *testing.T) {
	store := newMemoryTokenStore()
	plaintext, hash, err := GenerateToken()
	require.NoError(t, err)
	require.NoError(t, store.Insert(context.Background(), Token{
		ID:        "tok-1",
		UserID:    "user-1",
		Hash:      hash,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	token, err := ValidateToken(context.Background(), store, "Bearer "+plaintext)
	require.NoError(t, err)
	require.Equal(t, "user-1", token.UserID)
	require.Equal(t, []string{"tok-1"}, store.lastUsed)
}

func TestValidateTokenExpired(t *testing.T) {
	store := newMemoryTokenStore()
	plaintext, hash, err := GenerateToken()
	require.NoError(t, err)
	require.NoError(t, store.Insert(context.Background(), Token{
		ID:        "tok-1",
		UserID:    "user-1",
		Hash:      hash,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err = ValidateToken(context.Background(), store, "Bearer "+plaintext)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenUnknown(t *testing.T) {
	_, err := ValidateToken(context.Background(), newMemoryTokenStore(), "Bearer deadbeef")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeleteForUserRevokesAll(t *testing.T) {
	store := newMemoryTokenStore()
	var plaintexts []string
	for range 3 {
		plaintext, hash, err := GenerateToken()
		require.NoError(t, err)
		require.NoError(t, store.Insert(context.Background(), Token{
			ID:        plaintext[:8],
			UserID:    "user-1",
			Hash:      hash,
			ExpiresAt: time.Now().Add(time.Hour),
		}))
		plaintexts = append(plaintexts, plaintext)
	}

	require.NoError(t, store.DeleteForUser(context.Background(), "user-1"))

	for _, plaintext := range plaintexts {
		_, err := ValidateToken(context.Background(), store, "Bearer "+plaintext)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}
