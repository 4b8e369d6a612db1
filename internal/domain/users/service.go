package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Togather-Foundation/attend/internal/auth"
	"github.com/Togather-Foundation/attend/internal/domain/ids"
)

// BcryptCost is the cost factor for bcrypt password hashing.
const BcryptCost = 12

// Service handles login, logout, and account lookup.
type Service struct {
	repo        Repository
	tokens      auth.TokenStore
	tokenExpiry time.Duration
	logger      zerolog.Logger
}

func NewService(repo Repository, tokens auth.TokenStore, tokenExpiry time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		tokenExpiry: tokenExpiry,
		logger:      logger.With().Str("component", "users").Logger(),
	}
}

// Login verifies the credentials and issues a fresh access token. The
// returned string is the plaintext token; it is never stored or logged.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		return "", nil, err
	}
	tokenID, err := ids.NewULID()
	if err != nil {
		return "", nil, fmt.Errorf("generate token id: %w", err)
	}

	token := auth.Token{
		ID:        tokenID,
		UserID:    user.ID,
		Hash:      hash,
		CreatedAt: time.Now().UTC(),
	}
	if s.tokenExpiry > 0 {
		token.ExpiresAt = token.CreatedAt.Add(s.tokenExpiry)
	}
	if err := s.tokens.Insert(ctx, token); err != nil {
		return "", nil, fmt.Errorf("store token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ULID).Msg("user logged in")
	return plaintext, user, nil
}

// Logout revokes every access token the user holds.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.DeleteForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		ULID:         ulid,
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ULID).Msg("user registered")
	return user, nil
}

// Bootstrap ensures the seed account exists. Safe to run on every start.
func (s *Service) Bootstrap(ctx context.Context, name, email, password string) (*User, error) {
	if existing, err := s.repo.GetByEmail(ctx, normalizeEmail(email)); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup bootstrap user: %w", err)
	}
	return s.Register(ctx, name, email, password)
}

// Project maps a user to its client-facing JSON shape.
func Project(u *User) map[string]any {
	return map[string]any{
		"id":         u.ULID,
		"name":       u.Name,
		"email":      u.Email,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
