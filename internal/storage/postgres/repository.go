package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Togather-Foundation/attend/internal/auth"
	"github.com/Togather-Foundation/attend/internal/domain/events"
	"github.com/Togather-Foundation/attend/internal/domain/users"
)

// Repository bundles the PostgreSQL-backed stores behind the domain
// interfaces.
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Tokens() auth.TokenStore {
	return &TokenRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Reminders() *ReminderRepository {
	return &ReminderRepository{pool: r.pool, tx: r.tx}
}

// WithTx runs fn against a repository view bound to one transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, *Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *UserRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

type TokenRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *TokenRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

type ReminderRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *ReminderRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}
