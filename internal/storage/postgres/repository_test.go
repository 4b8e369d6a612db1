package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// stubTx satisfies pgx.Tx without a database; only identity matters here.
type stubTx struct{ pgx.Tx }

func TestWithTxReusesBoundTransaction(t *testing.T) {
	repo := &Repository{tx: stubTx{}}

	var got *Repository
	err := repo.WithTx(context.Background(), func(_ context.Context, r *Repository) error {
		got = r
		return nil
	})

	require.NoError(t, err)
	require.Same(t, repo, got)
}

func TestWithTxPropagatesCallbackError(t *testing.T) {
	repo := &Repository{tx: stubTx{}}
	boom := errors.New("boom")

	err := repo.WithTx(context.Background(), func(context.Context, *Repository) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
}

func TestRepositoriesQueryBoundTransaction(t *testing.T) {
	tx := stubTx{}
	repo := &Repository{tx: tx}

	require.Equal(t, tx, repo.Events().(*EventRepository).queryer())
	require.Equal(t, tx, repo.Users().(*UserRepository).queryer())
	require.Equal(t, tx, repo.Tokens().(*TokenRepository).queryer())
	require.Equal(t, tx, repo.Reminders().queryer())
}
