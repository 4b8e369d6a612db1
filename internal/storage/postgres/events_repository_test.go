package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListQueriesPageNewestFirst(t *testing.T) {
	require.Contains(t, listEventsQuery, "ORDER BY e.created_at DESC, e.id DESC")
	require.Contains(t, listAttendeesQuery, "ORDER BY a.created_at DESC, a.id DESC")
}
