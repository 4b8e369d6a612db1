package events

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIncludesEmpty(t *testing.T) {
	set := ParseIncludes("", EventAllowedIncludes)

	require.Empty(t, set)
	require.False(t, set.Has(IncludeUser))
}

func TestParseIncludesExactMatch(t *testing.T) {
	set := ParseIncludes("user,attendees", EventAllowedIncludes)

	require.True(t, set.Has(IncludeUser))
	require.True(t, set.Has(IncludeAttendees))
	require.False(t, set.Has(IncludeAttendeeUsers))
}

func TestParseIncludesTrimsTokens(t *testing.T) {
	set := ParseIncludes("  user ,  attendees.user ", EventAllowedIncludes)

	require.True(t, set.Has(IncludeUser))
	require.True(t, set.Has(IncludeAttendeeUsers))
	require.False(t, set.Has(IncludeAttendees))
}

func TestParseIncludesCaseSensitive(t *testing.T) {
	set := ParseIncludes("User,ATTENDEES", EventAllowedIncludes)

	require.Empty(t, set)
}

func TestParseIncludesIgnoresUnknownRelations(t *testing.T) {
	set := ParseIncludes("user,password_hash,tokens", EventAllowedIncludes)

	require.True(t, set.Has(IncludeUser))
	require.Len(t, set, 1)
}

func TestParseIncludesAllowListScopesPerEndpoint(t *testing.T) {
	// attendees endpoints only ever expose the user relation
	set := ParseIncludes("user,attendees,attendees.user", AttendeeAllowedIncludes)

	require.True(t, set.Has(IncludeUser))
	require.Len(t, set, 1)
}

func TestIncludesFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("include", "attendees.user")

	require.True(t, EventIncludesFromQuery(values).Has(IncludeAttendeeUsers))
	require.Empty(t, AttendeeIncludesFromQuery(values))
}
