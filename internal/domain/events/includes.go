package events

import (
	"net/url"
	"strings"
)

// Relation names clients may request via ?include=. Each endpoint declares its
// own allow-list; requested names outside the list are silently ignored so a
// client can never pull arbitrary relations out of the store.
const (
	IncludeUser          = "user"
	IncludeAttendees     = "attendees"
	IncludeAttendeeUsers = "attendees.user"
)

var (
	// EventAllowedIncludes applies to the events collection and resource endpoints.
	EventAllowedIncludes = []string{IncludeUser, IncludeAttendees, IncludeAttendeeUsers}
	// AttendeeAllowedIncludes applies to the nested attendees endpoints.
	AttendeeAllowedIncludes = []string{IncludeUser}
)

// IncludeSet is the resolved set of relations to eager-load for a request.
type IncludeSet map[string]bool

func (s IncludeSet) Has(name string) bool {
	return s[name]
}

// ParseIncludes resolves a raw comma-separated include string against an
// allow-list. Tokens are trimmed of surrounding whitespace and matched
// case-sensitively; an empty raw string yields an empty set.
func ParseIncludes(raw string, allowed []string) IncludeSet {
	set := make(IncludeSet, len(allowed))
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return set
	}

	requested := make(map[string]bool)
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			requested[token] = true
		}
	}

	for _, relation := range allowed {
		if requested[relation] {
			set[relation] = true
		}
	}
	return set
}

// EventIncludesFromQuery resolves ?include= for event endpoints.
func EventIncludesFromQuery(values url.Values) IncludeSet {
	return ParseIncludes(values.Get("include"), EventAllowedIncludes)
}

// AttendeeIncludesFromQuery resolves ?include= for attendee endpoints.
func AttendeeIncludesFromQuery(values url.Values) IncludeSet {
	return ParseIncludes(values.Get("include"), AttendeeAllowedIncludes)
}
