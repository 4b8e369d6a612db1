package events

// Projections map entities to their client-facing JSON shape. Relations appear
// in the output only when the resolved include set names them, so data a
// client did not ask for is never serialized.

func ProjectEvent(e *Event, inc IncludeSet) map[string]any {
	out := map[string]any{
		"id":         e.ULID,
		"name":       e.Name,
		"start_time": e.StartTime,
		"end_time":   e.EndTime,
		"created_at": e.CreatedAt,
		"updated_at": e.UpdatedAt,
	}
	if e.Description != "" {
		out["description"] = e.Description
	} else {
		out["description"] = nil
	}

	if inc.Has(IncludeUser) {
		out["user"] = projectUser(e.Owner)
	}
	if inc.Has(IncludeAttendees) {
		attendeeInc := IncludeSet{}
		if inc.Has(IncludeAttendeeUsers) {
			attendeeInc[IncludeUser] = true
		}
		items := make([]map[string]any, 0, len(e.Attendees))
		for i := range e.Attendees {
			items = append(items, ProjectAttendee(&e.Attendees[i], attendeeInc))
		}
		out["attendees"] = items
	}
	return out
}

func ProjectAttendee(a *Attendee, inc IncludeSet) map[string]any {
	out := map[string]any{
		"id":         a.ULID,
		"event_id":   a.EventULID,
		"user_id":    a.UserULID,
		"created_at": a.CreatedAt,
	}
	if inc.Has(IncludeUser) {
		out["user"] = projectUser(a.User)
	}
	return out
}

func projectUser(u *UserSummary) map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{
		"id":    u.ULID,
		"name":  u.Name,
		"email": u.Email,
	}
}
