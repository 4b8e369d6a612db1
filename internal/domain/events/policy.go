package events

// Capability checks, evaluated explicitly at each mutating entry point.
// A nil return allows the action; ErrForbidden denies it.

// CanCreateEvent allows any authenticated actor.
func CanCreateEvent(actorID string) error {
	if actorID == "" {
		return ErrForbidden
	}
	return nil
}

// CanUpdateEvent allows only the event's owner.
func CanUpdateEvent(actorID string, event *Event) error {
	if event == nil || actorID == "" || actorID != event.OwnerID {
		return ErrForbidden
	}
	return nil
}

// CanDeleteEvent allows only the event's owner.
func CanDeleteEvent(actorID string, event *Event) error {
	return CanUpdateEvent(actorID, event)
}

// CanCreateAttendee allows any authenticated actor to attend; owning the
// event is not required.
func CanCreateAttendee(actorID string, event *Event) error {
	if event == nil || actorID == "" {
		return ErrForbidden
	}
	return nil
}

// CanDeleteAttendee allows the attendee's own user to un-attend, and the
// event owner to remove any attendee.
func CanDeleteAttendee(actorID string, event *Event, attendee *Attendee) error {
	if event == nil || attendee == nil || actorID == "" {
		return ErrForbidden
	}
	if actorID == attendee.UserID || actorID == event.OwnerID {
		return nil
	}
	return ErrForbidden
}
