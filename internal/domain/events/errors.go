package events

import "errors"

var (
	ErrNotFound         = errors.New("event not found")
	ErrAttendeeNotFound = errors.New("attendee not found")
	ErrForbidden        = errors.New("forbidden")
)
