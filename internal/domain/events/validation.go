package events

import (
	"reflect"
	"strings"
	"time"

	"github.com/Togather-Foundation/attend/internal/sanitize"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateInput is the request body for creating an event. Timestamps arrive as
// strings so malformed values surface as field errors, not decode failures.
type CreateInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
}

// UpdateInput is a partial update; only supplied fields are applied, but each
// supplied field must satisfy the same rules as on create.
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
}

// ValidationError carries per-field messages for a 422 response.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks a create payload and returns sanitized event fields.
func (in CreateInput) Validate() (EventFields, error) {
	verr := &ValidationError{}

	if err := validate.Struct(in); err != nil {
		collectTagErrors(err, verr)
	}

	fields := EventFields{
		Name: sanitize.Text(strings.TrimSpace(in.Name)),
	}
	if in.Description != nil {
		fields.Description = sanitize.HTML(*in.Description)
	}

	if in.StartTime != "" {
		start, ok := parseEventTime(in.StartTime)
		if !ok {
			verr.add("start_time", "The start time field must be a valid date.")
		}
		fields.StartTime = start
	}
	if in.EndTime != "" {
		end, ok := parseEventTime(in.EndTime)
		if !ok {
			verr.add("end_time", "The end time field must be a valid date.")
		}
		fields.EndTime = end
	}

	validateTimeOrder(fields, verr)

	if err := verr.orNil(); err != nil {
		return EventFields{}, err
	}
	return fields, nil
}

// Apply merges a partial update onto an event's current values, validating
// supplied fields and the effective start/end ordering.
func (in UpdateInput) Apply(event *Event) (EventFields, error) {
	verr := &ValidationError{}

	fields := EventFields{
		Name:        event.Name,
		Description: event.Description,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
	}

	if in.Name != nil {
		name := sanitize.Text(strings.TrimSpace(*in.Name))
		if name == "" {
			verr.add("name", "The name field is required.")
		} else if len(name) > 255 {
			verr.add("name", "The name field must not be greater than 255 characters.")
		}
		fields.Name = name
	}
	if in.Description != nil {
		fields.Description = sanitize.HTML(*in.Description)
	}
	if in.StartTime != nil {
		start, ok := parseEventTime(*in.StartTime)
		if !ok {
			verr.add("start_time", "The start time field must be a valid date.")
		}
		fields.StartTime = start
	}
	if in.EndTime != nil {
		end, ok := parseEventTime(*in.EndTime)
		if !ok {
			verr.add("end_time", "The end time field must be a valid date.")
		}
		fields.EndTime = end
	}

	validateTimeOrder(fields, verr)

	if err := verr.orNil(); err != nil {
		return EventFields{}, err
	}
	return fields, nil
}

// validateTimeOrder enforces that end_time is strictly after start_time on the
// effective (merged) values.
func validateTimeOrder(fields EventFields, verr *ValidationError) {
	if fields.StartTime.IsZero() || fields.EndTime.IsZero() {
		return
	}
	if !fields.EndTime.After(fields.StartTime) {
		verr.add("end_time", "The end time field must be a date after start time.")
	}
}

var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseEventTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range eventTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func collectTagErrors(err error, verr *ValidationError) {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.add("body", "The request body is invalid.")
		return
	}
	for _, fieldErr := range errs {
		field := fieldErr.Field()
		switch fieldErr.Tag() {
		case "required":
			verr.add(field, "The "+humanize(field)+" field is required.")
		case "max":
			verr.add(field, "The "+humanize(field)+" field must not be greater than "+fieldErr.Param()+" characters.")
		default:
			verr.add(field, "The "+humanize(field)+" field is invalid.")
		}
	}
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
