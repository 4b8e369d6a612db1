package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateInputValid(t *testing.T) {
	input := CreateInput{
		Name:        "Launch",
		Description: strPtr("Product launch party"),
		StartTime:   "2025-01-10T10:00",
		EndTime:     "2025-01-10T12:00",
	}

	fields, err := input.Validate()

	require.NoError(t, err)
	require.Equal(t, "Launch", fields.Name)
	require.Equal(t, "Product launch party", fields.Description)
	require.Equal(t, time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), fields.StartTime)
	require.Equal(t, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), fields.EndTime)
}

func TestCreateInputMissingFields(t *testing.T) {
	_, err := CreateInput{}.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields["name"], "The name field is required.")
	require.Contains(t, verr.Fields["start_time"], "The start time field is required.")
	require.Contains(t, verr.Fields["end_time"], "The end time field is required.")
}

func TestCreateInputNameTooLong(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}
	input := CreateInput{
		Name:      string(long),
		StartTime: "2025-01-10T10:00",
		EndTime:   "2025-01-10T12:00",
	}

	_, err := input.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields["name"], "The name field must not be greater than 255 characters.")
}

func TestCreateInputMalformedTimes(t *testing.T) {
	input := CreateInput{
		Name:      "Launch",
		StartTime: "next tuesday",
		EndTime:   "2025-01-10T12:00",
	}

	_, err := input.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields["start_time"], "The start time field must be a valid date.")
}

func TestCreateInputEndNotAfterStart(t *testing.T) {
	for _, end := range []string{"2025-01-10T10:00", "2025-01-10T09:00"} {
		input := CreateInput{
			Name:      "Launch",
			StartTime: "2025-01-10T10:00",
			EndTime:   end,
		}

		_, err := input.Validate()

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "end=%s", end)
		require.Contains(t, verr.Fields["end_time"], "The end time field must be a date after start time.")
	}
}

func TestCreateInputStripsMarkup(t *testing.T) {
	input := CreateInput{
		Name:        "<b>Launch</b>",
		Description: strPtr(`<p>Doors at 7</p><script>alert(1)</script>`),
		StartTime:   "2025-01-10T10:00",
		EndTime:     "2025-01-10T12:00",
	}

	fields, err := input.Validate()

	require.NoError(t, err)
	require.Equal(t, "Launch", fields.Name)
	require.Equal(t, "<p>Doors at 7</p>", fields.Description)
}

func TestUpdateInputPartialMerge(t *testing.T) {
	event := &Event{
		Name:        "Launch",
		Description: "old",
		StartTime:   time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}

	fields, err := UpdateInput{Name: strPtr("Launch v2")}.Apply(event)

	require.NoError(t, err)
	require.Equal(t, "Launch v2", fields.Name)
	require.Equal(t, "old", fields.Description)
	require.Equal(t, event.StartTime, fields.StartTime)
	require.Equal(t, event.EndTime, fields.EndTime)
}

func TestUpdateInputChecksMergedTimeOrder(t *testing.T) {
	event := &Event{
		Name:      "Launch",
		StartTime: time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}

	// moving start past the existing end must fail even though end is untouched
	_, err := UpdateInput{StartTime: strPtr("2025-01-10T13:00")}.Apply(event)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields["end_time"], "The end time field must be a date after start time.")
}

func TestUpdateInputRejectsEmptyName(t *testing.T) {
	event := &Event{
		Name:      "Launch",
		StartTime: time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}

	_, err := UpdateInput{Name: strPtr("  ")}.Apply(event)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields["name"], "The name field is required.")
}

func TestParseEventTimeLayouts(t *testing.T) {
	for _, raw := range []string{
		"2025-01-10T10:00:00Z",
		"2025-01-10T10:00:00",
		"2025-01-10T10:00",
		"2025-01-10 10:00:00",
	} {
		parsed, ok := parseEventTime(raw)
		require.True(t, ok, "layout %s", raw)
		require.Equal(t, time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), parsed)
	}

	_, ok := parseEventTime("10/01/2025")
	require.False(t, ok)
}
