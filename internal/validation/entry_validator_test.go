package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntryValidator() *EntryValidator {
	return NewEntryValidator(NewValidator())
}

func TestValidateEntityRef(t *testing.T) {
	ev := newTestEntryValidator()

	assert.NoError(t, ev.ValidateEntityRef("task", "t1"))
	assert.NoError(t, ev.ValidateEntityRef("project", "p1"))

	err := ev.ValidateEntityRef("sprint", "s1")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	err = ev.ValidateEntityRef("task", "")
	require.Error(t, err)

	// Both fields missing reports both errors.
	err = ev.ValidateEntityRef("", "")
	require.Error(t, err)
	ve := err.(*ValidationError)
	assert.Len(t, ve.Errors, 2)
}

func TestValidateForStart(t *testing.T) {
	ev := newTestEntryValidator()

	assert.NoError(t, ev.ValidateForStart("task", "t1", nil))

	note := "working on the parser"
	assert.NoError(t, ev.ValidateForStart("task", "t1", &note))

	long := strings.Repeat("x", 501)
	assert.Error(t, ev.ValidateForStart("task", "t1", &long))
	assert.Error(t, ev.ValidateForStart("", "t1", nil))
}

func TestValidateManualEntry(t *testing.T) {
	ev := newTestEntryValidator()
	start := time.Now().Add(-2 * time.Hour)
	end := start.Add(time.Hour)
	before := start.Add(-time.Hour)
	duration := int64(3_600_000_000)
	negative := int64(-1)

	tests := []struct {
		name       string
		entityType string
		entityID   string
		start      time.Time
		end        *time.Time
		durationUs *int64
		wantErr    bool
	}{
		{
			name:       "end time only",
			entityType: "task", entityID: "t1",
			start: start, end: &end,
		},
		{
			name:       "duration only",
			entityType: "task", entityID: "t1",
			start: start, durationUs: &duration,
		},
		{
			name:       "both end and duration",
			entityType: "project", entityID: "p1",
			start: start, end: &end, durationUs: &duration,
		},
		{
			name:       "neither end nor duration",
			entityType: "task", entityID: "t1",
			start:   start,
			wantErr: true,
		},
		{
			name:       "zero start time",
			entityType: "task", entityID: "t1",
			end:     &end,
			wantErr: true,
		},
		{
			name:       "end before start",
			entityType: "task", entityID: "t1",
			start: start, end: &before,
			wantErr: true,
		},
		{
			name:       "negative duration",
			entityType: "task", entityID: "t1",
			start: start, durationUs: &negative,
			wantErr: true,
		},
		{
			name:       "bad entity type",
			entityType: "sprint", entityID: "s1",
			start: start, end: &end,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ev.ValidateManualEntry(tt.entityType, tt.entityID, tt.start, tt.end, tt.durationUs, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateForUpdate(t *testing.T) {
	ev := newTestEntryValidator()
	start := time.Now().Add(-time.Hour)
	end := time.Now()
	before := start.Add(-time.Hour)
	duration := int64(60_000_000)
	negative := int64(-7)

	assert.NoError(t, ev.ValidateForUpdate(nil, nil, nil, nil))
	assert.NoError(t, ev.ValidateForUpdate(&start, &end, nil, nil))
	assert.NoError(t, ev.ValidateForUpdate(nil, nil, &duration, nil))

	assert.Error(t, ev.ValidateForUpdate(&start, &before, nil, nil))
	assert.Error(t, ev.ValidateForUpdate(nil, nil, &negative, nil))

	zero := time.Time{}
	assert.Error(t, ev.ValidateForUpdate(&zero, nil, nil, nil))
}

func TestValidationErrorMessages(t *testing.T) {
	ve := NewValidationError()
	assert.False(t, ve.HasErrors())
	assert.Nil(t, ve.ErrOrNil())
	assert.Equal(t, "Input validation failed", ve.GetUserFriendlyMessage())

	ve.AddRequiredError("entity_id")
	assert.Equal(t, "entity_id is required", ve.GetUserFriendlyMessage())

	ve.AddInvalidValueError("entity_type", "sprint", "must be 'task' or 'project'")
	msg := ve.GetUserFriendlyMessage()
	assert.Contains(t, msg, "Multiple validation errors occurred")
	assert.Contains(t, msg, "- entity_id is required")

	assert.Len(t, ve.GetFieldErrors("entity_type"), 1)
	assert.Empty(t, ve.GetFieldErrors("description"))
}
