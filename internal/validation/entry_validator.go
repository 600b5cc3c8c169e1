package validation

import (
	"time"
)

// EntryValidator validates time entry input before it reaches storage.
type EntryValidator struct {
	validator *Validator
}

// NewEntryValidator creates a new EntryValidator instance
func NewEntryValidator(validator *Validator) *EntryValidator {
	return &EntryValidator{validator: validator}
}

// ValidateEntityRef validates an entity type and id pair.
func (ev *EntryValidator) ValidateEntityRef(entityType, entityID string) error {
	ve := NewValidationError()
	ev.checkEntityRef(ve, entityType, entityID)
	return ve.ErrOrNil()
}

// ValidateForStart validates input for starting a timer.
func (ev *EntryValidator) ValidateForStart(entityType, entityID string, description *string) error {
	ve := NewValidationError()
	ev.checkEntityRef(ve, entityType, entityID)
	ev.checkDescription(ve, description)
	return ve.ErrOrNil()
}

// ValidateManualEntry validates input for a completed entry recorded after
// the fact. At least one of end time and duration must be supplied.
func (ev *EntryValidator) ValidateManualEntry(entityType, entityID string, startTime time.Time, endTime *time.Time, durationUs *int64, description *string) error {
	ve := NewValidationError()

	ev.checkEntityRef(ve, entityType, entityID)
	ev.checkDescription(ve, description)

	if startTime.IsZero() {
		ve.AddRequiredError("start_time")
	} else if !ev.validator.IsReasonableDate(startTime) {
		ve.AddInvalidRangeError("start_time", startTime, "date is outside the reasonable range")
	}

	if endTime == nil && durationUs == nil {
		ve.AddRequiredError("end_time or duration_us")
	}

	if !ev.validator.IsValidTimeRange(startTime, endTime) {
		ve.AddInvalidRangeError("end_time", endTime, "end time must not be before start time")
	}

	if durationUs != nil && !ev.validator.IsValidDurationUs(*durationUs) {
		ve.AddInvalidValueError("duration_us", *durationUs, "duration must not be negative")
	}

	return ve.ErrOrNil()
}

// ValidateForUpdate validates the fields present in a partial update. The
// merged entry is range checked again when it is persisted.
func (ev *EntryValidator) ValidateForUpdate(startTime, endTime *time.Time, durationUs *int64, description *string) error {
	ve := NewValidationError()

	if startTime != nil && startTime.IsZero() {
		ve.AddInvalidValueError("start_time", startTime, "start time must not be zero")
	}

	if startTime != nil && endTime != nil && !ev.validator.IsValidTimeRange(*startTime, endTime) {
		ve.AddInvalidRangeError("end_time", endTime, "end time must not be before start time")
	}

	if durationUs != nil && !ev.validator.IsValidDurationUs(*durationUs) {
		ve.AddInvalidValueError("duration_us", *durationUs, "duration must not be negative")
	}

	ev.checkDescription(ve, description)

	return ve.ErrOrNil()
}

func (ev *EntryValidator) checkEntityRef(ve *ValidationError, entityType, entityID string) {
	if !ev.validator.IsNonEmptyString(entityType) {
		ve.AddRequiredError("entity_type")
	} else if !ev.validator.IsValidEntityType(entityType) {
		ve.AddInvalidValueError("entity_type", entityType, "must be 'task' or 'project'")
	}

	if !ev.validator.IsNonEmptyString(entityID) {
		ve.AddRequiredError("entity_id")
	}
}

func (ev *EntryValidator) checkDescription(ve *ValidationError, description *string) {
	if description != nil && !ev.validator.IsValidDescriptionLength(*description) {
		ve.AddInvalidLengthError("description", *description, 0, 500)
	}
}
