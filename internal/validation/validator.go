package validation

import (
	"strings"
	"time"

	"timeroll/internal/config"
)

// Validator provides common validation utilities
type Validator struct {
	config *config.Config
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		config: nil, // Use defaults
	}
}

// NewValidatorWithConfig creates a new validator instance with configuration
func NewValidatorWithConfig(cfg *config.Config) *Validator {
	return &Validator{
		config: cfg,
	}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidEntityType checks if a string names a trackable entity kind
func (v *Validator) IsValidEntityType(s string) bool {
	return s == "task" || s == "project"
}

// IsValidDescriptionLength checks if a description is within configured limits
func (v *Validator) IsValidDescriptionLength(description string) bool {
	return len(description) <= v.getDescriptionMaxLength()
}

// IsValidTimeRange checks if start time is not after end time
func (v *Validator) IsValidTimeRange(startTime time.Time, endTime *time.Time) bool {
	if endTime == nil {
		return true // Running entry, no end time
	}
	return !startTime.After(*endTime)
}

// IsValidDurationUs checks if a microsecond duration is non-negative
func (v *Validator) IsValidDurationUs(durationUs int64) bool {
	return durationUs >= 0
}

// IsReasonableDate checks if a date is within reasonable bounds
func (v *Validator) IsReasonableDate(t time.Time) bool {
	now := time.Now()
	// Allow dates from 10 years ago to 1 year in the future
	tenYearsAgo := now.AddDate(-10, 0, 0)
	oneYearFromNow := now.AddDate(1, 0, 0)

	return t.After(tenYearsAgo) && t.Before(oneYearFromNow)
}

// TrimAndValidateString trims whitespace and returns the cleaned string
func (v *Validator) TrimAndValidateString(s string) string {
	return strings.TrimSpace(s)
}

// getDescriptionMaxLength returns configured maximum description length or default
func (v *Validator) getDescriptionMaxLength() int {
	if v.config != nil && v.config.Validation.DescriptionMaxLength > 0 {
		return v.config.Validation.DescriptionMaxLength
	}
	return 500 // Default maximum
}
