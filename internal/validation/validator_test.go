package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"timeroll/internal/config"
)

func TestIsNonEmptyString(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.IsNonEmptyString("work"))
	assert.False(t, v.IsNonEmptyString(""))
	assert.False(t, v.IsNonEmptyString("   "))
	assert.False(t, v.IsNonEmptyString("\t\n"))
}

func TestIsValidEntityType(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.IsValidEntityType("task"))
	assert.True(t, v.IsValidEntityType("project"))
	assert.False(t, v.IsValidEntityType("sprint"))
	assert.False(t, v.IsValidEntityType(""))
	assert.False(t, v.IsValidEntityType("Task"))
}

func TestIsValidTimeRange(t *testing.T) {
	v := NewValidator()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, v.IsValidTimeRange(start, nil))

	after := start.Add(time.Hour)
	assert.True(t, v.IsValidTimeRange(start, &after))

	// A zero-length interval is allowed.
	assert.True(t, v.IsValidTimeRange(start, &start))

	before := start.Add(-time.Hour)
	assert.False(t, v.IsValidTimeRange(start, &before))
}

func TestIsValidDurationUs(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.IsValidDurationUs(0))
	assert.True(t, v.IsValidDurationUs(3_600_000_000))
	assert.False(t, v.IsValidDurationUs(-1))
}

func TestIsReasonableDate(t *testing.T) {
	v := NewValidator()
	now := time.Now()

	assert.True(t, v.IsReasonableDate(now))
	assert.True(t, v.IsReasonableDate(now.AddDate(-1, 0, 0)))
	assert.False(t, v.IsReasonableDate(now.AddDate(-11, 0, 0)))
	assert.False(t, v.IsReasonableDate(now.AddDate(2, 0, 0)))
}

func TestIsValidDescriptionLength(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.IsValidDescriptionLength("short note"))
	assert.False(t, v.IsValidDescriptionLength(strings.Repeat("x", 501)))

	cfg := &config.Config{}
	cfg.Validation.DescriptionMaxLength = 10
	limited := NewValidatorWithConfig(cfg)
	assert.True(t, limited.IsValidDescriptionLength("0123456789"))
	assert.False(t, limited.IsValidDescriptionLength("0123456789a"))
}
