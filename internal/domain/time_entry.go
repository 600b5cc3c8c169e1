package domain

import (
	"time"
)

// TimeEntry represents a recorded time interval in the domain model.
// A running entry has no end time and no settled duration.
type TimeEntry struct {
	ID          string
	EntityType  EntityType
	EntityID    string
	PersonID    *string
	Description *string
	StartTime   time.Time
	EndTime     *time.Time
	DurationUs  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRunning returns true if the entry is an active timer (no end time).
func (te TimeEntry) IsRunning() bool {
	return te.EndTime == nil
}

// Entity returns the owning entity reference.
func (te TimeEntry) Entity() EntityRef {
	return EntityRef{Type: te.EntityType, ID: te.EntityID}
}

// SettledUs returns the entry's recorded duration in microseconds.
// A running entry contributes zero; its live elapsed time is a read-side
// concern reported separately.
func (te TimeEntry) SettledUs() int64 {
	if te.IsRunning() || te.DurationUs == nil {
		return 0
	}
	return *te.DurationUs
}

// ElapsedUs returns the live elapsed microseconds for a running entry as
// of now; zero for a closed entry.
func (te TimeEntry) ElapsedUs(now time.Time) int64 {
	if !te.IsRunning() {
		return 0
	}
	elapsed := now.Sub(te.StartTime).Microseconds()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Close stops the entry at the given time, settling its duration.
func (te TimeEntry) Close(endTime time.Time) TimeEntry {
	durationUs := endTime.Sub(te.StartTime).Microseconds()
	te.EndTime = &endTime
	te.DurationUs = &durationUs
	return te
}

// IsValid checks if the time entry has coherent data.
func (te TimeEntry) IsValid() bool {
	if !te.EntityType.IsValid() || te.EntityID == "" {
		return false
	}
	if te.StartTime.IsZero() {
		return false
	}
	if te.EndTime != nil && te.EndTime.Before(te.StartTime) {
		return false
	}
	if te.DurationUs != nil && *te.DurationUs < 0 {
		return false
	}
	return true
}
