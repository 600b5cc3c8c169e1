package service

import (
	"context"
	"time"

	"timeroll/internal/domain"
	"timeroll/internal/rollup"
)

// ManualEntryRequest is a completed interval recorded after the fact.
// Exactly one of EndTime and DurationUs is required; when both are given
// the explicit duration is authoritative.
type ManualEntryRequest struct {
	EntityType  string
	EntityID    string
	PersonID    *string
	Description *string
	StartTime   time.Time
	EndTime     *time.Time
	DurationUs  *int64
}

// EntryPatch is a partial update to an existing entry. Nil fields are
// left unchanged. When the patch carries an explicit DurationUs it is
// authoritative; otherwise a closed interval's duration is recomputed
// from its start and end times.
type EntryPatch struct {
	StartTime   *time.Time
	EndTime     *time.Time
	DurationUs  *int64
	PersonID    *string
	Description *string
}

// RunningTimer is a live timer with its elapsed time as of the call.
type RunningTimer struct {
	Entry        *domain.TimeEntry
	ElapsedUs    int64
	ElapsedHuman string
}

// StopAllResult reports the outcome of stopping every running timer.
type StopAllResult struct {
	StoppedCount int
	StoppedIDs   []string
	Entries      []*domain.TimeEntry
}

// TimerStartOutcome reports a started timer and the entry it replaced,
// if any.
type TimerStartOutcome struct {
	Started  *domain.TimeEntry
	Replaced *domain.TimeEntry
}

// Service is the application-facing surface of the time tracking core.
type Service interface {
	// StartTimer begins a running entry for the entity, replacing any
	// entry already running on it.
	StartTimer(ctx context.Context, entityType, entityID string, personID, description *string) (*TimerStartOutcome, error)
	// StopTimer closes the entity's running entry. It fails with a not
	// found error when the entity is idle.
	StopTimer(ctx context.Context, entityType, entityID string) (*domain.TimeEntry, error)
	// StopAllTimers closes every running entry across all entities.
	StopAllTimers(ctx context.Context) (*StopAllResult, error)
	// ListRunningTimers returns all running entries with live elapsed times.
	ListRunningTimers(ctx context.Context) ([]*RunningTimer, error)

	// AddManualEntry records a completed interval.
	AddManualEntry(ctx context.Context, req ManualEntryRequest) (*domain.TimeEntry, error)
	// UpdateEntry applies a partial update to an entry.
	UpdateEntry(ctx context.Context, id string, patch EntryPatch) (*domain.TimeEntry, error)
	// DeleteEntry removes an entry.
	DeleteEntry(ctx context.Context, id string) error

	// GetSummary computes the hierarchical rollup for one entity.
	GetSummary(ctx context.Context, entityType, entityID string) (*rollup.Summary, error)
}
