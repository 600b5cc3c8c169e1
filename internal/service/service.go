// Package service wires the timer state machine, the rollup engine and
// the store into the application-facing time tracking operations.
package service

import (
	"context"
	"time"

	"timeroll/internal/config"
	"timeroll/internal/domain"
	"timeroll/internal/duration"
	"timeroll/internal/errors"
	"timeroll/internal/logging"
	"timeroll/internal/rollup"
	"timeroll/internal/repository/sqlite"
	"timeroll/internal/timer"
	"timeroll/internal/validation"
)

type timeTrackingService struct {
	repo      sqlite.Repository
	timer     *timer.Timer
	engine    *rollup.Engine
	validator *validation.EntryValidator
	mapper    *domain.Mapper
	now       func() time.Time
}

// New creates the time tracking service on top of the given repository.
func New(repo sqlite.Repository, cfg *config.Config) Service {
	return NewWithClock(repo, cfg, time.Now)
}

// NewWithClock creates the service with an injectable clock for tests.
func NewWithClock(repo sqlite.Repository, cfg *config.Config, now func() time.Time) Service {
	return &timeTrackingService{
		repo:      repo,
		timer:     timer.NewWithClock(repo, now),
		engine:    rollup.NewWithClock(repo, now),
		validator: validation.NewEntryValidator(validation.NewValidatorWithConfig(cfg)),
		mapper:    domain.NewMapper(),
		now:       now,
	}
}

func (s *timeTrackingService) StartTimer(ctx context.Context, entityType, entityID string, personID, description *string) (*TimerStartOutcome, error) {
	if err := s.validator.ValidateForStart(entityType, entityID, description); err != nil {
		return nil, asAppValidationError(err)
	}

	ref := domain.EntityRef{Type: domain.EntityType(entityType), ID: entityID}
	result, err := s.timer.Start(ctx, ref, personID, description)
	if err != nil {
		return nil, err
	}

	logging.Debugf("service: started timer %s for %s\n", result.Started.ID, ref.Key())
	return &TimerStartOutcome{Started: result.Started, Replaced: result.Stopped}, nil
}

func (s *timeTrackingService) StopTimer(ctx context.Context, entityType, entityID string) (*domain.TimeEntry, error) {
	if err := s.validator.ValidateEntityRef(entityType, entityID); err != nil {
		return nil, asAppValidationError(err)
	}

	ref := domain.EntityRef{Type: domain.EntityType(entityType), ID: entityID}
	return s.timer.Stop(ctx, ref)
}

func (s *timeTrackingService) StopAllTimers(ctx context.Context) (*StopAllResult, error) {
	stopped, err := s.timer.StopAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &StopAllResult{
		StoppedCount: len(stopped),
		StoppedIDs:   make([]string, 0, len(stopped)),
		Entries:      stopped,
	}
	for _, entry := range stopped {
		result.StoppedIDs = append(result.StoppedIDs, entry.ID)
	}
	return result, nil
}

func (s *timeTrackingService) ListRunningTimers(ctx context.Context) ([]*RunningTimer, error) {
	entries, err := s.timer.ListRunning(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	timers := make([]*RunningTimer, 0, len(entries))
	for _, entry := range entries {
		elapsed := entry.ElapsedUs(now)
		timers = append(timers, &RunningTimer{
			Entry:        entry,
			ElapsedUs:    elapsed,
			ElapsedHuman: duration.Format(elapsed),
		})
	}
	return timers, nil
}

func (s *timeTrackingService) AddManualEntry(ctx context.Context, req ManualEntryRequest) (*domain.TimeEntry, error) {
	if err := s.validator.ValidateManualEntry(req.EntityType, req.EntityID, req.StartTime, req.EndTime, req.DurationUs, req.Description); err != nil {
		return nil, asAppValidationError(err)
	}

	startTime := req.StartTime.UTC().Truncate(time.Microsecond)
	entry := domain.TimeEntry{
		EntityType:  domain.EntityType(req.EntityType),
		EntityID:    req.EntityID,
		PersonID:    req.PersonID,
		Description: req.Description,
		StartTime:   startTime,
	}

	switch {
	case req.DurationUs != nil:
		// Explicit duration wins over a derived one.
		entry.DurationUs = req.DurationUs
		if req.EndTime != nil {
			endTime := req.EndTime.UTC().Truncate(time.Microsecond)
			entry.EndTime = &endTime
		} else {
			endTime := startTime.Add(time.Duration(*req.DurationUs) * time.Microsecond)
			entry.EndTime = &endTime
		}
	case req.EndTime != nil:
		endTime := req.EndTime.UTC().Truncate(time.Microsecond)
		durationUs := endTime.Sub(startTime).Microseconds()
		entry.EndTime = &endTime
		entry.DurationUs = &durationUs
	}

	dbEntry := s.mapper.TimeEntry.ToDatabase(entry)
	if err := s.repo.CreateTimeEntry(ctx, &dbEntry); err != nil {
		return nil, err
	}

	created := s.mapper.TimeEntry.FromDatabase(dbEntry)
	return &created, nil
}

func (s *timeTrackingService) UpdateEntry(ctx context.Context, id string, patch EntryPatch) (*domain.TimeEntry, error) {
	if id == "" {
		return nil, errors.NewInvalidInputError("id", id, "entry id is required")
	}
	if err := s.validator.ValidateForUpdate(patch.StartTime, patch.EndTime, patch.DurationUs, patch.Description); err != nil {
		return nil, asAppValidationError(err)
	}

	dbEntry, err := s.repo.GetTimeEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	entry := s.mapper.TimeEntry.FromDatabase(*dbEntry)

	timesChanged := false
	if patch.StartTime != nil {
		startTime := patch.StartTime.UTC().Truncate(time.Microsecond)
		entry.StartTime = startTime
		timesChanged = true
	}
	if patch.EndTime != nil {
		endTime := patch.EndTime.UTC().Truncate(time.Microsecond)
		entry.EndTime = &endTime
		timesChanged = true
	}
	if patch.PersonID != nil {
		entry.PersonID = patch.PersonID
	}
	if patch.Description != nil {
		entry.Description = patch.Description
	}

	switch {
	case patch.DurationUs != nil:
		entry.DurationUs = patch.DurationUs
	case timesChanged && entry.EndTime != nil:
		durationUs := entry.EndTime.Sub(entry.StartTime).Microseconds()
		entry.DurationUs = &durationUs
	}

	if !entry.IsValid() {
		return nil, errors.NewValidationError("updated entry has an inconsistent interval", nil)
	}

	dbUpdated := s.mapper.TimeEntry.ToDatabase(entry)
	if err := s.repo.UpdateTimeEntry(ctx, &dbUpdated); err != nil {
		return nil, err
	}

	updated := s.mapper.TimeEntry.FromDatabase(dbUpdated)
	return &updated, nil
}

func (s *timeTrackingService) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return errors.NewInvalidInputError("id", id, "entry id is required")
	}
	return s.repo.DeleteTimeEntry(ctx, id)
}

func (s *timeTrackingService) GetSummary(ctx context.Context, entityType, entityID string) (*rollup.Summary, error) {
	if err := s.validator.ValidateEntityRef(entityType, entityID); err != nil {
		return nil, asAppValidationError(err)
	}

	ref := domain.EntityRef{Type: domain.EntityType(entityType), ID: entityID}
	return s.engine.Summarize(ctx, ref)
}

// asAppValidationError lifts a field-level validation error into the
// application error taxonomy.
func asAppValidationError(err error) error {
	if ve, ok := err.(*validation.ValidationError); ok {
		return errors.NewValidationError(ve.GetUserFriendlyMessage(), ve)
	}
	return errors.NewValidationError(err.Error(), err)
}
