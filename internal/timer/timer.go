// Package timer implements the running-timer state machine. At most one
// entry per (entity_type, entity_id) may be running at a time; starting a
// timer on an entity that already has one stops the old timer at the new
// timer's start instant.
package timer

import (
	"context"
	"sync"
	"time"

	"timeroll/internal/domain"
	"timeroll/internal/errors"
	"timeroll/internal/logging"
	"timeroll/internal/repository/sqlite"
)

// Timer coordinates starts and stops for running entries. Transitions for
// the same entity are serialized through a per-entity lock so that
// check-then-act sequences never interleave.
type Timer struct {
	repo   sqlite.Repository
	mapper *domain.Mapper
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Timer backed by the given repository.
func New(repo sqlite.Repository) *Timer {
	return NewWithClock(repo, time.Now)
}

// NewWithClock creates a Timer with an injectable clock for tests.
func NewWithClock(repo sqlite.Repository, now func() time.Time) *Timer {
	return &Timer{
		repo:   repo,
		mapper: domain.NewMapper(),
		now:    now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// StartResult reports the outcome of a start transition.
type StartResult struct {
	Started *domain.TimeEntry
	// Stopped is the previously running entry that the start closed,
	// or nil when the entity was idle.
	Stopped *domain.TimeEntry
}

// Start begins a new running entry for the entity. If the entity already
// has a running entry it is closed at the same instant the new one begins,
// so the two never overlap and no error is returned.
func (t *Timer) Start(ctx context.Context, ref domain.EntityRef, personID, description *string) (*StartResult, error) {
	lock := t.lockFor(ref.Key())
	lock.Lock()
	defer lock.Unlock()

	startTime := t.now().UTC().Truncate(time.Microsecond)

	stopped, err := t.stopLocked(ctx, ref, startTime)
	if err != nil && !errors.IsErrorType(err, errors.ErrorTypeNotFound) {
		return nil, err
	}
	if stopped != nil {
		logging.Debugf("timer: replaced running entry %s for %s\n", stopped.ID, ref.Key())
	}

	entry := domain.TimeEntry{
		EntityType:  ref.Type,
		EntityID:    ref.ID,
		PersonID:    personID,
		Description: description,
		StartTime:   startTime,
	}

	dbEntry := t.mapper.TimeEntry.ToDatabase(entry)
	if err := t.repo.CreateTimeEntry(ctx, &dbEntry); err != nil {
		return nil, err
	}

	started := t.mapper.TimeEntry.FromDatabase(dbEntry)
	return &StartResult{Started: &started, Stopped: stopped}, nil
}

// Stop closes the entity's running entry at the current instant. It returns
// a not found error when no timer is running for the entity.
func (t *Timer) Stop(ctx context.Context, ref domain.EntityRef) (*domain.TimeEntry, error) {
	lock := t.lockFor(ref.Key())
	lock.Lock()
	defer lock.Unlock()

	endTime := t.now().UTC().Truncate(time.Microsecond)
	return t.stopLocked(ctx, ref, endTime)
}

// StopAll closes every running entry across all entities and returns the
// closed entries. Entities whose timers were stopped concurrently are
// skipped rather than reported as errors.
func (t *Timer) StopAll(ctx context.Context) ([]*domain.TimeEntry, error) {
	running, err := t.repo.ListRunningEntries(ctx)
	if err != nil {
		return nil, err
	}

	stopped := make([]*domain.TimeEntry, 0, len(running))
	for _, dbEntry := range running {
		ref := domain.EntityRef{Type: domain.EntityType(dbEntry.EntityType), ID: dbEntry.EntityID}

		entry, err := t.Stop(ctx, ref)
		if err != nil {
			if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
				continue
			}
			return nil, err
		}
		stopped = append(stopped, entry)
	}

	return stopped, nil
}

// FindRunning returns the entity's running entry, or nil when idle.
func (t *Timer) FindRunning(ctx context.Context, ref domain.EntityRef) (*domain.TimeEntry, error) {
	dbEntry, err := t.repo.FindRunningEntry(ctx, string(ref.Type), ref.ID)
	if err != nil {
		return nil, err
	}
	if dbEntry == nil {
		return nil, nil
	}

	entry := t.mapper.TimeEntry.FromDatabase(*dbEntry)
	return &entry, nil
}

// ListRunning returns all running entries across all entities.
func (t *Timer) ListRunning(ctx context.Context) ([]*domain.TimeEntry, error) {
	dbEntries, err := t.repo.ListRunningEntries(ctx)
	if err != nil {
		return nil, err
	}
	return t.mapper.TimeEntry.FromDatabaseSlice(dbEntries), nil
}

// stopLocked closes the running entry at endTime. Callers must hold the
// entity lock.
func (t *Timer) stopLocked(ctx context.Context, ref domain.EntityRef, endTime time.Time) (*domain.TimeEntry, error) {
	dbEntry, err := t.repo.FindRunningEntry(ctx, string(ref.Type), ref.ID)
	if err != nil {
		return nil, err
	}
	if dbEntry == nil {
		return nil, errors.NewNotFoundError("running timer", ref.Key())
	}

	entry := t.mapper.TimeEntry.FromDatabase(*dbEntry)
	if endTime.Before(entry.StartTime) {
		// Clock skew between process restarts. Clamp to a zero-length
		// entry rather than recording a negative duration.
		endTime = entry.StartTime
	}
	closed := entry.Close(endTime)

	dbClosed := t.mapper.TimeEntry.ToDatabase(closed)
	if err := t.repo.UpdateTimeEntry(ctx, &dbClosed); err != nil {
		return nil, err
	}

	return &closed, nil
}

// lockFor returns the mutex guarding transitions for the given entity key.
func (t *Timer) lockFor(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[key] = lock
	}
	return lock
}
