package domain

import (
	"timeroll/internal/errors"
)

// EntityType identifies which hierarchy a time entry belongs to.
type EntityType string

const (
	EntityTask    EntityType = "task"
	EntityProject EntityType = "project"
)

// IsValid reports whether the entity type is one of the known hierarchies.
func (et EntityType) IsValid() bool {
	return et == EntityTask || et == EntityProject
}

// ParseEntityType converts a wire-level string into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	et := EntityType(s)
	if !et.IsValid() {
		return "", errors.NewInvalidInputError("entity_type", s, `must be "task" or "project"`)
	}
	return et, nil
}

// EntityRef identifies a task or project that can own time entries.
type EntityRef struct {
	Type EntityType
	ID   string
}

// Key returns a stable string form used for lock keying and error messages.
func (r EntityRef) Key() string {
	return string(r.Type) + "/" + r.ID
}
