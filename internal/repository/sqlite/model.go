package sqlite

import "time"

// TimeEntry is the database representation of a recorded time interval.
// EndTime and DurationUs are NULL while the entry is running.
type TimeEntry struct {
	ID          string
	EntityType  string
	EntityID    string
	PersonID    *string
	Description *string
	StartTime   time.Time
	EndTime     *time.Time
	DurationUs  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRunning reports whether the row represents an active timer.
func (te *TimeEntry) IsRunning() bool {
	return te.EndTime == nil
}

// Task is the database representation of a task: identity plus the two
// hierarchy links the rollup engine consumes.
type Task struct {
	ID           string
	Name         string
	ParentTaskID *string
	ProjectID    *string
}

// Project is the database representation of a project.
type Project struct {
	ID              string
	Name            string
	ParentProjectID *string
}
