package domain

import (
	"timeroll/internal/repository/sqlite"
)

// TimeEntryMapper handles conversion between domain and database TimeEntry models.
type TimeEntryMapper struct{}

// NewTimeEntryMapper creates a new TimeEntryMapper instance.
func NewTimeEntryMapper() *TimeEntryMapper {
	return &TimeEntryMapper{}
}

// ToDatabase converts a domain TimeEntry to a database TimeEntry.
func (m *TimeEntryMapper) ToDatabase(domainEntry TimeEntry) sqlite.TimeEntry {
	return sqlite.TimeEntry{
		ID:          domainEntry.ID,
		EntityType:  string(domainEntry.EntityType),
		EntityID:    domainEntry.EntityID,
		PersonID:    domainEntry.PersonID,
		Description: domainEntry.Description,
		StartTime:   domainEntry.StartTime,
		EndTime:     domainEntry.EndTime,
		DurationUs:  domainEntry.DurationUs,
		CreatedAt:   domainEntry.CreatedAt,
		UpdatedAt:   domainEntry.UpdatedAt,
	}
}

// FromDatabase converts a database TimeEntry to a domain TimeEntry.
func (m *TimeEntryMapper) FromDatabase(dbEntry sqlite.TimeEntry) TimeEntry {
	return TimeEntry{
		ID:          dbEntry.ID,
		EntityType:  EntityType(dbEntry.EntityType),
		EntityID:    dbEntry.EntityID,
		PersonID:    dbEntry.PersonID,
		Description: dbEntry.Description,
		StartTime:   dbEntry.StartTime,
		EndTime:     dbEntry.EndTime,
		DurationUs:  dbEntry.DurationUs,
		CreatedAt:   dbEntry.CreatedAt,
		UpdatedAt:   dbEntry.UpdatedAt,
	}
}

// FromDatabaseSlice converts a slice of database TimeEntries to domain TimeEntries.
func (m *TimeEntryMapper) FromDatabaseSlice(dbEntries []*sqlite.TimeEntry) []*TimeEntry {
	domainEntries := make([]*TimeEntry, len(dbEntries))
	for i, entry := range dbEntries {
		domainEntry := m.FromDatabase(*entry)
		domainEntries[i] = &domainEntry
	}
	return domainEntries
}

// TaskMapper handles conversion between domain and database Task models.
type TaskMapper struct{}

// NewTaskMapper creates a new TaskMapper instance.
func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

// FromDatabase converts a database Task to a domain Task.
func (m *TaskMapper) FromDatabase(dbTask sqlite.Task) Task {
	return Task{
		ID:           dbTask.ID,
		Name:         dbTask.Name,
		ParentTaskID: dbTask.ParentTaskID,
		ProjectID:    dbTask.ProjectID,
	}
}

// ProjectMapper handles conversion between domain and database Project models.
type ProjectMapper struct{}

// NewProjectMapper creates a new ProjectMapper instance.
func NewProjectMapper() *ProjectMapper {
	return &ProjectMapper{}
}

// FromDatabase converts a database Project to a domain Project.
func (m *ProjectMapper) FromDatabase(dbProject sqlite.Project) Project {
	return Project{
		ID:              dbProject.ID,
		Name:            dbProject.Name,
		ParentProjectID: dbProject.ParentProjectID,
	}
}

// Mapper provides a unified interface for all mapping operations.
type Mapper struct {
	TimeEntry *TimeEntryMapper
	Task      *TaskMapper
	Project   *ProjectMapper
}

// NewMapper creates a new Mapper instance with all sub-mappers.
func NewMapper() *Mapper {
	return &Mapper{
		TimeEntry: NewTimeEntryMapper(),
		Task:      NewTaskMapper(),
		Project:   NewProjectMapper(),
	}
}
