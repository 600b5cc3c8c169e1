package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"timeroll/internal/errors"
	"timeroll/internal/repository/sqlite/migrations"
)

const timeEntryColumns = `id, entity_type, entity_id, person_id, description,
	start_time, end_time, duration_us, created_at, updated_at`

// Repository defines the interface for database operations
type Repository interface {
	// Time entry operations
	CreateTimeEntry(ctx context.Context, entry *TimeEntry) error
	GetTimeEntry(ctx context.Context, id string) (*TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, entry *TimeEntry) error
	DeleteTimeEntry(ctx context.Context, id string) error
	ListEntriesByEntity(ctx context.Context, entityType, entityID string) ([]*TimeEntry, error)
	ListEntriesForEntities(ctx context.Context, entityType string, entityIDs []string) ([]*TimeEntry, error)
	FindRunningEntry(ctx context.Context, entityType, entityID string) (*TimeEntry, error)
	ListRunningEntries(ctx context.Context) ([]*TimeEntry, error)

	// Hierarchy access (read-mostly; creation exists for the surrounding
	// application to populate trees)
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context) ([]*Task, error)
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)

	// Utility
	Close() error
}

// SQLiteRepository implements the Repository interface
type SQLiteRepository struct {
	db *sql.DB
}

// New creates a new SQLite repository instance
func New(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}

	// A single connection avoids SQLITE_BUSY errors under concurrent writes.
	db.SetMaxOpenConns(1)

	// Run migrations
	if err := migrations.RunMigrations(db); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// validateTimeEntry enforces the store-level invariants on a row before it
// is written: owning entity and start time present, end never before start.
func validateTimeEntry(entry *TimeEntry) error {
	if entry.EntityType != "task" && entry.EntityType != "project" {
		return errors.NewValidationError("entity_type must be task or project", nil).
			WithContext("entity_type", entry.EntityType)
	}
	if entry.EntityID == "" {
		return errors.NewValidationError("entity_id is required", nil)
	}
	if entry.StartTime.IsZero() {
		return errors.NewValidationError("start_time is required", nil)
	}
	if entry.EndTime != nil && entry.EndTime.Before(entry.StartTime) {
		return errors.NewValidationError("end_time must not precede start_time", nil).
			WithContext("start_time", entry.StartTime).
			WithContext("end_time", *entry.EndTime)
	}
	if entry.DurationUs != nil && *entry.DurationUs < 0 {
		return errors.NewValidationError("duration_us must be non-negative", nil)
	}
	return nil
}

// CreateTimeEntry persists a new time entry, assigning its id and
// bookkeeping timestamps.
func (r *SQLiteRepository) CreateTimeEntry(ctx context.Context, entry *TimeEntry) error {
	if err := validateTimeEntry(entry); err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
	INSERT INTO time_entries (` + timeEntryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return Execute(ctx, r.db, query,
		entry.ID, entry.EntityType, entry.EntityID, entry.PersonID, entry.Description,
		FormatTimeForDB(entry.StartTime), FormatTimePtrForDB(entry.EndTime), entry.DurationUs,
		FormatTimeForDB(entry.CreatedAt), FormatTimeForDB(entry.UpdatedAt))
}

// GetTimeEntry retrieves a time entry by ID
func (r *SQLiteRepository) GetTimeEntry(ctx context.Context, id string) (*TimeEntry, error) {
	query := `
	SELECT ` + timeEntryColumns + `
	FROM time_entries
	WHERE id = ?`

	return QuerySingle(ctx, r.db, query, ScanTimeEntry, "time entry", id, id)
}

// UpdateTimeEntry updates an existing time entry
func (r *SQLiteRepository) UpdateTimeEntry(ctx context.Context, entry *TimeEntry) error {
	if err := validateTimeEntry(entry); err != nil {
		return err
	}
	entry.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE time_entries
	SET person_id = ?, description = ?, start_time = ?, end_time = ?,
	    duration_us = ?, updated_at = ?
	WHERE id = ?`

	return ExecuteWithRowsAffected(ctx, r.db, query, "time entry", entry.ID,
		entry.PersonID, entry.Description,
		FormatTimeForDB(entry.StartTime), FormatTimePtrForDB(entry.EndTime),
		entry.DurationUs, FormatTimeForDB(entry.UpdatedAt), entry.ID)
}

// DeleteTimeEntry deletes a time entry by ID. Running entries may be
// deleted; they simply vanish with no residual duration.
func (r *SQLiteRepository) DeleteTimeEntry(ctx context.Context, id string) error {
	query := `DELETE FROM time_entries WHERE id = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "time entry", id, id)
}

// ListEntriesByEntity retrieves all entries owned by one entity.
func (r *SQLiteRepository) ListEntriesByEntity(ctx context.Context, entityType, entityID string) ([]*TimeEntry, error) {
	query := `
	SELECT ` + timeEntryColumns + `
	FROM time_entries
	WHERE entity_type = ? AND entity_id = ?
	ORDER BY start_time ASC`

	return QueryMultiple(ctx, r.db, query, ScanTimeEntries, "time entries", entityType, entityID)
}

// ListEntriesForEntities retrieves all entries owned by any of the given
// entities in one query. Used by the rollup engine to fetch a whole
// subtree's entries in a single pass.
func (r *SQLiteRepository) ListEntriesForEntities(ctx context.Context, entityType string, entityIDs []string) ([]*TimeEntry, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(entityIDs)-1) + "?"
	query := fmt.Sprintf(`
	SELECT `+timeEntryColumns+`
	FROM time_entries
	WHERE entity_type = ? AND entity_id IN (%s)
	ORDER BY start_time ASC`, placeholders)

	args := make([]interface{}, 0, len(entityIDs)+1)
	args = append(args, entityType)
	for _, id := range entityIDs {
		args = append(args, id)
	}

	return QueryMultiple(ctx, r.db, query, ScanTimeEntries, "time entries", args...)
}

// FindRunningEntry returns the running entry for an entity, or nil when
// the entity is idle.
func (r *SQLiteRepository) FindRunningEntry(ctx context.Context, entityType, entityID string) (*TimeEntry, error) {
	query := `
	SELECT ` + timeEntryColumns + `
	FROM time_entries
	WHERE entity_type = ? AND entity_id = ? AND end_time IS NULL`

	entry, err := ScanTimeEntry(r.db.QueryRowContext(ctx, query, entityType, entityID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, HandleDatabaseError("find running entry", err)
	}
	return entry, nil
}

// ListRunningEntries retrieves every running entry system-wide.
func (r *SQLiteRepository) ListRunningEntries(ctx context.Context) ([]*TimeEntry, error) {
	query := `
	SELECT ` + timeEntryColumns + `
	FROM time_entries
	WHERE end_time IS NULL
	ORDER BY start_time ASC`

	return QueryMultiple(ctx, r.db, query, ScanTimeEntries, "time entries")
}

// CreateTask creates a new task
func (r *SQLiteRepository) CreateTask(ctx context.Context, task *Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	query := `INSERT INTO tasks (id, name, parent_task_id, project_id) VALUES (?, ?, ?, ?)`
	return Execute(ctx, r.db, query, task.ID, task.Name, task.ParentTaskID, task.ProjectID)
}

// GetTask retrieves a task by ID
func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (*Task, error) {
	query := `SELECT id, name, parent_task_id, project_id FROM tasks WHERE id = ?`
	return QuerySingle(ctx, r.db, query, ScanTask, "task", id, id)
}

// ListTasks retrieves all tasks
func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]*Task, error) {
	query := `SELECT id, name, parent_task_id, project_id FROM tasks ORDER BY name ASC`
	return QueryMultiple(ctx, r.db, query, ScanTasks, "tasks")
}

// CreateProject creates a new project
func (r *SQLiteRepository) CreateProject(ctx context.Context, project *Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	query := `INSERT INTO projects (id, name, parent_project_id) VALUES (?, ?, ?)`
	return Execute(ctx, r.db, query, project.ID, project.Name, project.ParentProjectID)
}

// GetProject retrieves a project by ID
func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	query := `SELECT id, name, parent_project_id FROM projects WHERE id = ?`
	return QuerySingle(ctx, r.db, query, ScanProject, "project", id, id)
}

// ListProjects retrieves all projects
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	query := `SELECT id, name, parent_project_id FROM projects ORDER BY name ASC`
	return QueryMultiple(ctx, r.db, query, ScanProjects, "projects")
}
