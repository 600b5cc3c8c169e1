package sqlite

import (
	"database/sql"
)

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// ScanTimeEntry scans a single time entry from a database row.
// Times are stored as RFC3339Nano text and parsed explicitly.
func ScanTimeEntry(scanner Scanner) (*TimeEntry, error) {
	entry := &TimeEntry{}
	var (
		personID    sql.NullString
		description sql.NullString
		startTime   string
		endTime     sql.NullString
		durationUs  sql.NullInt64
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&entry.ID,
		&entry.EntityType,
		&entry.EntityID,
		&personID,
		&description,
		&startTime,
		&endTime,
		&durationUs,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if personID.Valid {
		entry.PersonID = &personID.String
	}
	if description.Valid {
		entry.Description = &description.String
	}
	if entry.StartTime, err = ParseTimeFromDB(startTime); err != nil {
		return nil, err
	}
	if endTime.Valid {
		t, err := ParseTimeFromDB(endTime.String)
		if err != nil {
			return nil, err
		}
		entry.EndTime = &t
	}
	if durationUs.Valid {
		entry.DurationUs = &durationUs.Int64
	}
	if entry.CreatedAt, err = ParseTimeFromDB(createdAt); err != nil {
		return nil, err
	}
	if entry.UpdatedAt, err = ParseTimeFromDB(updatedAt); err != nil {
		return nil, err
	}

	return entry, nil
}

// ScanTimeEntries scans multiple time entries from database rows
func ScanTimeEntries(rows Rows) ([]*TimeEntry, error) {
	var entries []*TimeEntry
	for rows.Next() {
		entry, err := ScanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ScanTask scans a single task from a database row
func ScanTask(scanner Scanner) (*Task, error) {
	task := &Task{}
	var parentTaskID, projectID sql.NullString

	err := scanner.Scan(&task.ID, &task.Name, &parentTaskID, &projectID)
	if err != nil {
		return nil, err
	}

	if parentTaskID.Valid {
		task.ParentTaskID = &parentTaskID.String
	}
	if projectID.Valid {
		task.ProjectID = &projectID.String
	}
	return task, nil
}

// ScanTasks scans multiple tasks from database rows
func ScanTasks(rows Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		task, err := ScanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// ScanProject scans a single project from a database row
func ScanProject(scanner Scanner) (*Project, error) {
	project := &Project{}
	var parentProjectID sql.NullString

	err := scanner.Scan(&project.ID, &project.Name, &parentProjectID)
	if err != nil {
		return nil, err
	}

	if parentProjectID.Valid {
		project.ParentProjectID = &parentProjectID.String
	}
	return project, nil
}

// ScanProjects scans multiple projects from database rows
func ScanProjects(rows Rows) ([]*Project, error) {
	var projects []*Project
	for rows.Next() {
		project, err := ScanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return projects, nil
}
