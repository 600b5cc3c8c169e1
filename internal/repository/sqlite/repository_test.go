package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeroll/internal/errors"
)

func setupTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "timeroll.db")
	repo, err := New(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }

func TestCreateTimeEntry(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	entry := &TimeEntry{
		EntityType: "task",
		EntityID:   "t1",
		StartTime:  start,
	}

	err := repo.CreateTimeEntry(ctx, entry)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.False(t, entry.UpdatedAt.IsZero())

	retrieved, err := repo.GetTimeEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, retrieved.ID)
	assert.Equal(t, "task", retrieved.EntityType)
	assert.Equal(t, "t1", retrieved.EntityID)
	assert.True(t, retrieved.StartTime.Equal(start))
	assert.Nil(t, retrieved.EndTime)
	assert.Nil(t, retrieved.DurationUs)
	assert.True(t, retrieved.IsRunning())
}

func TestCreateTimeEntryPreservesMicroseconds(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 10, 0, 0, 123456000, time.UTC)
	end := start.Add(90 * time.Minute)
	entry := &TimeEntry{
		EntityType: "task",
		EntityID:   "t1",
		StartTime:  start,
		EndTime:    &end,
		DurationUs: int64Ptr(5_400_000_000),
	}

	require.NoError(t, repo.CreateTimeEntry(ctx, entry))

	retrieved, err := repo.GetTimeEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.StartTime.Equal(start))
	assert.True(t, retrieved.EndTime.Equal(end))
	assert.Equal(t, int64(5_400_000_000), *retrieved.DurationUs)
}

func TestCreateTimeEntryValidation(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	tests := []struct {
		name  string
		entry *TimeEntry
	}{
		{
			name:  "missing entity type",
			entry: &TimeEntry{EntityID: "t1", StartTime: start},
		},
		{
			name:  "unknown entity type",
			entry: &TimeEntry{EntityType: "sprint", EntityID: "s1", StartTime: start},
		},
		{
			name:  "missing entity id",
			entry: &TimeEntry{EntityType: "task", StartTime: start},
		},
		{
			name:  "missing start time",
			entry: &TimeEntry{EntityType: "task", EntityID: "t1"},
		},
		{
			name:  "end before start",
			entry: &TimeEntry{EntityType: "task", EntityID: "t1", StartTime: start, EndTime: &before},
		},
		{
			name:  "negative duration",
			entry: &TimeEntry{EntityType: "task", EntityID: "t1", StartTime: start, DurationUs: int64Ptr(-5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.CreateTimeEntry(ctx, tt.entry)
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestGetTimeEntryNotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetTimeEntry(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestUpdateTimeEntry(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	entry := &TimeEntry{EntityType: "task", EntityID: "t1", StartTime: start}
	require.NoError(t, repo.CreateTimeEntry(ctx, entry))

	end := start.Add(time.Hour)
	entry.EndTime = &end
	entry.DurationUs = int64Ptr(3_600_000_000)
	entry.Description = strPtr("wrapped up")
	require.NoError(t, repo.UpdateTimeEntry(ctx, entry))

	retrieved, err := repo.GetTimeEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, retrieved.EndTime.Equal(end))
	assert.Equal(t, int64(3_600_000_000), *retrieved.DurationUs)
	assert.Equal(t, "wrapped up", *retrieved.Description)
	assert.False(t, retrieved.IsRunning())
}

func TestUpdateTimeEntryNotFound(t *testing.T) {
	repo := setupTestDB(t)

	entry := &TimeEntry{
		ID:         "missing",
		EntityType: "task",
		EntityID:   "t1",
		StartTime:  time.Now().UTC(),
	}
	err := repo.UpdateTimeEntry(context.Background(), entry)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestDeleteTimeEntry(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	entry := &TimeEntry{EntityType: "task", EntityID: "t1", StartTime: time.Now().UTC()}
	require.NoError(t, repo.CreateTimeEntry(ctx, entry))

	// Deleting a running entry is permitted.
	require.NoError(t, repo.DeleteTimeEntry(ctx, entry.ID))

	_, err := repo.GetTimeEntry(ctx, entry.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	err = repo.DeleteTimeEntry(ctx, entry.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestListEntriesByEntity(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		end := start.Add(time.Duration(i+1) * time.Hour)
		require.NoError(t, repo.CreateTimeEntry(ctx, &TimeEntry{
			EntityType: "task",
			EntityID:   "t1",
			StartTime:  start.Add(time.Duration(i) * 2 * time.Hour),
			EndTime:    &end,
			DurationUs: int64Ptr(int64(i+1) * 3_600_000_000),
		}))
	}
	require.NoError(t, repo.CreateTimeEntry(ctx, &TimeEntry{
		EntityType: "task",
		EntityID:   "t2",
		StartTime:  start,
	}))
	require.NoError(t, repo.CreateTimeEntry(ctx, &TimeEntry{
		EntityType: "project",
		EntityID:   "t1", // same id in the other hierarchy stays separate
		StartTime:  start,
	}))

	entries, err := repo.ListEntriesByEntity(ctx, "task", "t1")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, "task", entry.EntityType)
		assert.Equal(t, "t1", entry.EntityID)
	}
}

func TestListEntriesForEntities(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, repo.CreateTimeEntry(ctx, &TimeEntry{
			EntityType: "task",
			EntityID:   id,
			StartTime:  start,
		}))
	}

	entries, err := repo.ListEntriesForEntities(ctx, "task", []string{"t1", "t3"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	empty, err := repo.ListEntriesForEntities(ctx, "task", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFindRunningEntry(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	// Idle entity yields nil without an error.
	entry, err := repo.FindRunningEntry(ctx, "task", "t1")
	require.NoError(t, err)
	assert.Nil(t, entry)

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	require.NoError(t, repo.CreateTimeEntry(ctx, &TimeEntry{
		EntityType: "task", EntityID: "t1", StartTime: start, EndTime: &end,
	}))
	running := &TimeEntry{EntityType: "task", EntityID: "t1", StartTime: end}
	require.NoError(t, repo.CreateTimeEntry(ctx, running))

	entry, err = repo.FindRunningEntry(ctx, "task", "t1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, running.ID, entry.ID)
	assert.True(t, entry.IsRunning())
}

func TestListRunningEntries(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	require.NoError(t, repo.CreateTimeEntry(ctx, &TimeEntry{
		EntityType: "task", EntityID: "t1", StartTime: start, EndTime: &end,
	}))
	require.NoError(t, repo.CreateTimeEntry(ctx, &TimeEntry{
		EntityType: "task", EntityID: "t2", StartTime: start,
	}))
	require.NoError(t, repo.CreateTimeEntry(ctx, &TimeEntry{
		EntityType: "project", EntityID: "p1", StartTime: start,
	}))

	running, err := repo.ListRunningEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, running, 2)
}

func TestRunningEntryIndexRejectsSecondRunning(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateTimeEntry(ctx, &TimeEntry{
		EntityType: "task", EntityID: "t1", StartTime: start,
	}))

	// The partial unique index backs the single-running invariant even if
	// a caller bypasses the timer state machine.
	err := repo.CreateTimeEntry(ctx, &TimeEntry{
		EntityType: "task", EntityID: "t1", StartTime: start.Add(time.Minute),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeDatabase))
}

func TestTaskCRUD(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	parent := &Task{Name: "Parent"}
	require.NoError(t, repo.CreateTask(ctx, parent))
	assert.NotEmpty(t, parent.ID)

	child := &Task{Name: "Child", ParentTaskID: &parent.ID, ProjectID: strPtr("p1")}
	require.NoError(t, repo.CreateTask(ctx, child))

	retrieved, err := repo.GetTask(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "Child", retrieved.Name)
	assert.Equal(t, parent.ID, *retrieved.ParentTaskID)
	assert.Equal(t, "p1", *retrieved.ProjectID)

	tasks, err := repo.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	_, err = repo.GetTask(ctx, "missing")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestProjectCRUD(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	root := &Project{Name: "Root"}
	require.NoError(t, repo.CreateProject(ctx, root))

	sub := &Project{Name: "Sub", ParentProjectID: &root.ID}
	require.NoError(t, repo.CreateProject(ctx, sub))

	retrieved, err := repo.GetProject(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sub", retrieved.Name)
	assert.Equal(t, root.ID, *retrieved.ParentProjectID)

	projects, err := repo.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 2)

	_, err = repo.GetProject(ctx, "missing")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}
