// Package rollup computes hierarchical time totals over the task and
// project trees. All arithmetic is in whole microseconds.
package rollup

import (
	"context"
	"sort"
	"time"

	"timeroll/internal/domain"
	"timeroll/internal/errors"
	"timeroll/internal/repository/sqlite"
)

// Summary holds the aggregated time for one entity and its subtree.
type Summary struct {
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Name       string            `json:"name,omitempty"`

	// DirectUs is settled time recorded against the entity itself.
	// Running entries contribute nothing until they stop.
	DirectUs int64 `json:"direct_us"`
	// ChildrenUs is settled time rolled up from the entity's subtree.
	ChildrenUs int64 `json:"children_us"`
	// TotalUs is DirectUs plus ChildrenUs.
	TotalUs int64 `json:"total_us"`

	// CurrentSessionUs is the live elapsed time of the entity's own
	// running entry. It is reported separately and never folded into
	// the settled totals.
	CurrentSessionUs int64             `json:"current_session_us"`
	HasRunningTimer  bool              `json:"has_running_timer"`
	RunningEntry     *domain.TimeEntry `json:"running_entry,omitempty"`

	// Entries are the entity's own entries, oldest first.
	Entries []*domain.TimeEntry `json:"entries"`

	// ChildrenBreakdown lists the entity's immediate children with
	// their full subtree totals. Children with a zero total are
	// omitted.
	ChildrenBreakdown []BreakdownItem `json:"children_breakdown"`
}

// BreakdownItem is one immediate child's contribution to a summary.
type BreakdownItem struct {
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Name       string            `json:"name,omitempty"`
	TotalUs    int64             `json:"total_us"`
}

// Engine computes summaries from repository state.
type Engine struct {
	repo   sqlite.Repository
	mapper *domain.Mapper
	now    func() time.Time
}

// New creates an Engine backed by the given repository.
func New(repo sqlite.Repository) *Engine {
	return NewWithClock(repo, time.Now)
}

// NewWithClock creates an Engine with an injectable clock for tests.
func NewWithClock(repo sqlite.Repository, now func() time.Time) *Engine {
	return &Engine{
		repo:   repo,
		mapper: domain.NewMapper(),
		now:    now,
	}
}

// hierarchy is an in-memory snapshot of the task and project trees.
type hierarchy struct {
	tasks    map[string]*domain.Task
	projects map[string]*domain.Project

	// taskChildren maps a task id to its immediate child task ids.
	taskChildren map[string][]string
	// projectChildren maps a project id to its immediate child project ids.
	projectChildren map[string][]string
	// projectRootTasks maps a project id to the tasks assigned to it
	// whose parent task is not also in the project. These are the roots
	// of the task trees the project rolls up.
	projectRootTasks map[string][]string
}

// Summarize computes the summary for one entity. Unknown entities yield a
// not found error.
func (e *Engine) Summarize(ctx context.Context, ref domain.EntityRef) (*Summary, error) {
	h, err := e.loadHierarchy(ctx)
	if err != nil {
		return nil, err
	}

	switch ref.Type {
	case domain.EntityTask:
		if _, ok := h.tasks[ref.ID]; !ok {
			return nil, errors.NewNotFoundError("task", ref.ID)
		}
		return e.summarizeTask(ctx, h, ref.ID)
	case domain.EntityProject:
		if _, ok := h.projects[ref.ID]; !ok {
			return nil, errors.NewNotFoundError("project", ref.ID)
		}
		return e.summarizeProject(ctx, h, ref.ID)
	default:
		return nil, errors.NewInvalidInputError("entity_type", string(ref.Type), "must be 'task' or 'project'")
	}
}

func (e *Engine) summarizeTask(ctx context.Context, h *hierarchy, taskID string) (*Summary, error) {
	visited := make(map[string]bool)
	order := h.collectTaskSubtree(taskID, visited)

	taskDirect, taskEntries, err := e.directTaskTime(ctx, order)
	if err != nil {
		return nil, err
	}
	taskTotals := sumTaskTotals(h, order, taskDirect)

	summary := e.newSummary(domain.EntityTask, taskID, h.tasks[taskID].Name, taskDirect[taskID], taskTotals[taskID], taskEntries[taskID])
	for _, childID := range h.taskChildren[taskID] {
		summary.addBreakdown(domain.EntityTask, childID, h.tasks[childID].Name, taskTotals[childID])
	}

	return summary, nil
}

func (e *Engine) summarizeProject(ctx context.Context, h *hierarchy, projectID string) (*Summary, error) {
	projVisited := make(map[string]bool)
	projOrder := h.collectProjectSubtree(projectID, projVisited)

	// Gather every task tree rooted in any project of the subtree. The
	// shared visited set guarantees each task is counted once.
	taskVisited := make(map[string]bool)
	var taskOrder []string
	for _, pid := range projOrder {
		for _, rootID := range h.projectRootTasks[pid] {
			taskOrder = append(taskOrder, h.collectTaskSubtree(rootID, taskVisited)...)
		}
	}

	taskDirect, _, err := e.directTaskTime(ctx, taskOrder)
	if err != nil {
		return nil, err
	}
	taskTotals := sumTaskTotals(h, taskOrder, taskDirect)

	projDirect, projEntries, err := e.directProjectTime(ctx, projOrder)
	if err != nil {
		return nil, err
	}

	// Bottom-up over the project tree. Reverse pre-order visits every
	// child before its parent.
	projTotals := make(map[string]int64, len(projOrder))
	for i := len(projOrder) - 1; i >= 0; i-- {
		pid := projOrder[i]
		total := projDirect[pid]
		for _, rootID := range h.projectRootTasks[pid] {
			total += taskTotals[rootID]
		}
		for _, childID := range h.projectChildren[pid] {
			total += projTotals[childID]
		}
		projTotals[pid] = total
	}

	summary := e.newSummary(domain.EntityProject, projectID, h.projects[projectID].Name, projDirect[projectID], projTotals[projectID], projEntries[projectID])
	for _, rootID := range h.projectRootTasks[projectID] {
		summary.addBreakdown(domain.EntityTask, rootID, h.tasks[rootID].Name, taskTotals[rootID])
	}
	for _, childID := range h.projectChildren[projectID] {
		summary.addBreakdown(domain.EntityProject, childID, h.projects[childID].Name, projTotals[childID])
	}

	return summary, nil
}

// newSummary assembles the per-entity fields shared by both entity kinds.
func (e *Engine) newSummary(entityType domain.EntityType, entityID, name string, directUs, totalUs int64, entries []*domain.TimeEntry) *Summary {
	summary := &Summary{
		EntityType: entityType,
		EntityID:   entityID,
		Name:       name,
		DirectUs:   directUs,
		ChildrenUs: totalUs - directUs,
		TotalUs:    totalUs,
		Entries:    entries,
	}
	if summary.Entries == nil {
		summary.Entries = []*domain.TimeEntry{}
	}

	now := e.now()
	for _, entry := range summary.Entries {
		if entry.IsRunning() {
			summary.HasRunningTimer = true
			summary.RunningEntry = entry
			summary.CurrentSessionUs = entry.ElapsedUs(now)
			break
		}
	}

	return summary
}

func (s *Summary) addBreakdown(entityType domain.EntityType, entityID, name string, totalUs int64) {
	if totalUs == 0 {
		return
	}
	s.ChildrenBreakdown = append(s.ChildrenBreakdown, BreakdownItem{
		EntityType: entityType,
		EntityID:   entityID,
		Name:       name,
		TotalUs:    totalUs,
	})
}

// directTaskTime fetches entries for the given tasks in one query and
// returns settled microseconds and entries per task id.
func (e *Engine) directTaskTime(ctx context.Context, taskIDs []string) (map[string]int64, map[string][]*domain.TimeEntry, error) {
	return e.directTime(ctx, string(domain.EntityTask), taskIDs)
}

func (e *Engine) directProjectTime(ctx context.Context, projectIDs []string) (map[string]int64, map[string][]*domain.TimeEntry, error) {
	return e.directTime(ctx, string(domain.EntityProject), projectIDs)
}

func (e *Engine) directTime(ctx context.Context, entityType string, ids []string) (map[string]int64, map[string][]*domain.TimeEntry, error) {
	direct := make(map[string]int64, len(ids))
	entries := make(map[string][]*domain.TimeEntry, len(ids))

	dbEntries, err := e.repo.ListEntriesForEntities(ctx, entityType, ids)
	if err != nil {
		return nil, nil, err
	}

	for _, dbEntry := range dbEntries {
		entry := e.mapper.TimeEntry.FromDatabase(*dbEntry)
		direct[entry.EntityID] += entry.SettledUs()
		entries[entry.EntityID] = append(entries[entry.EntityID], &entry)
	}

	for id := range entries {
		sort.Slice(entries[id], func(i, j int) bool {
			return entries[id][i].StartTime.Before(entries[id][j].StartTime)
		})
	}

	return direct, entries, nil
}

// sumTaskTotals folds direct time up the task tree. The order slice is a
// pre-order walk, so iterating it in reverse visits children before
// parents.
func sumTaskTotals(h *hierarchy, order []string, direct map[string]int64) map[string]int64 {
	totals := make(map[string]int64, len(order))
	inSubtree := make(map[string]bool, len(order))
	for _, id := range order {
		inSubtree[id] = true
	}

	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		total := direct[id]
		for _, childID := range h.taskChildren[id] {
			if inSubtree[childID] {
				total += totals[childID]
			}
		}
		totals[id] = total
	}

	return totals
}

// collectTaskSubtree returns the task subtree in pre-order. The visited
// set guards against cycles in corrupted parent links.
func (h *hierarchy) collectTaskSubtree(taskID string, visited map[string]bool) []string {
	if visited[taskID] {
		return nil
	}
	visited[taskID] = true

	order := []string{taskID}
	for _, childID := range h.taskChildren[taskID] {
		order = append(order, h.collectTaskSubtree(childID, visited)...)
	}
	return order
}

func (h *hierarchy) collectProjectSubtree(projectID string, visited map[string]bool) []string {
	if visited[projectID] {
		return nil
	}
	visited[projectID] = true

	order := []string{projectID}
	for _, childID := range h.projectChildren[projectID] {
		order = append(order, h.collectProjectSubtree(childID, visited)...)
	}
	return order
}

// loadHierarchy bulk fetches tasks and projects and builds adjacency maps.
func (e *Engine) loadHierarchy(ctx context.Context) (*hierarchy, error) {
	dbTasks, err := e.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	dbProjects, err := e.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	h := &hierarchy{
		tasks:            make(map[string]*domain.Task, len(dbTasks)),
		projects:         make(map[string]*domain.Project, len(dbProjects)),
		taskChildren:     make(map[string][]string),
		projectChildren:  make(map[string][]string),
		projectRootTasks: make(map[string][]string),
	}

	for _, dbTask := range dbTasks {
		task := e.mapper.Task.FromDatabase(*dbTask)
		h.tasks[task.ID] = &task
	}
	for _, dbProject := range dbProjects {
		project := e.mapper.Project.FromDatabase(*dbProject)
		h.projects[project.ID] = &project
	}

	for id, task := range h.tasks {
		if task.ParentTaskID != nil {
			h.taskChildren[*task.ParentTaskID] = append(h.taskChildren[*task.ParentTaskID], id)
		}
		if task.ProjectID != nil {
			if h.isProjectRootTask(task) {
				h.projectRootTasks[*task.ProjectID] = append(h.projectRootTasks[*task.ProjectID], id)
			}
		}
	}
	for id, project := range h.projects {
		if project.ParentProjectID != nil {
			h.projectChildren[*project.ParentProjectID] = append(h.projectChildren[*project.ParentProjectID], id)
		}
	}

	// Deterministic child ordering for stable breakdowns.
	for _, children := range h.taskChildren {
		sort.Strings(children)
	}
	for _, children := range h.projectChildren {
		sort.Strings(children)
	}
	for _, roots := range h.projectRootTasks {
		sort.Strings(roots)
	}

	return h, nil
}

// isProjectRootTask reports whether the task heads a task tree within its
// project. A task whose parent belongs to the same project is rolled up
// through the parent instead.
func (h *hierarchy) isProjectRootTask(task *domain.Task) bool {
	if task.ParentTaskID == nil {
		return true
	}
	parent, ok := h.tasks[*task.ParentTaskID]
	if !ok {
		return true
	}
	return parent.ProjectID == nil || *parent.ProjectID != *task.ProjectID
}
