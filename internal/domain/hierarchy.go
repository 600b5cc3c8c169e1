package domain

// Task is the read-side view of a task consumed by the rollup engine:
// its identity, its position in the task tree, and the project it belongs
// to. Task CRUD lives outside this core.
type Task struct {
	ID           string
	Name         string
	ParentTaskID *string
	ProjectID    *string
}

// Project is the read-side view of a project. The project tree is
// independent of the task tree and can nest arbitrarily.
type Project struct {
	ID              string
	Name            string
	ParentProjectID *string
}
