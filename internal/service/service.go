package service

import "context"

// Service defines the interface for task backend operations.
// All backend calls go through this interface; commands and views never
// speak HTTP directly.
type Service interface {
	// Health reports backend liveness. Does not require authentication.
	Health(ctx context.Context) (Health, error)

	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, email, password string) (AuthResult, error)

	// Register creates an account and returns its bearer token.
	Register(ctx context.Context, name, email, password string) (AuthResult, error)

	// CurrentUser returns the profile bound to the credential.
	CurrentUser(ctx context.Context) (User, error)

	// ListTasks returns the user's tasks in API order.
	// An empty projectID returns all tasks, including project tasks.
	ListTasks(ctx context.Context, projectID string) ([]Task, error)

	// GetTask returns a single task.
	GetTask(ctx context.Context, id string) (Task, error)

	// CreateTask creates a task. New tasks start in StatusTodo.
	CreateTask(ctx context.Context, in TaskInput) (Task, error)

	// UpdateTask applies a partial update and returns the stored record.
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error

	// ListProjects returns the user's projects in API order.
	ListProjects(ctx context.Context) ([]Project, error)

	// GetProject returns a project with its tasks.
	GetProject(ctx context.Context, id string) (ProjectDetail, error)

	// CreateProject creates a project.
	CreateProject(ctx context.Context, in ProjectInput) (Project, error)

	// UpdateProject applies a partial update and returns the stored record.
	UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error)

	// DeleteProject deletes a project and, server-side, all of its tasks.
	DeleteProject(ctx context.Context, id string) error

	// DashboardStats returns the aggregate counters.
	DashboardStats(ctx context.Context) (DashboardStats, error)
}
