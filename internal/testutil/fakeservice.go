// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It models a single backend: data calls do not check credentials, only
// CurrentUser does (through the gateways returned by Factory).
type FakeService struct {
	mu       sync.Mutex
	users    []fakeUser
	tokens   map[string]string // token -> user id
	projects []service.Project
	tasks    []service.Task
	calls    []string

	// Now is the clock used for timestamps and overdue counts.
	Now func() time.Time

	// Error injection for testing
	HealthErr        error
	LoginErr         error
	RegisterErr      error
	CurrentUserErr   error
	ListTasksErr     error
	GetTaskErr       error
	CreateTaskErr    error
	UpdateTaskErr    error
	DeleteTaskErr    error
	ListProjectsErr  error
	GetProjectErr    error
	CreateProjectErr error
	UpdateProjectErr error
	DeleteProjectErr error
	StatsErr         error
}

type fakeUser struct {
	user     service.User
	password string
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		tokens: make(map[string]string),
		Now:    time.Now,
	}
}

// AddUser adds an account and returns it.
func (f *FakeService) AddUser(id, name, email, password string) service.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := service.User{ID: id, Name: name, Email: email, CreatedAt: f.Now()}
	f.users = append(f.users, fakeUser{user: u, password: password})
	return u
}

// IssueToken binds a new token to a user id.
func (f *FakeService) IssueToken(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked(userID)
}

// RevokeTokens invalidates every issued token.
func (f *FakeService) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

// AddProject adds a project.
func (f *FakeService) AddProject(id, name string) service.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := service.Project{ID: id, Name: name, Color: service.DefaultColor, CreatedAt: f.Now(), UpdatedAt: f.Now()}
	f.projects = append(f.projects, p)
	return p
}

// AddTask adds a task. Empty status and priority get the defaults.
func (f *FakeService) AddTask(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Status == "" {
		t.Status = service.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = service.DefaultPriority
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = f.Now()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Task returns the stored task with id.
func (f *FakeService) Task(id string) (service.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Calls returns the recorded calls, e.g. "UpdateTask t1 status=done".
func (f *FakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many recorded calls start with prefix.
func (f *FakeService) CallCount(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (f *FakeService) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Factory returns a gateway factory whose gateways share this backend.
func (f *FakeService) Factory() func(token string) (service.Service, error) {
	return func(token string) (service.Service, error) {
		return &boundService{FakeService: f, token: token}, nil
	}
}

type boundService struct {
	*FakeService
	token string
}

func (b *boundService) CurrentUser(ctx context.Context) (service.User, error) {
	return b.userForToken(b.token)
}

func (f *FakeService) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *FakeService) issueLocked(userID string) string {
	tok := "tok-" + uuid.NewString()
	f.tokens[tok] = userID
	return tok
}

func (f *FakeService) userForToken(token string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CurrentUser")
	if f.CurrentUserErr != nil {
		return service.User{}, f.CurrentUserErr
	}
	id, ok := f.tokens[token]
	if ok {
		for _, u := range f.users {
			if u.user.ID == id {
				return u.user, nil
			}
		}
	}
	return service.User{}, &service.APIError{Kind: service.ErrUnauthorized, Status: 401, Detail: "Could not validate credentials"}
}

func notFound(what string) error {
	return &service.APIError{Kind: service.ErrNotFound, Status: 404, Detail: what + " not found"}
}

// Health implements service.Service.
func (f *FakeService) Health(ctx context.Context) (service.Health, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Health")
	if f.HealthErr != nil {
		return service.Health{}, f.HealthErr
	}
	return service.Health{Status: "healthy", Timestamp: f.Now(), Database: "connected"}, nil
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, email, password string) (service.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Login %s", email)
	if f.LoginErr != nil {
		return service.AuthResult{}, f.LoginErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.user.Email, email) && u.password == password {
			return service.AuthResult{AccessToken: f.issueLocked(u.user.ID), TokenType: "bearer", User: u.user}, nil
		}
	}
	return service.AuthResult{}, &service.APIError{Kind: service.ErrUnauthorized, Status: 401, Detail: "Incorrect email or password"}
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, name, email, password string) (service.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Register %s", email)
	if f.RegisterErr != nil {
		return service.AuthResult{}, f.RegisterErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.user.Email, email) {
			return service.AuthResult{}, &service.APIError{Kind: service.ErrValidation, Status: 400, Detail: "Email already registered"}
		}
	}
	u := service.User{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: f.Now()}
	f.users = append(f.users, fakeUser{user: u, password: password})
	return service.AuthResult{AccessToken: f.issueLocked(u.ID), TokenType: "bearer", User: u}, nil
}

// CurrentUser implements service.Service. The unbound fake has no credential.
func (f *FakeService) CurrentUser(ctx context.Context) (service.User, error) {
	return f.userForToken("")
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, projectID string) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTasks %s", projectID)
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	var out []service.Task
	for _, t := range f.tasks {
		if projectID == "" || t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetTask %s", id)
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, notFound("Task")
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTask %s", in.Title)
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	now := f.Now()
	t := service.Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      service.StatusTodo,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = service.DefaultPriority
	}
	if in.ProjectID != nil {
		t.ProjectID = *in.ProjectID
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if patch.Status != nil {
		f.record("UpdateTask %s status=%s", id, *patch.Status)
	} else {
		f.record("UpdateTask %s", id)
	}
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			t = patch.Apply(t)
			t.UpdatedAt = f.Now()
			f.tasks[i] = t
			return t, nil
		}
	}
	return service.Task{}, notFound("Task")
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask %s", id)
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return notFound("Task")
}

// ListProjects implements service.Service.
func (f *FakeService) ListProjects(ctx context.Context) ([]service.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListProjects")
	if f.ListProjectsErr != nil {
		return nil, f.ListProjectsErr
	}
	out := make([]service.Project, len(f.projects))
	copy(out, f.projects)
	return out, nil
}

// GetProject implements service.Service.
func (f *FakeService) GetProject(ctx context.Context, id string) (service.ProjectDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetProject %s", id)
	if f.GetProjectErr != nil {
		return service.ProjectDetail{}, f.GetProjectErr
	}
	for _, p := range f.projects {
		if p.ID != id {
			continue
		}
		detail := service.ProjectDetail{Project: p}
		for _, t := range f.tasks {
			if t.ProjectID == id {
				detail.Tasks = append(detail.Tasks, t)
			}
		}
		return detail, nil
	}
	return service.ProjectDetail{}, notFound("Project")
}

// CreateProject implements service.Service.
func (f *FakeService) CreateProject(ctx context.Context, in service.ProjectInput) (service.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateProject %s", in.Name)
	if f.CreateProjectErr != nil {
		return service.Project{}, f.CreateProjectErr
	}
	now := f.Now()
	p := service.Project{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Color == "" {
		p.Color = service.DefaultColor
	}
	f.projects = append(f.projects, p)
	return p, nil
}

// UpdateProject implements service.Service.
func (f *FakeService) UpdateProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateProject %s", id)
	if f.UpdateProjectErr != nil {
		return service.Project{}, f.UpdateProjectErr
	}
	for i, p := range f.projects {
		if p.ID != id {
			continue
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Color != nil {
			p.Color = *patch.Color
		}
		p.UpdatedAt = f.Now()
		f.projects[i] = p
		return p, nil
	}
	return service.Project{}, notFound("Project")
}

// DeleteProject implements service.Service. Tasks of the project are
// deleted with it.
func (f *FakeService) DeleteProject(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteProject %s", id)
	if f.DeleteProjectErr != nil {
		return f.DeleteProjectErr
	}
	kept := f.tasks[:0]
	for _, t := range f.tasks {
		if t.ProjectID != id {
			kept = append(kept, t)
		}
	}
	f.tasks = kept
	for i, p := range f.projects {
		if p.ID == id {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			return nil
		}
	}
	return notFound("Project")
}

// DashboardStats implements service.Service.
func (f *FakeService) DashboardStats(ctx context.Context) (service.DashboardStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DashboardStats")
	if f.StatsErr != nil {
		return service.DashboardStats{}, f.StatsErr
	}
	now := f.Now()
	s := service.DashboardStats{TotalTasks: len(f.tasks), TotalProjects: len(f.projects)}
	for _, t := range f.tasks {
		switch t.Status {
		case service.StatusDone:
			s.CompletedTasks++
		case service.StatusInProgress:
			s.InProgressTasks++
		case service.StatusTodo:
			s.TodoTasks++
		}
		if t.Overdue(now) {
			s.OverdueTasks++
		}
	}
	if s.TotalTasks > 0 {
		rate := float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
		s.CompletionRate = float64(int(rate*10+0.5)) / 10
	}
	return s, nil
}

var _ service.Service = (*FakeService)(nil)
