package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"taskboard/internal/cache"
	"taskboard/internal/dnd"
	"taskboard/internal/reconcile"
	"taskboard/internal/service"
)

// Column is one Kanban column.
type Column struct {
	Status service.Status
	Tasks  []service.Task
}

// ProjectBoard is the project list plus the Kanban board of the selected
// project.
type ProjectBoard struct {
	d   *Dashboard
	rec *reconcile.Reconciler

	// tasks holds the selected project's tasks in board order.
	tasks *cache.Collection[service.Task]

	mu       sync.RWMutex
	selected *service.Project
}

// NewProjectBoard creates a board over the dashboard caches.
func NewProjectBoard(d *Dashboard) *ProjectBoard {
	b := &ProjectBoard{
		d:     d,
		tasks: cache.New(func(t service.Task) string { return t.ID }),
	}
	b.rec = reconcile.New(reconcile.BoardPolicy, reconcile.RefresherFunc(b.reload), d.log.With("view", "board"))
	return b
}

func (b *ProjectBoard) reload(ctx context.Context, scope reconcile.Scope) error {
	if scope == reconcile.Full {
		if err := b.d.refresh(ctx); err != nil {
			return err
		}
	}
	return b.loadSelected(ctx)
}

// loadSelected re-fetches the selected project's detail. A project that no
// longer exists is deselected.
func (b *ProjectBoard) loadSelected(ctx context.Context) error {
	sel, ok := b.Selected()
	if !ok {
		b.tasks.Replace(nil)
		return nil
	}
	detail, err := b.d.backend.Service().GetProject(ctx, sel.ID)
	if errors.Is(err, service.ErrNotFound) {
		b.Deselect()
		return nil
	}
	if err != nil {
		return err
	}
	b.apply(detail)
	return nil
}

func (b *ProjectBoard) apply(detail service.ProjectDetail) {
	p := detail.Project
	b.mu.Lock()
	b.selected = &p
	b.mu.Unlock()
	b.tasks.Replace(detail.Tasks)

	// Keep the shared cache in step with the project's server state.
	for _, t := range detail.Tasks {
		t := t
		b.d.Tasks.Update(t.ID, func(service.Task) service.Task { return t })
	}
}

// Refresh re-fetches everything, including the selected project.
func (b *ProjectBoard) Refresh(ctx context.Context) error {
	return b.d.handle(ctx, b.rec.Refresh(ctx, reconcile.Full), b.loadSelected)
}

// Reload re-fetches the selected project's detail.
func (b *ProjectBoard) Reload(ctx context.Context) error {
	return b.d.handle(ctx, b.loadSelected(ctx), nil)
}

// Resync copies the shared cache's version of each card onto the board. A
// card whose status changed there moves to the end of its new column.
func (b *ProjectBoard) Resync() {
	b.tasks.Mutate(func(ts []service.Task) []service.Task {
		out := ts
		for _, t := range ts {
			shared, ok := b.d.Tasks.Get(t.ID)
			if !ok {
				continue
			}
			if shared.Status != t.Status {
				end := len(dnd.Columns(out)[shared.Status])
				out, _ = dnd.MoveToColumn(out, t.ID, shared.Status, end)
			}
			for i := range out {
				if out[i].ID == t.ID {
					out[i] = shared
				}
			}
		}
		return out
	})
}

// Dashboard returns the shared caches the board reads from.
func (b *ProjectBoard) Dashboard() *Dashboard { return b.d }

// Projects returns the cached projects.
func (b *ProjectBoard) Projects() []service.Project {
	return b.d.Projects.Snapshot()
}

// Select opens the board for projectID.
func (b *ProjectBoard) Select(ctx context.Context, projectID string) error {
	detail, err := b.d.backend.Service().GetProject(ctx, projectID)
	if err != nil {
		return b.d.handle(ctx, err, nil)
	}
	b.apply(detail)
	return nil
}

// Selected returns the open project.
func (b *ProjectBoard) Selected() (service.Project, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.selected == nil {
		return service.Project{}, false
	}
	return *b.selected, true
}

// Deselect closes the board.
func (b *ProjectBoard) Deselect() {
	b.mu.Lock()
	b.selected = nil
	b.mu.Unlock()
	b.tasks.Replace(nil)
}

// Tasks returns the selected project's tasks in board order.
func (b *ProjectBoard) Tasks() []service.Task {
	return b.tasks.Snapshot()
}

// Columns groups the board's tasks by status in column order.
func (b *ProjectBoard) Columns() []Column {
	grouped := dnd.Columns(b.tasks.Snapshot())
	cols := make([]Column, 0, len(service.Statuses))
	for _, s := range service.Statuses {
		cols = append(cols, Column{Status: s, Tasks: grouped[s]})
	}
	return cols
}

// SaveProject submits the project form: a create when id is empty,
// otherwise an edit of every form field.
func (b *ProjectBoard) SaveProject(ctx context.Context, id string, in service.ProjectInput) (service.Project, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return service.Project{}, err
	}
	if id == "" {
		return b.CreateProject(ctx, in)
	}
	return b.UpdateProject(ctx, id, service.ProjectPatch{
		Name:        &in.Name,
		Description: &in.Description,
		Color:       &in.Color,
	})
}

// CreateProject adds a project.
func (b *ProjectBoard) CreateProject(ctx context.Context, in service.ProjectInput) (service.Project, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return service.Project{}, err
	}
	var created service.Project
	res, err := b.rec.Do(ctx, reconcile.Mutation{
		Kind: reconcile.Create,
		Commit: func(ctx context.Context) (err error) {
			created, err = b.d.backend.Service().CreateProject(ctx, in)
			return err
		},
	})
	return created, b.d.handle(ctx, err, unlessRefreshed(res, b.fullReload))
}

// UpdateProject applies a partial edit.
func (b *ProjectBoard) UpdateProject(ctx context.Context, id string, patch service.ProjectPatch) (service.Project, error) {
	if err := patch.Validate(); err != nil {
		return service.Project{}, err
	}
	var updated service.Project
	res, err := b.rec.Do(ctx, reconcile.Mutation{
		Kind: reconcile.Update,
		Key:  "project:" + id,
		Commit: func(ctx context.Context) (err error) {
			updated, err = b.d.backend.Service().UpdateProject(ctx, id, patch)
			return err
		},
	})
	return updated, b.d.handle(ctx, err, unlessRefreshed(res, b.fullReload))
}

// DeleteProject removes a project; the backend deletes its tasks with it.
// Deleting the open project closes the board.
func (b *ProjectBoard) DeleteProject(ctx context.Context, id string) error {
	res, err := b.rec.Do(ctx, reconcile.Mutation{
		Kind: reconcile.Delete,
		Key:  "project:" + id,
		Commit: func(ctx context.Context) error {
			if err := b.d.backend.Service().DeleteProject(ctx, id); err != nil {
				return err
			}
			if sel, ok := b.Selected(); ok && sel.ID == id {
				b.Deselect()
			}
			return nil
		},
	})
	return b.d.handle(ctx, err, unlessRefreshed(res, b.fullReload))
}

func (b *ProjectBoard) fullReload(ctx context.Context) error {
	return b.reload(ctx, reconcile.Full)
}

// ChangeStatus moves a task to the end of the column for status.
func (b *ProjectBoard) ChangeStatus(ctx context.Context, taskID string, status service.Status) error {
	index := len(dnd.Columns(b.tasks.Snapshot())[status])
	p, err := b.BeginMove(taskID, status, index)
	if err != nil {
		return err
	}
	return b.Finish(ctx, p)
}

// Drop applies a finished drag on the board.
func (b *ProjectBoard) Drop(ctx context.Context, d dnd.Drop) error {
	if d.Outcome != dnd.StatusChange {
		return nil
	}
	p, err := b.BeginMove(d.TaskID, d.Status(), d.Dest.Index)
	if err != nil {
		return err
	}
	return b.Finish(ctx, p)
}

// BeginMove splices a task into the status column at index, applies the
// result to the board and returns the pending status commit.
func (b *ProjectBoard) BeginMove(taskID string, status service.Status, index int) (*reconcile.Pending, error) {
	if !status.Valid() {
		return nil, &service.FieldError{Field: "status", Message: fmt.Sprintf("invalid status: %s", status)}
	}
	if _, ok := b.tasks.Get(taskID); !ok {
		return nil, &service.APIError{Kind: service.ErrNotFound, Detail: "Task not on this board"}
	}
	return b.rec.Begin(reconcile.Mutation{
		Kind: reconcile.StatusChange,
		Key:  taskID,
		Apply: func() {
			b.tasks.Mutate(func(ts []service.Task) []service.Task {
				out, _ := dnd.MoveToColumn(ts, taskID, status, index)
				return out
			})
			b.d.Tasks.Update(taskID, func(t service.Task) service.Task {
				t.Status = status
				return t
			})
		},
		Commit: func(ctx context.Context) error {
			_, err := b.d.backend.Service().UpdateTask(ctx, taskID, service.StatusPatch(status))
			return err
		},
	}), nil
}

// Finish commits a pending mutation begun by this board.
func (b *ProjectBoard) Finish(ctx context.Context, p *reconcile.Pending) error {
	res, err := p.Finish(ctx)
	return b.d.handle(ctx, err, unlessRefreshed(res, b.loadSelected))
}
