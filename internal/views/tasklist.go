package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"taskboard/internal/dnd"
	"taskboard/internal/reconcile"
	"taskboard/internal/service"
)

// FilterAll disables a filter.
const FilterAll = "all"

// TaskList is the flat task view. It shares the dashboard's caches.
type TaskList struct {
	d   *Dashboard
	rec *reconcile.Reconciler

	mu       sync.RWMutex
	status   service.Status
	priority service.Priority
}

// NewTaskList creates a task list over the dashboard caches.
func NewTaskList(d *Dashboard) *TaskList {
	l := &TaskList{d: d}
	l.rec = reconcile.New(reconcile.ListPolicy, reconcile.RefresherFunc(l.reload), d.log.With("view", "tasks"))
	return l
}

// The list has no narrower scope than everything.
func (l *TaskList) reload(ctx context.Context, _ reconcile.Scope) error {
	return l.d.refresh(ctx)
}

// Refresh re-fetches everything.
func (l *TaskList) Refresh(ctx context.Context) error {
	return l.d.handle(ctx, l.rec.Refresh(ctx, reconcile.Full), nil)
}

// Filter restricts Visible to a status and priority. "all" or "" disables
// either filter.
func (l *TaskList) Filter(status, priority string) error {
	var (
		st  service.Status
		pri service.Priority
		err error
	)
	if status = strings.TrimSpace(status); status != "" && !strings.EqualFold(status, FilterAll) {
		if st, err = service.ParseStatus(status); err != nil {
			return err
		}
	}
	if priority = strings.TrimSpace(priority); priority != "" && !strings.EqualFold(priority, FilterAll) {
		if pri, err = service.ParsePriority(priority); err != nil {
			return err
		}
	}
	l.mu.Lock()
	l.status, l.priority = st, pri
	l.mu.Unlock()
	return nil
}

// Visible returns the cached tasks that pass the filters, in cache order.
func (l *TaskList) Visible() []service.Task {
	l.mu.RLock()
	st, pri := l.status, l.priority
	l.mu.RUnlock()

	all := l.d.Tasks.Snapshot()
	if st == "" && pri == "" {
		return all
	}
	out := all[:0]
	for _, t := range all {
		if (st == "" || t.Status == st) && (pri == "" || t.Priority == pri) {
			out = append(out, t)
		}
	}
	return out
}

// Save submits the task form: a create when id is empty, otherwise an edit
// of every form field. Either way the list is fully refreshed on success.
func (l *TaskList) Save(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	if id == "" {
		return l.Create(ctx, in)
	}
	patch := service.TaskPatch{
		Title:       &in.Title,
		Description: &in.Description,
		Priority:    &in.Priority,
		DueDate:     in.DueDate,
		ProjectID:   in.ProjectID,
	}
	return l.Update(ctx, id, patch)
}

// Create adds a task.
func (l *TaskList) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	var created service.Task
	res, err := l.rec.Do(ctx, reconcile.Mutation{
		Kind: reconcile.Create,
		Commit: func(ctx context.Context) (err error) {
			created, err = l.d.backend.Service().CreateTask(ctx, in)
			return err
		},
	})
	return created, l.d.handle(ctx, err, unlessRefreshed(res, nil))
}

// Update applies a partial edit.
func (l *TaskList) Update(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if err := patch.Validate(); err != nil {
		return service.Task{}, err
	}
	var updated service.Task
	res, err := l.rec.Do(ctx, reconcile.Mutation{
		Kind: reconcile.Update,
		Key:  id,
		Commit: func(ctx context.Context) (err error) {
			updated, err = l.d.backend.Service().UpdateTask(ctx, id, patch)
			return err
		},
	})
	return updated, l.d.handle(ctx, err, unlessRefreshed(res, nil))
}

// Delete removes a task.
func (l *TaskList) Delete(ctx context.Context, id string) error {
	res, err := l.rec.Do(ctx, reconcile.Mutation{
		Kind: reconcile.Delete,
		Key:  id,
		Commit: func(ctx context.Context) error {
			return l.d.backend.Service().DeleteTask(ctx, id)
		},
	})
	return l.d.handle(ctx, err, unlessRefreshed(res, nil))
}

// ChangeStatus sets a task's status optimistically and commits it.
func (l *TaskList) ChangeStatus(ctx context.Context, id string, status service.Status) error {
	p, err := l.BeginStatus(id, status)
	if err != nil {
		return err
	}
	return l.Finish(ctx, p)
}

// BeginStatus applies a status change to the cache and returns the pending
// commit.
func (l *TaskList) BeginStatus(id string, status service.Status) (*reconcile.Pending, error) {
	if !status.Valid() {
		return nil, &service.FieldError{Field: "status", Message: fmt.Sprintf("invalid status: %s", status)}
	}
	if _, ok := l.d.Tasks.Get(id); !ok {
		return nil, &service.APIError{Kind: service.ErrNotFound, Detail: "Task not found"}
	}
	return l.rec.Begin(reconcile.Mutation{
		Kind: reconcile.StatusChange,
		Key:  id,
		Apply: func() {
			l.d.Tasks.Update(id, func(t service.Task) service.Task {
				t.Status = status
				return t
			})
		},
		Commit: func(ctx context.Context) error {
			_, err := l.d.backend.Service().UpdateTask(ctx, id, service.StatusPatch(status))
			return err
		},
	}), nil
}

// Finish commits a pending mutation begun by this view.
func (l *TaskList) Finish(ctx context.Context, p *reconcile.Pending) error {
	res, err := p.Finish(ctx)
	return l.d.handle(ctx, err, unlessRefreshed(res, nil))
}

// Drop applies a finished drag over Visible. Reorders stay local; a drop
// onto a status column changes the task's status.
func (l *TaskList) Drop(ctx context.Context, d dnd.Drop) error {
	switch d.Outcome {
	case dnd.Reorder:
		return l.reorder(ctx, d)
	case dnd.StatusChange:
		return l.ChangeStatus(ctx, d.TaskID, d.Status())
	}
	return nil
}

func (l *TaskList) reorder(ctx context.Context, d dnd.Drop) error {
	visible := l.Visible()
	from, to := d.Source.Index, d.Dest.Index
	if from < 0 || from >= len(visible) || to < 0 || to >= len(visible) {
		return &service.FieldError{Field: "position", Message: fmt.Sprintf("position out of range (1-%d)", len(visible))}
	}
	if visible[from].ID != d.TaskID {
		return l.d.handle(ctx, &service.APIError{Kind: service.ErrNotFound, Detail: "Task moved while dragging"}, nil)
	}
	cacheFrom := l.d.Tasks.IndexOf(visible[from].ID)
	cacheTo := l.d.Tasks.IndexOf(visible[to].ID)
	_, err := l.rec.Do(ctx, reconcile.Mutation{
		Kind:  reconcile.Reorder,
		Key:   d.TaskID,
		Apply: func() { l.d.Tasks.Move(cacheFrom, cacheTo) },
	})
	return err
}
