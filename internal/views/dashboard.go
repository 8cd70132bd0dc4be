// Package views holds the view controllers: the dashboard, the task list,
// and the project Kanban board. Each renders from shared entity caches and
// turns gateway failures into feedback or a reconciling refresh; nothing a
// view does is fatal.
package views

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"taskboard/internal/cache"
	"taskboard/internal/reconcile"
	"taskboard/internal/service"
)

// Backend supplies the gateway for the current credential.
// *session.Session satisfies it.
type Backend interface {
	Service() service.Service
}

// Options configures the views.
type Options struct {
	Log *slog.Logger
	// OnAuthFailure runs when the backend rejects the credential. It
	// typically logs the session out.
	OnAuthFailure func(ctx context.Context)
	Now           func() time.Time
}

// Dashboard owns the task and project caches shared by every view.
type Dashboard struct {
	backend       Backend
	log           *slog.Logger
	onAuthFailure func(ctx context.Context)
	now           func() time.Time

	Tasks    *cache.Collection[service.Task]
	Projects *cache.Collection[service.Project]

	mu    sync.RWMutex
	stats service.DashboardStats
}

// NewDashboard creates an empty dashboard.
func NewDashboard(b Backend, opts Options) *Dashboard {
	d := &Dashboard{
		backend:       b,
		log:           opts.Log,
		onAuthFailure: opts.OnAuthFailure,
		now:           opts.Now,
		Tasks:         cache.New(func(t service.Task) string { return t.ID }),
		Projects:      cache.New(func(p service.Project) string { return p.ID }),
	}
	if d.log == nil {
		d.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Refresh re-fetches stats, projects and tasks in parallel.
func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.handle(ctx, d.refresh(ctx), nil)
}

func (d *Dashboard) refresh(ctx context.Context) error {
	svc := d.backend.Service()

	var (
		stats    service.DashboardStats
		projects []service.Project
		tasks    []service.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = svc.DashboardStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = svc.ListProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = svc.ListTasks(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	d.mu.Lock()
	d.stats = stats
	d.mu.Unlock()
	d.Projects.Replace(projects)
	d.Tasks.Replace(tasks)
	d.log.Debug("dashboard refreshed", "projects", len(projects), "tasks", len(tasks))
	return nil
}

// Stats returns the last fetched server snapshot.
func (d *Dashboard) Stats() service.DashboardStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// ProjectTaskCount returns how many cached tasks reference projectID.
func (d *Dashboard) ProjectTaskCount(projectID string) int {
	n := 0
	for _, t := range d.Tasks.Snapshot() {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n
}

// Reset empties every cache.
func (d *Dashboard) Reset() {
	d.mu.Lock()
	d.stats = service.DashboardStats{}
	d.mu.Unlock()
	d.Tasks.Replace(nil)
	d.Projects.Replace(nil)
}

// handle reacts to a gateway error and returns it for display. A rejected
// credential resets the caches and runs the auth hook; a stale reference
// runs reconcileFn, or a full refresh when reconcileFn is nil.
func (d *Dashboard) handle(ctx context.Context, err error, reconcileFn func(context.Context) error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrUnauthorized):
		d.log.Info("credential rejected, logging out", "error", err)
		d.Reset()
		if d.onAuthFailure != nil {
			d.onAuthFailure(ctx)
		}
	case errors.Is(err, service.ErrNotFound):
		if reconcileFn == nil {
			reconcileFn = d.refresh
		}
		if rerr := reconcileFn(ctx); rerr != nil {
			d.log.Warn("reconciling refresh failed", "error", rerr)
		}
	}
	return err
}

// unlessRefreshed returns reconcileFn, or a no-op when the mutation's policy
// refresh already re-fetched state.
func unlessRefreshed(res reconcile.Result, reconcileFn func(context.Context) error) func(context.Context) error {
	if res.Refreshed != reconcile.None {
		return func(context.Context) error { return nil }
	}
	return reconcileFn
}
