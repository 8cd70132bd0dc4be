package commands

import (
	"context"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/views"
)

// newDashboard builds the shared caches for one command run. A rejected
// credential logs the session out.
func newDashboard(cfg *config.Config, sess *session.Session) *views.Dashboard {
	return views.NewDashboard(sess, views.Options{
		Log: logger(cfg),
		OnAuthFailure: func(ctx context.Context) {
			if err := sess.Logout(ctx); err != nil {
				logger(cfg).Warn("logout after rejected credential failed", "error", err)
			}
		},
		Now: time.Now,
	})
}

// loadDashboard builds the dashboard and fetches everything.
func loadDashboard(ctx context.Context, cfg *config.Config, sess *session.Session) (*views.Dashboard, error) {
	d := newDashboard(cfg, sess)
	if err := d.Refresh(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// projectNames maps project ids to names.
func projectNames(d *views.Dashboard) map[string]string {
	names := make(map[string]string)
	for _, p := range d.Projects.Snapshot() {
		names[p.ID] = p.Name
	}
	return names
}

// listingNumbers maps task ids to their 1-based number in the full listing.
func listingNumbers(tasks []service.Task) map[string]int {
	nums := make(map[string]int, len(tasks))
	for i, t := range tasks {
		nums[t.ID] = i + 1
	}
	return nums
}
