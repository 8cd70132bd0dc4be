package commands

import (
	"context"
	"flag"
	"io"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/session"
)

func init() {
	Register(&DashboardCmd{})
}

// DashboardCmd prints the dashboard home.
type DashboardCmd struct {
	now func() time.Time
}

// SetClock overrides the clock (for testing).
func (c *DashboardCmd) SetClock(now func() time.Time) { c.now = now }

func (c *DashboardCmd) Name() string      { return "dashboard" }
func (c *DashboardCmd) Aliases() []string { return []string{"home"} }
func (c *DashboardCmd) Synopsis() string  { return "Show counters, deadlines and recent tasks" }
func (c *DashboardCmd) Usage() string     { return "taskboard dashboard" }
func (c *DashboardCmd) NeedsAuth() bool   { return true }

func (c *DashboardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DashboardCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	d, err := loadDashboard(ctx, cfg, sess)
	if err != nil {
		return reportError(errOut, err)
	}
	now := time.Now()
	if c.now != nil {
		now = c.now()
	}
	output.FormatSummary(out, d.Summary(now), projectNames(d), now)
	return exitcode.Success
}
