package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/session"
	"taskboard/internal/views"
)

func init() {
	Register(&RmProjectCmd{})
}

// RmProjectCmd implements the rmproject command. Deleting a project deletes
// its tasks, so a non-empty project needs --force.
type RmProjectCmd struct {
	force bool
}

// SetForce sets the force flag (for testing).
func (c *RmProjectCmd) SetForce(force bool) {
	c.force = force
}

func (c *RmProjectCmd) Name() string      { return "rmproject" }
func (c *RmProjectCmd) Aliases() []string { return nil }
func (c *RmProjectCmd) Synopsis() string  { return "Delete a project and its tasks" }
func (c *RmProjectCmd) Usage() string     { return "taskboard rmproject [--force] <project>" }
func (c *RmProjectCmd) NeedsAuth() bool   { return true }

func (c *RmProjectCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
	fs.BoolVar(&c.force, "f", false, "")
}

func (c *RmProjectCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	name := strings.Join(args, " ")
	if strings.TrimSpace(name) == "" {
		return userError(errOut, "project name required")
	}

	d, err := loadDashboard(ctx, cfg, sess)
	if err != nil {
		return reportError(errOut, err)
	}
	p, err := ResolveProject(d.Projects.Snapshot(), name)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	if !c.force && d.ProjectTaskCount(p.ID) > 0 {
		return userError(errOut, "project not empty (use --force)")
	}

	if err := views.NewProjectBoard(d).DeleteProject(ctx, p.ID); err != nil {
		return reportError(errOut, err)
	}
	return ok(cfg, out)
}
