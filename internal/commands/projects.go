package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/session"
)

func init() {
	Register(&ProjectsCmd{})
}

// ProjectsCmd implements the projects command.
type ProjectsCmd struct{}

func (c *ProjectsCmd) Name() string      { return "projects" }
func (c *ProjectsCmd) Aliases() []string { return nil }
func (c *ProjectsCmd) Synopsis() string  { return "List projects" }
func (c *ProjectsCmd) Usage() string     { return "taskboard projects [common flags]" }
func (c *ProjectsCmd) NeedsAuth() bool   { return true }

func (c *ProjectsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProjectsCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	d, err := loadDashboard(ctx, cfg, sess)
	if err != nil {
		return reportError(errOut, err)
	}

	projects := d.Projects.Snapshot()
	if len(projects) == 0 {
		fmt.Fprintln(out, "no projects found")
		return exitcode.Success
	}
	for i, p := range projects {
		output.FormatProject(out, i+1, p, d.ProjectTaskCount(p.ID))
	}
	return exitcode.Success
}
