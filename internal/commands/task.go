package commands

import (
	"context"
	"flag"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/session"
)

func init() {
	Register(&TaskCmd{})
}

// TaskCmd prints every field of one task.
type TaskCmd struct{}

func (c *TaskCmd) Name() string      { return "task" }
func (c *TaskCmd) Aliases() []string { return []string{"show"} }
func (c *TaskCmd) Synopsis() string  { return "Show a task" }
func (c *TaskCmd) Usage() string     { return "taskboard task <ref>" }
func (c *TaskCmd) NeedsAuth() bool   { return true }

func (c *TaskCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TaskCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	d, err := loadDashboard(ctx, cfg, sess)
	if err != nil {
		return reportError(errOut, err)
	}
	task, _, err := ResolveTask(d.Tasks.Snapshot(), ref)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	output.FormatTaskDetail(out, task, projectNames(d)[task.ProjectID])
	return exitcode.Success
}
