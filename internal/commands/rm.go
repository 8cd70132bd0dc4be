package commands

import (
	"context"
	"flag"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/session"
	"taskboard/internal/views"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "taskboard rm <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	if len(args) > 1 {
		return userError(errOut, "unexpected argument: %s", args[1])
	}

	d, err := loadDashboard(ctx, cfg, sess)
	if err != nil {
		return reportError(errOut, err)
	}
	task, _, err := ResolveTask(d.Tasks.Snapshot(), ref)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	if err := views.NewTaskList(d).Delete(ctx, task.ID); err != nil {
		return reportError(errOut, err)
	}
	return ok(cfg, out)
}
