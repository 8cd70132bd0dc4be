package commands

import (
	"context"
	"flag"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/views"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return nil }
func (c *StatusCmd) Synopsis() string  { return "Change a task's status" }
func (c *StatusCmd) Usage() string     { return "taskboard status <ref> <todo|in_progress|done>" }
func (c *StatusCmd) NeedsAuth() bool   { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		if len(args) == 0 {
			return userError(errOut, "%v", ErrTaskRefRequired)
		}
		return userError(errOut, "status required")
	}
	status, err := service.ParseStatus(args[1])
	if err != nil {
		return reportError(errOut, err)
	}
	return runStatus(ctx, cfg, sess, args[:1], status, out, errOut)
}

// runStatus is the shared implementation for done and status.
func runStatus(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, status service.Status, out, errOut io.Writer) int {
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
	if task.Status == status {
		return ok(cfg, out)
	}
	if err := views.NewTaskList(d).ChangeStatus(ctx, task.ID, status); err != nil {
		return reportError(errOut, err)
	}
	return ok(cfg, out)
}
