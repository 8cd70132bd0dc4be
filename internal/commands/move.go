package commands

import (
	"context"
	"flag"
	"io"
	"strconv"

	"taskboard/internal/config"
	"taskboard/internal/dnd"
	"taskboard/internal/exitcode"
	"taskboard/internal/session"
	"taskboard/internal/views"
)

func init() {
	Register(&MoveCmd{})
}

// MoveCmd reorders a task within the listing. The new order is local to
// this run; the backend has no ordering.
type MoveCmd struct{}

func (c *MoveCmd) Name() string      { return "move" }
func (c *MoveCmd) Aliases() []string { return nil }
func (c *MoveCmd) Synopsis() string  { return "Reorder a task in the listing" }
func (c *MoveCmd) Usage() string     { return "taskboard move <ref> <position>" }
func (c *MoveCmd) NeedsAuth() bool   { return true }

func (c *MoveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MoveCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	if len(args) < 2 {
		return userError(errOut, "position required")
	}
	pos, err := strconv.Atoi(args[1])
	if err != nil || pos < 1 {
		return userError(errOut, "invalid position: %s", args[1])
	}

	d, err := loadDashboard(ctx, cfg, sess)
	if err != nil {
		return reportError(errOut, err)
	}
	task, from, err := ResolveTask(d.Tasks.Snapshot(), ref)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	var g dnd.Gesture
	if err := g.Start(task.ID, dnd.Position{List: dnd.FlatList, Index: from}); err != nil {
		return reportError(errOut, err)
	}
	drop, err := g.Drop(&dnd.Position{List: dnd.FlatList, Index: pos - 1})
	if err != nil {
		return reportError(errOut, err)
	}
	if err := views.NewTaskList(d).Drop(ctx, drop); err != nil {
		return reportError(errOut, err)
	}
	g.Reset()

	if !cfg.Quiet {
		printTasks(out, d, d.Tasks.Snapshot())
	}
	return exitcode.Success
}
