package commands

import (
	"context"
	"flag"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/dnd"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
	"taskboard/internal/session"
)

func init() {
	Register(&DragCmd{})
}

// DragCmd moves a card between Kanban columns. The card lands at --index in
// the target column, or at the bottom.
type DragCmd struct {
	index int
}

// SetIndex sets the 1-based target slot (for testing).
func (c *DragCmd) SetIndex(index int) {
	c.index = index
}

func (c *DragCmd) Name() string      { return "drag" }
func (c *DragCmd) Aliases() []string { return nil }
func (c *DragCmd) Synopsis() string  { return "Move a card to another board column" }
func (c *DragCmd) Usage() string {
	return "taskboard drag [--index <n>] <project> <card> <todo|in_progress|done>"
}
func (c *DragCmd) NeedsAuth() bool { return true }

func (c *DragCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.index, "index", 0, "")
	fs.IntVar(&c.index, "i", 0, "")
}

func (c *DragCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if len(args) != 3 {
		return userError(errOut, "usage: %s", c.Usage())
	}
	if c.index < 0 {
		return userError(errOut, "invalid index: %d", c.index)
	}
	status, err := service.ParseStatus(args[2])
	if err != nil {
		return reportError(errOut, err)
	}
	ref, err := ParseTaskRef(args[1:2])
	if err != nil {
		return userError(errOut, "%v", err)
	}

	board, err := openBoard(ctx, cfg, sess, args[0])
	if err != nil {
		return reportError(errOut, err)
	}
	cols := board.Columns()
	task, _, err := ResolveTask(boardOrder(cols), ref)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	tasks := board.Tasks()
	var g dnd.Gesture
	if err := g.Start(task.ID, dnd.ColumnPosition(task.Status, dnd.ColumnIndex(tasks, task.ID))); err != nil {
		return reportError(errOut, err)
	}
	slot := len(dnd.Columns(tasks)[status])
	if c.index > 0 {
		slot = c.index - 1
	}
	dest := dnd.ColumnPosition(status, slot)
	drop, err := g.Drop(&dest)
	if err != nil {
		return reportError(errOut, err)
	}
	defer g.Reset()
	if err := board.Drop(ctx, drop); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		printBoard(out, board)
	}
	return exitcode.Success
}
