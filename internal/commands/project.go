package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/views"
)

func init() {
	Register(&ProjectCmd{})
}

// openBoard loads everything and selects the project named by ref.
func openBoard(ctx context.Context, cfg *config.Config, sess *session.Session, ref string) (*views.ProjectBoard, error) {
	board := views.NewProjectBoard(newDashboard(cfg, sess))
	if err := board.Refresh(ctx); err != nil {
		return nil, err
	}
	p, err := ResolveProject(board.Projects(), ref)
	if err != nil {
		return nil, usageError{err}
	}
	if err := board.Select(ctx, p.ID); err != nil {
		return nil, err
	}
	return board, nil
}

func printBoard(out io.Writer, board *views.ProjectBoard) {
	p, _ := board.Selected()
	fmt.Fprint(out, output.RenderBoard(p.Name, p.Color, board.Columns(), output.NoMarks))
	if desc := strings.TrimSpace(p.Description); desc != "" {
		fmt.Fprintln(out, desc)
	}
}

// boardOrder flattens the columns in rendering order.
func boardOrder(cols []views.Column) []service.Task {
	var tasks []service.Task
	for _, col := range cols {
		tasks = append(tasks, col.Tasks...)
	}
	return tasks
}

// ProjectCmd implements the project command.
type ProjectCmd struct{}

func (c *ProjectCmd) Name() string      { return "project" }
func (c *ProjectCmd) Aliases() []string { return []string{"open"} }
func (c *ProjectCmd) Synopsis() string  { return "Show a project's Kanban board" }
func (c *ProjectCmd) Usage() string     { return "taskboard project <project>" }
func (c *ProjectCmd) NeedsAuth() bool   { return true }

func (c *ProjectCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProjectCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return userError(errOut, "project name required")
	}
	board, err := openBoard(ctx, cfg, sess, strings.Join(args, " "))
	if err != nil {
		return reportError(errOut, err)
	}
	printBoard(out, board)
	return exitcode.Success
}
