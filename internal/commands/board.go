package commands

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/session"
	"taskboard/internal/tui"
	"taskboard/internal/views"
)

func init() {
	Register(&BoardCmd{})
}

// BoardCmd runs the interactive board.
type BoardCmd struct {
	in io.Reader
}

// SetInput sets the program's key input (for testing).
func (c *BoardCmd) SetInput(in io.Reader) { c.in = in }

func (c *BoardCmd) Name() string      { return "board" }
func (c *BoardCmd) Aliases() []string { return []string{"ui"} }
func (c *BoardCmd) Synopsis() string  { return "Open the interactive board" }
func (c *BoardCmd) Usage() string     { return "taskboard board [<project>]" }
func (c *BoardCmd) NeedsAuth() bool   { return true }

func (c *BoardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BoardCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	var (
		d     *views.Dashboard
		board *views.ProjectBoard
		err   error
	)
	if ref := strings.Join(args, " "); strings.TrimSpace(ref) != "" {
		board, err = openBoard(ctx, cfg, sess, ref)
		if err != nil {
			return reportError(errOut, err)
		}
		d = board.Dashboard()
	} else {
		d = newDashboard(cfg, sess)
	}

	in := c.in
	if in == nil {
		in = os.Stdin
	}
	prog := tea.NewProgram(tui.New(ctx, d, board), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := prog.Run()
	if err != nil {
		return reportError(errOut, err)
	}
	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		return reportError(errOut, m.Err())
	}
	return exitcode.Success
}
