package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/views"
)

func init() {
	Register(&CreateProjectCmd{})
}

// CreateProjectCmd implements the createproject command.
type CreateProjectCmd struct {
	description string
	color       string
}

// SetOptions sets the project form fields (for testing).
func (c *CreateProjectCmd) SetOptions(description, color string) {
	c.description, c.color = description, color
}

func (c *CreateProjectCmd) Name() string      { return "createproject" }
func (c *CreateProjectCmd) Aliases() []string { return []string{"addproject"} }
func (c *CreateProjectCmd) Synopsis() string  { return "Create a project" }
func (c *CreateProjectCmd) Usage() string {
	return "taskboard createproject [--description <text>] [--color <hex>] <name...>"
}
func (c *CreateProjectCmd) NeedsAuth() bool { return true }

func (c *CreateProjectCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.color, "color", "", "")
}

func (c *CreateProjectCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	name := strings.Join(args, " ")
	if strings.TrimSpace(name) == "" {
		return userError(errOut, "project name required")
	}

	board := views.NewProjectBoard(newDashboard(cfg, sess))
	in := service.ProjectInput{Name: name, Description: c.description, Color: c.color}
	if _, err := board.SaveProject(ctx, "", in); err != nil {
		return reportError(errOut, err)
	}
	return ok(cfg, out)
}
