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
	Register(&EditProjectCmd{})
}

// EditProjectCmd implements the editproject command.
type EditProjectCmd struct {
	name        optionalString
	description optionalString
	color       optionalString
}

// Set records a flag value (for testing).
func (c *EditProjectCmd) Set(name, value string) {
	switch name {
	case "name":
		c.name.Set(value)
	case "description":
		c.description.Set(value)
	case "color":
		c.color.Set(value)
	}
}

func (c *EditProjectCmd) Name() string      { return "editproject" }
func (c *EditProjectCmd) Aliases() []string { return nil }
func (c *EditProjectCmd) Synopsis() string  { return "Change a project's fields" }
func (c *EditProjectCmd) Usage() string {
	return "taskboard editproject [--name <name>] [--description <text>] [--color <hex>] <project>"
}
func (c *EditProjectCmd) NeedsAuth() bool { return true }

func (c *EditProjectCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditProjectCmd{}
	fs.Var(&c.name, "name", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.color, "color", "")
}

func (c *EditProjectCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return userError(errOut, "project name required")
	}
	patch := service.ProjectPatch{
		Name:        c.name.ptr(),
		Description: c.description.ptr(),
		Color:       c.color.ptr(),
	}
	if patch.Name != nil {
		*patch.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Color != nil {
		*patch.Color = strings.ToLower(strings.TrimSpace(*patch.Color))
	}
	if patch.Empty() {
		return userError(errOut, "nothing to change")
	}
	if err := patch.Validate(); err != nil {
		return reportError(errOut, err)
	}

	d, err := loadDashboard(ctx, cfg, sess)
	if err != nil {
		return reportError(errOut, err)
	}
	p, err := ResolveProject(d.Projects.Snapshot(), strings.Join(args, " "))
	if err != nil {
		return userError(errOut, "%v", err)
	}
	if _, err := views.NewProjectBoard(d).UpdateProject(ctx, p.ID, patch); err != nil {
		return reportError(errOut, err)
	}
	return ok(cfg, out)
}
