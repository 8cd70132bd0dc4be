package commands

import (
	"context"
	"flag"
	"io"
	"strings"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/views"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	priority    string
	due         string
	project     string
}

// SetOptions sets the task form fields (for testing).
func (c *AddCmd) SetOptions(description, priority, due, project string) {
	c.description, c.priority, c.due, c.project = description, priority, due, project
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskboard add [--description <text>] [--priority <p>] [--due <YYYY-MM-DD>] [--project <project>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.project, "project", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		return userError(errOut, "title required")
	}

	in := service.TaskInput{Title: title, Description: c.description}
	if c.priority != "" {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			return reportError(errOut, err)
		}
		in.Priority = p
	}
	if c.due != "" {
		due, err := service.ParseDueDate(c.due, time.Local)
		if err != nil {
			return reportError(errOut, err)
		}
		in.DueDate = &due
	}

	d := newDashboard(cfg, sess)
	if c.project != "" {
		if err := d.Refresh(ctx); err != nil {
			return reportError(errOut, err)
		}
		p, err := ResolveProject(d.Projects.Snapshot(), c.project)
		if err != nil {
			return userError(errOut, "%v", err)
		}
		in.ProjectID = &p.ID
	}

	if _, err := views.NewTaskList(d).Save(ctx, "", in); err != nil {
		return reportError(errOut, err)
	}
	return ok(cfg, out)
}
