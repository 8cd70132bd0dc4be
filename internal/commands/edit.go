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
	Register(&EditCmd{})
}

// optionalString is a string flag that remembers whether it was given.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(v string) error {
	o.value, o.set = v, true
	return nil
}

func (o *optionalString) ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// noProject clears a task's project in --project.
const noProject = "none"

// EditCmd implements the edit command.
type EditCmd struct {
	title       optionalString
	description optionalString
	priority    optionalString
	due         optionalString
	project     optionalString
}

// Set records a flag value (for testing).
func (c *EditCmd) Set(name, value string) {
	switch name {
	case "title":
		c.title.Set(value)
	case "description":
		c.description.Set(value)
	case "priority":
		c.priority.Set(value)
	case "due":
		c.due.Set(value)
	case "project":
		c.project.Set(value)
	}
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's fields" }
func (c *EditCmd) Usage() string {
	return "taskboard edit [--title <t>] [--description <text>] [--priority <p>] [--due <YYYY-MM-DD>] [--project <project>|none] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
	fs.Var(&c.due, "due", "")
	fs.Var(&c.project, "project", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	var patch service.TaskPatch
	patch.Title = c.title.ptr()
	if patch.Title != nil {
		*patch.Title = strings.TrimSpace(*patch.Title)
	}
	patch.Description = c.description.ptr()
	if c.priority.set {
		p, err := service.ParsePriority(c.priority.value)
		if err != nil {
			return reportError(errOut, err)
		}
		patch.Priority = &p
	}
	if c.due.set {
		due, err := service.ParseDueDate(c.due.value, time.Local)
		if err != nil {
			return reportError(errOut, err)
		}
		patch.DueDate = &due
	}
	if patch.Empty() && !c.project.set {
		return userError(errOut, "nothing to change")
	}
	if err := patch.Validate(); err != nil {
		return reportError(errOut, err)
	}

	d, err := loadDashboard(ctx, cfg, sess)
	if err != nil {
		return reportError(errOut, err)
	}
	task, _, err := ResolveTask(d.Tasks.Snapshot(), ref)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	if c.project.set {
		id := ""
		if !strings.EqualFold(strings.TrimSpace(c.project.value), noProject) {
			p, err := ResolveProject(d.Projects.Snapshot(), c.project.value)
			if err != nil {
				return userError(errOut, "%v", err)
			}
			id = p.ID
		}
		patch.ProjectID = &id
	}

	if _, err := views.NewTaskList(d).Update(ctx, task.ID, patch); err != nil {
		return reportError(errOut, err)
	}
	return ok(cfg, out)
}
