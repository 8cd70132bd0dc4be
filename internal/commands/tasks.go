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
	Register(&TasksCmd{})
}

// TasksCmd implements the tasks command.
type TasksCmd struct {
	status   string
	priority string
	project  string
}

// SetFilters sets the filters (for testing).
func (c *TasksCmd) SetFilters(status, priority, project string) {
	c.status, c.priority, c.project = status, priority, project
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"ls", "list"} }
func (c *TasksCmd) Synopsis() string  { return "List tasks" }
func (c *TasksCmd) Usage() string {
	return "taskboard tasks [--status <s>] [--priority <p>] [--project <project>]"
}
func (c *TasksCmd) NeedsAuth() bool { return true }

func (c *TasksCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.status, "s", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.project, "project", "", "")
}

func (c *TasksCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}

	d, err := loadDashboard(ctx, cfg, sess)
	if err != nil {
		return reportError(errOut, err)
	}
	list := views.NewTaskList(d)
	if err := list.Filter(c.status, c.priority); err != nil {
		return reportError(errOut, err)
	}

	visible := list.Visible()
	if strings.TrimSpace(c.project) != "" {
		p, err := ResolveProject(d.Projects.Snapshot(), c.project)
		if err != nil {
			return userError(errOut, "%v", err)
		}
		visible = filterProject(visible, p.ID)
	}

	printTasks(out, d, visible)
	return exitcode.Success
}

func filterProject(tasks []service.Task, projectID string) []service.Task {
	var out []service.Task
	for _, t := range tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

// printTasks prints tasks numbered by their position in the full listing.
func printTasks(out io.Writer, d *views.Dashboard, tasks []service.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "no tasks found")
		return
	}
	nums := listingNumbers(d.Tasks.Snapshot())
	names := projectNames(d)
	for _, t := range tasks {
		output.FormatTask(out, nums[t.ID], t, names[t.ProjectID])
	}
}
