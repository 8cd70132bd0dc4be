// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskboard/internal/service"
	"taskboard/internal/views"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"
)

// StatusMarker is the checkbox shown before a task title.
func StatusMarker(s service.Status) string {
	switch s {
	case service.StatusDone:
		return "[x]"
	case service.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

// FormatTask formats a task line for a listing.
// Format: "{N:>4}  {MARKER} {TITLE}{META}\n"
func FormatTask(w io.Writer, num int, task service.Task, projectName string) {
	fmt.Fprintf(w, "%4d  %s %s%s\n", num, StatusMarker(task.Status), normalizeTitle(task.Title), taskMeta(task, projectName))
}

// FormatTaskIndented formats a task line for a named section.
func FormatTaskIndented(w io.Writer, num int, task service.Task, projectName string) {
	fmt.Fprintf(w, "    %4d  %s %s%s\n", num, StatusMarker(task.Status), normalizeTitle(task.Title), taskMeta(task, projectName))
}

// taskMeta renders priority, due date and project, skipping defaults.
func taskMeta(task service.Task, projectName string) string {
	var parts []string
	if task.Priority != "" && task.Priority != service.DefaultPriority {
		parts = append(parts, "!"+string(task.Priority))
	}
	if task.DueDate != nil {
		parts = append(parts, "due "+task.DueDate.UTC().Format(service.DueDateLayout))
	}
	if projectName != "" {
		parts = append(parts, "@"+projectName)
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, "  ")
}

// FormatTaskDetail formats every field of a task.
func FormatTaskDetail(w io.Writer, task service.Task, projectName string) {
	fmt.Fprintf(w, "id:          %s\n", task.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	if task.Description != "" {
		fmt.Fprintf(w, "description: %s\n", task.Description)
	}
	fmt.Fprintf(w, "status:      %s\n", task.Status.Label())
	fmt.Fprintf(w, "priority:    %s\n", task.Priority)
	if task.DueDate != nil {
		fmt.Fprintf(w, "due:         %s\n", task.DueDate.UTC().Format(service.DueDateLayout))
	}
	if projectName != "" {
		fmt.Fprintf(w, "project:     %s\n", projectName)
	}
}

// FormatSectionHeader formats a section header.
func FormatSectionHeader(w io.Writer, title string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, normalizeListTitle(title))
	fmt.Fprintln(w, ListSeparator)
}

// FormatProject formats a project line for the projects command.
// Format: "{N:>4}  {NAME}  {COLOR}  {COUNT} tasks\n"
func FormatProject(w io.Writer, num int, project service.Project, taskCount int) {
	noun := "tasks"
	if taskCount == 1 {
		noun = "task"
	}
	fmt.Fprintf(w, "%4d  %s  %s  %d %s\n", num, Swatch(project.Color), normalizeListTitle(project.Name), taskCount, noun)
}

// FormatUser formats the logged-in user.
func FormatUser(w io.Writer, user service.User) {
	fmt.Fprintf(w, "%s <%s>\n", user.Name, user.Email)
}

// FormatSummary renders the dashboard home.
func FormatSummary(w io.Writer, s views.Summary, projectNames map[string]string, now time.Time) {
	st := s.Stats
	fmt.Fprintf(w, "tasks:      %d total, %d done, %d in progress, %d to do\n",
		st.TotalTasks, st.CompletedTasks, st.InProgressTasks, st.TodoTasks)
	fmt.Fprintf(w, "projects:   %d total, %d active\n", st.TotalProjects, s.ActiveProjects)
	fmt.Fprintf(w, "completion: %d%% (%d completed this week)\n", s.ProductivityScore, s.CompletedThisWeek)
	fmt.Fprintf(w, "overdue:    %d\n", st.OverdueTasks)
	if s.MostActive != nil && s.MostActive.Completed > 0 {
		fmt.Fprintf(w, "most active: %s (%d completed this week)\n", s.MostActive.Project.Name, s.MostActive.Completed)
	}

	section := func(title string, tasks []service.Task, empty string) {
		FormatSectionHeader(w, title)
		if len(tasks) == 0 {
			fmt.Fprintln(w, empty)
			return
		}
		for i, t := range tasks {
			FormatTaskIndented(w, i+1, t, projectNames[t.ProjectID])
		}
	}
	section("Recent", s.Recent, "No tasks yet")
	section("High priority", s.HighPriority, "No high priority tasks")
	section("Upcoming deadlines", s.Upcoming, "No upcoming deadlines")
	section("Overdue", s.Overdue, "Nothing overdue")
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeListTitle normalizes a project or section title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
