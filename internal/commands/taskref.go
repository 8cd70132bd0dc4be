package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskboard/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based listing number, 0 when ID is set
	ID  string // task id
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from the first arg.
//
// Parsing rules:
// 1. If first arg is all digits → listing number
// 2. Otherwise → task id
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	first := strings.TrimSpace(args[0])
	if isAllDigits(first) {
		num, err := strconv.Atoi(first)
		if err != nil || num < 1 {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
		}
		return TaskRef{Num: num}, nil
	}
	if strings.HasPrefix(first, "-") {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", first)
	}
	return TaskRef{ID: first}, nil
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// errTaskNotFound is returned when a reference matches no task.
type errTaskNotFound struct{ ref TaskRef }

func (e errTaskNotFound) Error() string {
	if e.ref.ID != "" {
		return "task not found: " + e.ref.ID
	}
	return fmt.Sprintf("task number out of range: %d", e.ref.Num)
}

// ResolveTask finds ref in tasks, numbered from 1 in order.
func ResolveTask(tasks []service.Task, ref TaskRef) (service.Task, int, error) {
	if ref.ID != "" {
		for i, t := range tasks {
			if t.ID == ref.ID {
				return t, i, nil
			}
		}
		return service.Task{}, -1, errTaskNotFound{ref}
	}
	if ref.Num < 1 || ref.Num > len(tasks) {
		return service.Task{}, -1, errTaskNotFound{ref}
	}
	return tasks[ref.Num-1], ref.Num - 1, nil
}

// ResolveProject finds a project by id, 1-based listing number, or
// case-insensitive name.
func ResolveProject(projects []service.Project, ref string) (service.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return service.Project{}, errors.New("project name required")
	}
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
	}
	var matches []service.Project
	for _, p := range projects {
		if strings.EqualFold(strings.TrimSpace(p.Name), ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		if isAllDigits(ref) {
			if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(projects) {
				return projects[n-1], nil
			}
		}
		return service.Project{}, fmt.Errorf("project not found: %s", ref)
	default:
		return service.Project{}, fmt.Errorf("ambiguous project name: %s", ref)
	}
}
