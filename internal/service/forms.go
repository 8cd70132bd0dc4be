package service

import (
	"strings"
	"time"
)

// DueDateLayout is the date format accepted by the task form.
const DueDateLayout = "2006-01-02"

// TaskInput is the task form used for creation.
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	ProjectID   *string    `json:"project_id"`
}

// Normalize trims text fields and fills defaults.
func (in *TaskInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Priority == "" {
		in.Priority = DefaultPriority
	}
	if in.ProjectID != nil && strings.TrimSpace(*in.ProjectID) == "" {
		in.ProjectID = nil
	}
}

// Validate checks required fields and enumerations.
func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &FieldError{Field: "title", Message: "title required"}
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return &FieldError{Field: "priority", Message: "invalid priority: " + string(in.Priority)}
	}
	return nil
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
}

// StatusPatch returns a patch that only changes the status.
func StatusPatch(s Status) TaskPatch {
	return TaskPatch{Status: &s}
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && p.Status == nil && p.ProjectID == nil
}

// Validate checks the fields that are set.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &FieldError{Field: "title", Message: "title required"}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return &FieldError{Field: "priority", Message: "invalid priority: " + string(*p.Priority)}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &FieldError{Field: "status", Message: "invalid status: " + string(*p.Status)}
	}
	return nil
}

// Apply returns t with the patch fields applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	return t
}

// ProjectInput is the project form used for creation.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Normalize trims text fields and fills the default color.
func (in *ProjectInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Color = strings.ToLower(strings.TrimSpace(in.Color))
	if in.Color == "" {
		in.Color = DefaultColor
	}
}

// Validate checks the name and that the color comes from the palette.
func (in ProjectInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &FieldError{Field: "name", Message: "name required"}
	}
	if in.Color != "" && !InPalette(in.Color) {
		return &FieldError{Field: "color", Message: "color must be one of " + strings.Join(Palette, ", ")}
	}
	return nil
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// Validate checks the fields that are set.
func (p ProjectPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &FieldError{Field: "name", Message: "name required"}
	}
	if p.Color != nil && !InPalette(*p.Color) {
		return &FieldError{Field: "color", Message: "color must be one of " + strings.Join(Palette, ", ")}
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Color == nil
}

// InPalette reports whether color is one of the palette colors.
func InPalette(color string) bool {
	color = strings.ToLower(strings.TrimSpace(color))
	for _, c := range Palette {
		if c == color {
			return true
		}
	}
	return false
}

// ParseDueDate parses a form date (YYYY-MM-DD) in loc and returns the start
// of that day in UTC.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DueDateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, &FieldError{Field: "due_date", Message: "due date must be YYYY-MM-DD"}
	}
	return d.UTC(), nil
}
