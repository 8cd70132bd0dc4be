package commands

import (
	"testing"

	"taskboard/internal/service"
)

func TestParseTaskRef(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    TaskRef
		wantErr string
	}{
		{"number", []string{"3"}, TaskRef{Num: 3}, ""},
		{"id", []string{"a1b2-c3"}, TaskRef{ID: "a1b2-c3"}, ""},
		{"extra args ignored", []string{"2", "done"}, TaskRef{Num: 2}, ""},
		{"empty", nil, TaskRef{}, "task reference required"},
		{"blank", []string{"  "}, TaskRef{}, "task reference required"},
		{"zero", []string{"0"}, TaskRef{}, "invalid task reference: 0"},
		{"flag-like", []string{"-3"}, TaskRef{}, "invalid task reference: -3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTaskRef(tt.args)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("expected error %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestResolveTask(t *testing.T) {
	tasks := []service.Task{{ID: "x"}, {ID: "y"}}

	if got, i, err := ResolveTask(tasks, TaskRef{Num: 2}); err != nil || got.ID != "y" || i != 1 {
		t.Errorf("expected y at 1, got %q %d %v", got.ID, i, err)
	}
	if got, _, err := ResolveTask(tasks, TaskRef{ID: "x"}); err != nil || got.ID != "x" {
		t.Errorf("expected x, got %q %v", got.ID, err)
	}
	if _, _, err := ResolveTask(tasks, TaskRef{Num: 3}); err == nil || err.Error() != "task number out of range: 3" {
		t.Errorf("expected out of range, got %v", err)
	}
	if _, _, err := ResolveTask(tasks, TaskRef{ID: "z"}); err == nil || err.Error() != "task not found: z" {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestResolveProject(t *testing.T) {
	projects := []service.Project{
		{ID: "p1", Name: "Launch"},
		{ID: "p2", Name: "Ops"},
		{ID: "p3", Name: "ops"},
		{ID: "p4", Name: "2024"},
	}
	tests := []struct {
		ref     string
		want    string
		wantErr string
	}{
		{"p2", "p2", ""},
		{"launch", "p1", ""},
		{"  LAUNCH ", "p1", ""},
		{"ops", "", "ambiguous project name: ops"},
		{"1", "p1", ""},
		{"2024", "p4", ""},
		{"9", "", "project not found: 9"},
		{"nope", "", "project not found: nope"},
		{"", "", "project name required"},
	}
	for _, tt := range tests {
		got, err := ResolveProject(projects, tt.ref)
		if tt.wantErr != "" {
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("ResolveProject(%q): expected %q, got %v", tt.ref, tt.wantErr, err)
			}
			continue
		}
		if err != nil || got.ID != tt.want {
			t.Errorf("ResolveProject(%q): expected %s, got %s (%v)", tt.ref, tt.want, got.ID, err)
		}
	}
}
