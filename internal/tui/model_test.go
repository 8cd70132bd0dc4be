package tui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/service"
	"taskboard/internal/testutil"
	"taskboard/internal/views"
)

type backend struct{ svc service.Service }

func (b backend) Service() service.Service { return b.svc }

func fixture(t *testing.T, withBoard bool) (*testutil.FakeService, Model) {
	t.Helper()
	fake := testutil.NewFakeService()
	fake.AddProject("p1", "Launch")
	fake.AddTask(service.Task{ID: "t1", Title: "draft", Status: service.StatusTodo, ProjectID: "p1"})
	fake.AddTask(service.Task{ID: "t2", Title: "review", Status: service.StatusDone, ProjectID: "p1"})
	fake.AddTask(service.Task{ID: "t3", Title: "loose"})

	ctx := context.Background()
	d := views.NewDashboard(backend{fake}, views.Options{})
	var board *views.ProjectBoard
	if withBoard {
		board = views.NewProjectBoard(d)
		if err := board.Select(ctx, "p1"); err != nil {
			t.Fatalf("Select: %v", err)
		}
	}
	m := New(ctx, d, board)
	m = update(t, m, m.Init()())
	fake.ResetCalls()
	return fake, m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and returns the model and its command.
func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

var (
	space = tea.KeyMsg{Type: tea.KeySpace}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	right = tea.KeyMsg{Type: tea.KeyRight}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func visibleIDs(m Model) []string {
	var out []string
	for _, t := range m.list.Visible() {
		out = append(out, t.ID)
	}
	return out
}

func TestModel_ListReorderIsLocal(t *testing.T) {
	fake, m := fixture(t, false)
	if m.Mode() != ModeList {
		t.Fatalf("expected list mode without a board, got %s", m.Mode())
	}

	m, _ = press(t, m, space)
	if !m.Dragging() {
		t.Fatal("expected a held card")
	}
	m, _ = press(t, m, down)
	m, _ = press(t, m, down)
	m, cmd := press(t, m, space)

	if cmd != nil {
		t.Error("expected no command for a local reorder")
	}
	if m.Dragging() {
		t.Error("expected the gesture to end")
	}
	if got, want := visibleIDs(m), []string{"t2", "t3", "t1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if calls := fake.Calls(); len(calls) != 0 {
		t.Errorf("expected no backend calls, got %v", calls)
	}
}

func TestModel_BoardDragCommitsStatus(t *testing.T) {
	fake, m := fixture(t, true)
	if m.Mode() != ModeBoard {
		t.Fatalf("expected board mode, got %s", m.Mode())
	}

	m, _ = press(t, m, space)
	m, _ = press(t, m, right)
	m, _ = press(t, m, right)
	m, cmd := press(t, m, space)
	if cmd == nil {
		t.Fatal("expected a commit command")
	}

	// Applied before the commit runs.
	done := m.board.Columns()[2].Tasks
	if len(done) != 2 || done[0].ID != "t1" {
		t.Fatalf("expected t1 first in done, got %+v", done)
	}
	if !strings.Contains(m.View(), "saving") {
		t.Error("expected a saving indicator while the commit is pending")
	}

	m = update(t, m, cmd())
	if task, _ := fake.Task("t1"); task.Status != service.StatusDone {
		t.Errorf("expected t1 done on the server, got %s", task.Status)
	}
	want := []string{"UpdateTask t1 status=done", "GetProject p1"}
	if got := fake.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected calls %v, got %v", want, got)
	}
	if m.Status() != "" {
		t.Errorf("expected no feedback, got %q", m.Status())
	}
}

func TestModel_BoardDragFailureReverts(t *testing.T) {
	fake, m := fixture(t, true)
	fake.UpdateTaskErr = &service.APIError{Kind: service.ErrUnavailable, Status: 503}

	m, _ = press(t, m, space)
	m, _ = press(t, m, right)
	m, cmd := press(t, m, space)
	m = update(t, m, cmd())

	cols := m.board.Columns()
	if len(cols[0].Tasks) != 1 || cols[0].Tasks[0].ID != "t1" {
		t.Errorf("expected t1 back in to do, got %+v", cols[0].Tasks)
	}
	if m.Status() != views.NetworkMessage {
		t.Errorf("expected network feedback, got %q", m.Status())
	}
}

func TestModel_CancelDrag(t *testing.T) {
	fake, m := fixture(t, true)

	m, _ = press(t, m, space)
	m, _ = press(t, m, right)
	m, cmd := press(t, m, esc)

	if cmd != nil || m.Dragging() {
		t.Error("expected the drag to be abandoned")
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("expected no calls, got %v", fake.Calls())
	}
}

func TestModel_StatusKeyInList(t *testing.T) {
	fake, m := fixture(t, true)
	m, _ = press(t, m, tab)
	if m.Mode() != ModeList {
		t.Fatalf("expected list mode after tab, got %s", m.Mode())
	}

	m, cmd := press(t, m, runes("2"))
	if cmd == nil {
		t.Fatal("expected a commit command")
	}
	if got := m.list.Visible()[0].Status; got != service.StatusInProgress {
		t.Errorf("expected optimistic in_progress, got %s", got)
	}
	update(t, m, cmd())
	if got := fake.Calls(); len(got) != 1 || got[0] != "UpdateTask t1 status=in_progress" {
		t.Errorf("expected one status update without refresh, got %v", got)
	}
}

func TestModel_AuthFailureQuits(t *testing.T) {
	fake, m := fixture(t, false)
	fake.ListTasksErr = &service.APIError{Kind: service.ErrUnauthorized, Status: 401}

	m = update(t, m, m.refresh()())
	if !errors.Is(m.Err(), service.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", m.Err())
	}
}

func boardColumnOf(m Model, id string) service.Status {
	for _, c := range m.board.Columns() {
		for _, t := range c.Tasks {
			if t.ID == id {
				return c.Status
			}
		}
	}
	return ""
}

// A status set in list mode shows on the board after switching back.
func TestModel_ListStatusShowsOnBoard(t *testing.T) {
	fake, m := fixture(t, true)

	m, _ = press(t, m, tab)
	if m.Mode() != ModeList {
		t.Fatalf("expected list mode, got %s", m.Mode())
	}
	if got := visibleIDs(m); len(got) == 0 || got[0] != "t1" {
		t.Fatalf("expected t1 under the cursor, got %v", got)
	}
	m, cmd := press(t, m, runes("3"))
	if cmd == nil {
		t.Fatal("expected a commit command")
	}
	m = update(t, m, cmd())

	m, cmd = press(t, m, tab)
	if m.Mode() != ModeBoard {
		t.Fatalf("expected board mode, got %s", m.Mode())
	}
	if got := boardColumnOf(m, "t1"); got != service.StatusDone {
		t.Errorf("expected t1 in the done column, got %q", got)
	}
	if cmd == nil {
		t.Fatal("expected a board reload command")
	}
	m = update(t, m, cmd())
	if got := boardColumnOf(m, "t1"); got != service.StatusDone {
		t.Errorf("expected t1 still done after reload, got %q", got)
	}
	if fake.CallCount("GetProject p1") != 1 {
		t.Errorf("expected the board to reload its project, got %v", fake.Calls())
	}
}

// A failed list commit reverts the card on the board too.
func TestModel_ListStatusFailureRevertsBoard(t *testing.T) {
	fake, m := fixture(t, true)
	fake.UpdateTaskErr = &service.APIError{Kind: service.ErrUnavailable, Status: 503}

	m, _ = press(t, m, tab)
	m, cmd := press(t, m, runes("3"))
	m = update(t, m, cmd())
	m, _ = press(t, m, tab)

	if got := boardColumnOf(m, "t1"); got != service.StatusTodo {
		t.Errorf("expected t1 back in todo, got %q", got)
	}
}
