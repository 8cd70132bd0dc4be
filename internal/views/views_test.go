package views

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"taskboard/internal/dnd"
	"taskboard/internal/service"
	"taskboard/internal/testutil"
)

type backend struct{ svc service.Service }

func (b backend) Service() service.Service { return b.svc }

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newFake() *testutil.FakeService {
	fake := testutil.NewFakeService()
	fake.Now = func() time.Time { return testNow }
	return fake
}

func newDashboard(t *testing.T, fake *testutil.FakeService) *Dashboard {
	t.Helper()
	d := NewDashboard(backend{fake}, Options{Now: func() time.Time { return testNow }})
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	fake.ResetCalls()
	return d
}

func ids(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestDashboard_Refresh(t *testing.T) {
	fake := newFake()
	fake.AddProject("p1", "Work")
	fake.AddTask(service.Task{ID: "t1", Title: "a", ProjectID: "p1"})
	fake.AddTask(service.Task{ID: "t2", Title: "b", Status: service.StatusDone})

	d := newDashboard(t, fake)

	if d.Tasks.Len() != 2 || d.Projects.Len() != 1 {
		t.Errorf("expected 2 tasks and 1 project, got %d and %d", d.Tasks.Len(), d.Projects.Len())
	}
	if s := d.Stats(); s.TotalTasks != 2 || s.CompletedTasks != 1 || s.CompletionRate != 50 {
		t.Errorf("unexpected stats %+v", s)
	}
	if d.ProjectTaskCount("p1") != 1 {
		t.Errorf("expected 1 task in p1, got %d", d.ProjectTaskCount("p1"))
	}
}

func TestDashboard_RefreshFailureKeepsCaches(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "t1", Title: "a"})
	d := newDashboard(t, fake)

	fake.StatsErr = &service.APIError{Kind: service.ErrUnavailable, Status: 503}
	err := d.Refresh(context.Background())
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if d.Tasks.Len() != 1 {
		t.Errorf("expected cached task kept, got %d", d.Tasks.Len())
	}
}

func TestDashboard_UnauthorizedRunsHook(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "t1", Title: "a"})
	called := false
	d := NewDashboard(backend{fake}, Options{OnAuthFailure: func(context.Context) { called = true }})
	d.Refresh(context.Background())

	fake.ListTasksErr = &service.APIError{Kind: service.ErrUnauthorized, Status: 401}
	err := d.Refresh(context.Background())

	if Explain(err).Kind != FeedbackAuth {
		t.Errorf("expected auth feedback, got %+v", Explain(err))
	}
	if !called {
		t.Error("expected auth hook")
	}
	if d.Tasks.Len() != 0 {
		t.Error("expected caches reset")
	}
}

func TestTaskList_FilterAndVisible(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "t1", Status: service.StatusTodo, Priority: service.PriorityHigh})
	fake.AddTask(service.Task{ID: "t2", Status: service.StatusDone, Priority: service.PriorityHigh})
	fake.AddTask(service.Task{ID: "t3", Status: service.StatusTodo, Priority: service.PriorityLow})
	l := NewTaskList(newDashboard(t, fake))

	tests := []struct {
		status, priority string
		want             []string
	}{
		{"all", "all", []string{"t1", "t2", "t3"}},
		{"", "", []string{"t1", "t2", "t3"}},
		{"todo", "all", []string{"t1", "t3"}},
		{"all", "high", []string{"t1", "t2"}},
		{"todo", "low", []string{"t3"}},
		{"in-progress", "", []string{}},
	}
	for _, tt := range tests {
		if err := l.Filter(tt.status, tt.priority); err != nil {
			t.Fatalf("Filter(%q, %q): %v", tt.status, tt.priority, err)
		}
		if got := ids(l.Visible()); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Filter(%q, %q): expected %v, got %v", tt.status, tt.priority, tt.want, got)
		}
	}

	if err := l.Filter("bogus", "all"); !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestTaskList_SaveValidatesBeforeCalling(t *testing.T) {
	fake := newFake()
	l := NewTaskList(newDashboard(t, fake))

	_, err := l.Save(context.Background(), "", service.TaskInput{Title: "   "})
	fb := Explain(err)
	if fb.Kind != FeedbackValidation || fb.Field != "title" {
		t.Errorf("expected title validation feedback, got %+v", fb)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", fake.Calls())
	}
}

func TestTaskList_CreateRefreshesFull(t *testing.T) {
	fake := newFake()
	l := NewTaskList(newDashboard(t, fake))

	task, err := l.Save(context.Background(), "", service.TaskInput{Title: "Write report"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if task.Priority != service.PriorityMedium || task.Status != service.StatusTodo {
		t.Errorf("expected defaults, got %+v", task)
	}
	if fake.CallCount("DashboardStats") != 1 || fake.CallCount("ListTasks") != 1 {
		t.Errorf("expected full refresh, calls: %v", fake.Calls())
	}
	if len(l.Visible()) != 1 {
		t.Errorf("expected new task visible, got %v", l.Visible())
	}
}

func TestTaskList_EditSendsFormFields(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "t1", Title: "old", Priority: service.PriorityLow})
	l := NewTaskList(newDashboard(t, fake))

	_, err := l.Save(context.Background(), "t1", service.TaskInput{Title: "new", Priority: service.PriorityHigh})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := l.d.Tasks.Get("t1")
	if got.Title != "new" || got.Priority != service.PriorityHigh {
		t.Errorf("expected refreshed edit, got %+v", got)
	}
}

func TestTaskList_ChangeStatusSuccessSkipsRefresh(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "t1", Title: "a"})
	l := NewTaskList(newDashboard(t, fake))

	if err := l.ChangeStatus(context.Background(), "t1", service.StatusInProgress); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if want := []string{"UpdateTask t1 status=in_progress"}; !reflect.DeepEqual(fake.Calls(), want) {
		t.Errorf("expected %v, got %v", want, fake.Calls())
	}
	got, _ := l.d.Tasks.Get("t1")
	if got.Status != service.StatusInProgress {
		t.Errorf("expected in_progress, got %s", got.Status)
	}
}

func TestTaskList_ChangeStatusFailureReverts(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "t1", Title: "a"})
	l := NewTaskList(newDashboard(t, fake))
	fake.UpdateTaskErr = &service.APIError{Kind: service.ErrUnavailable, Status: 502}

	err := l.ChangeStatus(context.Background(), "t1", service.StatusDone)
	if Explain(err).Message != NetworkMessage {
		t.Errorf("expected network feedback, got %+v", Explain(err))
	}
	got, _ := l.d.Tasks.Get("t1")
	if got.Status != service.StatusTodo {
		t.Errorf("expected reverted to todo, got %s", got.Status)
	}
	if fake.CallCount("ListTasks") != 1 {
		t.Errorf("expected full reconciling refresh, calls: %v", fake.Calls())
	}
}

func TestTaskList_ChangeStatusTwiceIsIdempotent(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "t1", Title: "a"})
	fake.AddTask(service.Task{ID: "t2", Title: "b"})
	l := NewTaskList(newDashboard(t, fake))
	ctx := context.Background()

	l.ChangeStatus(ctx, "t1", service.StatusDone)
	once := l.d.Tasks.Snapshot()
	l.ChangeStatus(ctx, "t1", service.StatusDone)

	if !reflect.DeepEqual(once, l.d.Tasks.Snapshot()) {
		t.Errorf("expected same state after repeat")
	}
	if srv, _ := fake.Task("t1"); srv.Status != service.StatusDone {
		t.Errorf("expected server done, got %s", srv.Status)
	}
}

func TestTaskList_DropReorderIsLocal(t *testing.T) {
	fake := newFake()
	for _, id := range []string{"a", "b", "c"} {
		fake.AddTask(service.Task{ID: id, Title: id})
	}
	l := NewTaskList(newDashboard(t, fake))

	var g dnd.Gesture
	g.Start("a", dnd.Position{List: dnd.FlatList, Index: 0})
	d, _ := g.Drop(&dnd.Position{List: dnd.FlatList, Index: 2})
	if err := l.Drop(context.Background(), d); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	if got := ids(l.Visible()); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("got %v", got)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", fake.Calls())
	}
}

func TestTaskList_DropOnSelfIsNoOp(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "a"})
	fake.AddTask(service.Task{ID: "b"})
	l := NewTaskList(newDashboard(t, fake))
	before := l.Visible()

	var g dnd.Gesture
	src := dnd.Position{List: dnd.FlatList, Index: 1}
	g.Start("b", src)
	d, _ := g.Drop(&src)
	if err := l.Drop(context.Background(), d); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if !reflect.DeepEqual(before, l.Visible()) {
		t.Error("expected unchanged list")
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", fake.Calls())
	}
}

func TestTaskList_DropReorderUnderFilter(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "a", Priority: service.PriorityHigh})
	fake.AddTask(service.Task{ID: "x", Priority: service.PriorityLow})
	fake.AddTask(service.Task{ID: "b", Priority: service.PriorityHigh})
	l := NewTaskList(newDashboard(t, fake))
	l.Filter("all", "high")

	d := dnd.Drop{TaskID: "b", Source: dnd.Position{List: dnd.FlatList, Index: 1}, Dest: dnd.Position{List: dnd.FlatList, Index: 0}, Outcome: dnd.Reorder}
	if err := l.Drop(context.Background(), d); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if got := ids(l.Visible()); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("expected b,a, got %v", got)
	}
}

func TestTaskList_DeleteNotFoundRefreshes(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "t1"})
	l := NewTaskList(newDashboard(t, fake))
	fake.DeleteTask(context.Background(), "t1")
	fake.ResetCalls()

	err := l.Delete(context.Background(), "t1")
	if Explain(err).Kind != FeedbackNotFound {
		t.Errorf("expected not-found feedback, got %+v", Explain(err))
	}
	if l.d.Tasks.Len() != 0 {
		t.Errorf("expected stale task reconciled away, got %v", l.Visible())
	}
}

func boardFixture(t *testing.T) (*testutil.FakeService, *ProjectBoard) {
	t.Helper()
	fake := newFake()
	fake.AddProject("p1", "Launch")
	fake.AddTask(service.Task{ID: "t1", Title: "draft", Status: service.StatusTodo, ProjectID: "p1"})
	fake.AddTask(service.Task{ID: "t2", Title: "review", Status: service.StatusDone, ProjectID: "p1"})
	fake.AddTask(service.Task{ID: "t3", Title: "loose"})
	b := NewProjectBoard(newDashboard(t, fake))
	if err := b.Select(context.Background(), "p1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	fake.ResetCalls()
	return fake, b
}

func TestProjectBoard_DragToDoneColumn(t *testing.T) {
	fake, b := boardFixture(t)

	var g dnd.Gesture
	g.Start("t1", dnd.ColumnPosition(service.StatusTodo, 0))
	dest := dnd.ColumnPosition(service.StatusDone, 0)
	d, _ := g.Drop(&dest)

	p, err := b.BeginMove(d.TaskID, d.Status(), d.Dest.Index)
	if err != nil {
		t.Fatalf("BeginMove: %v", err)
	}
	done := b.Columns()[2]
	if done.Status != service.StatusDone || done.Tasks[0].ID != "t1" || done.Tasks[0].Status != service.StatusDone {
		t.Errorf("expected t1 first among done before commit, got %+v", done)
	}
	if shared, _ := b.d.Tasks.Get("t1"); shared.Status != service.StatusDone {
		t.Errorf("expected shared cache updated, got %s", shared.Status)
	}

	if err := b.Finish(context.Background(), p); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	want := []string{"UpdateTask t1 status=done", "GetProject p1"}
	if !reflect.DeepEqual(fake.Calls(), want) {
		t.Errorf("expected %v, got %v", want, fake.Calls())
	}
}

func TestProjectBoard_FailedMoveReverts(t *testing.T) {
	fake, b := boardFixture(t)
	fake.UpdateTaskErr = &service.APIError{Kind: service.ErrUnavailable, Status: 500, Detail: "Internal error"}

	d := dnd.Drop{
		TaskID:  "t1",
		Source:  dnd.ColumnPosition(service.StatusTodo, 0),
		Dest:    dnd.ColumnPosition(service.StatusInProgress, 0),
		Outcome: dnd.StatusChange,
	}
	err := b.Drop(context.Background(), d)
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected failure, got %v", err)
	}

	cols := b.Columns()
	if len(cols[0].Tasks) != 1 || cols[0].Tasks[0].ID != "t1" || len(cols[1].Tasks) != 0 {
		t.Errorf("expected board restored, got %+v", cols)
	}
	if fake.CallCount("GetProject p1") != 1 || fake.CallCount("DashboardStats") != 0 {
		t.Errorf("expected narrow refresh only, calls: %v", fake.Calls())
	}
	if shared, _ := b.d.Tasks.Get("t1"); shared.Status != service.StatusTodo {
		t.Errorf("expected shared cache reconciled, got %s", shared.Status)
	}
}

// A move of a task deleted elsewhere reconciles through the policy refresh
// alone.
func TestProjectBoard_MoveDeletedTaskRefreshesOnce(t *testing.T) {
	fake, b := boardFixture(t)
	fake.DeleteTask(context.Background(), "t1")
	fake.ResetCalls()

	p, err := b.BeginMove("t1", service.StatusDone, 0)
	if err != nil {
		t.Fatalf("BeginMove: %v", err)
	}
	err = b.Finish(context.Background(), p)
	if Explain(err).Kind != FeedbackNotFound {
		t.Errorf("expected not-found feedback, got %+v", Explain(err))
	}
	if n := fake.CallCount("GetProject"); n != 1 {
		t.Errorf("expected one GetProject, got %d: %v", n, fake.Calls())
	}
	for _, c := range b.Columns() {
		for _, task := range c.Tasks {
			if task.ID == "t1" {
				t.Errorf("expected t1 gone from the board, found in %s", c.Status)
			}
		}
	}
}

func TestTaskList_ChangeStatusDeletedTaskRefreshesOnce(t *testing.T) {
	fake := newFake()
	fake.AddTask(service.Task{ID: "t1", Status: service.StatusTodo})
	l := NewTaskList(newDashboard(t, fake))
	fake.DeleteTask(context.Background(), "t1")
	fake.ResetCalls()

	err := l.ChangeStatus(context.Background(), "t1", service.StatusDone)
	if Explain(err).Kind != FeedbackNotFound {
		t.Errorf("expected not-found feedback, got %+v", Explain(err))
	}
	if n := fake.CallCount("ListTasks"); n != 1 {
		t.Errorf("expected one ListTasks, got %d: %v", n, fake.Calls())
	}
	if l.d.Tasks.Len() != 0 {
		t.Errorf("expected stale task reconciled away, got %v", l.Visible())
	}
}

func TestProjectBoard_ChangeStatusAppends(t *testing.T) {
	_, b := boardFixture(t)

	if err := b.ChangeStatus(context.Background(), "t1", service.StatusDone); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	done := b.Columns()[2]
	if len(done.Tasks) != 2 {
		t.Fatalf("expected two done tasks, got %+v", done.Tasks)
	}
}

func TestProjectBoard_MoveUnknownTask(t *testing.T) {
	fake, b := boardFixture(t)
	if _, err := b.BeginMove("t3", service.StatusDone, 0); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found for task outside board, got %v", err)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("expected no calls, got %v", fake.Calls())
	}
}

func TestProjectBoard_DeleteProjectCascades(t *testing.T) {
	fake, b := boardFixture(t)
	before := b.d.Stats().TotalTasks

	if err := b.DeleteProject(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, ok := b.d.Projects.Get("p1"); ok {
		t.Error("expected project removed from cache")
	}
	if got := b.d.Stats().TotalTasks; got != before-2 {
		t.Errorf("expected total tasks %d, got %d", before-2, got)
	}
	if _, ok := b.Selected(); ok {
		t.Error("expected board closed")
	}
	if fake.CallCount("DashboardStats") != 1 {
		t.Errorf("expected full refresh, calls: %v", fake.Calls())
	}
}

func TestProjectBoard_SaveProjectValidatesColor(t *testing.T) {
	fake, b := boardFixture(t)

	_, err := b.SaveProject(context.Background(), "", service.ProjectInput{Name: "X", Color: "#123456"})
	if fb := Explain(err); fb.Kind != FeedbackValidation || fb.Field != "color" {
		t.Errorf("expected color feedback, got %+v", fb)
	}

	p, err := b.SaveProject(context.Background(), "", service.ProjectInput{Name: "Ops"})
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if p.Color != service.DefaultColor {
		t.Errorf("expected default color, got %s", p.Color)
	}
	if _, ok := b.d.Projects.Get(p.ID); !ok {
		t.Error("expected new project after full refresh")
	}
	if fake.CallCount("CreateProject") != 1 {
		t.Errorf("calls: %v", fake.Calls())
	}
}

func TestProjectBoard_SelectMissing(t *testing.T) {
	_, b := boardFixture(t)
	err := b.Select(context.Background(), "nope")
	if Explain(err).Kind != FeedbackNotFound {
		t.Errorf("expected not found, got %+v", Explain(err))
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Feedback
	}{
		{"nil", nil, Feedback{}},
		{"field", &service.FieldError{Field: "title", Message: "title required"}, Feedback{FeedbackValidation, "title", "title required"}},
		{"backend field", &service.APIError{Kind: service.ErrValidation, Status: 422, Detail: "name: field required"}, Feedback{FeedbackValidation, "name", "field required"}},
		{"backend plain", &service.APIError{Kind: service.ErrValidation, Status: 400, Detail: "Email already registered"}, Feedback{FeedbackValidation, "", "Email already registered"}},
		{"auth", &service.APIError{Kind: service.ErrUnauthorized, Status: 401, Detail: "Could not validate credentials"}, Feedback{FeedbackAuth, "", "session expired, please log in again"}},
		{"network", errors.Join(service.ErrUnavailable, errors.New("dial tcp")), Feedback{FeedbackNetwork, "", NetworkMessage}},
		{"deadline", context.DeadlineExceeded, Feedback{FeedbackNetwork, "", NetworkMessage}},
		{"cancelled", context.Canceled, Feedback{FeedbackCancelled, "", "cancelled"}},
		{"other", errors.New("boom"), Feedback{FeedbackError, "", "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Explain(tt.err); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestFeedback_String(t *testing.T) {
	tests := []struct {
		fb   Feedback
		want string
	}{
		{Feedback{Field: "name", Message: "field required"}, "name: field required"},
		{Feedback{Field: "status", Message: "invalid status: bogus"}, "invalid status: bogus"},
		{Feedback{Message: "boom"}, "boom"},
	}
	for _, tt := range tests {
		if got := tt.fb.String(); got != tt.want {
			t.Errorf("String(%+v) = %q, want %q", tt.fb, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	day := 24 * time.Hour
	due := func(d time.Duration) *time.Time { v := testNow.Add(d); return &v }
	projects := []service.Project{{ID: "p1", Name: "Launch"}, {ID: "p2", Name: "Ops"}}
	tasks := []service.Task{
		{ID: "done-recent", Status: service.StatusDone, ProjectID: "p2", UpdatedAt: testNow.Add(-2 * day), CreatedAt: testNow.Add(-10 * day)},
		{ID: "done-old", Status: service.StatusDone, ProjectID: "p1", UpdatedAt: testNow.Add(-20 * day), CreatedAt: testNow.Add(-30 * day)},
		{ID: "late", Status: service.StatusTodo, Priority: service.PriorityHigh, ProjectID: "p1", DueDate: due(-day), CreatedAt: testNow.Add(-5 * day)},
		{ID: "soon", Status: service.StatusInProgress, DueDate: due(3 * day), CreatedAt: testNow.Add(-4 * day)},
		{ID: "sooner", Status: service.StatusTodo, DueDate: due(day), CreatedAt: testNow.Add(-3 * day)},
		{ID: "far", Status: service.StatusTodo, DueDate: due(30 * day), CreatedAt: testNow.Add(-2 * day)},
		{ID: "new", Status: service.StatusTodo, CreatedAt: testNow.Add(-time.Hour)},
	}
	stats := service.DashboardStats{TotalTasks: 7, CompletedTasks: 2}

	s := summarize(stats, projects, tasks, testNow)

	if s.ProductivityScore != 29 {
		t.Errorf("expected score 29, got %d", s.ProductivityScore)
	}
	if s.CompletedThisWeek != 1 {
		t.Errorf("expected 1 completed this week, got %d", s.CompletedThisWeek)
	}
	if got := ids(s.HighPriority); !reflect.DeepEqual(got, []string{"late"}) {
		t.Errorf("high priority: %v", got)
	}
	if s.ActiveProjects != 1 {
		t.Errorf("expected 1 active project, got %d", s.ActiveProjects)
	}
	if got := ids(s.Recent); !reflect.DeepEqual(got, []string{"new", "far", "sooner", "soon", "late"}) {
		t.Errorf("recent: %v", got)
	}
	if got := ids(s.Upcoming); !reflect.DeepEqual(got, []string{"sooner", "soon"}) {
		t.Errorf("upcoming: %v", got)
	}
	if got := ids(s.Overdue); !reflect.DeepEqual(got, []string{"late"}) {
		t.Errorf("overdue: %v", got)
	}
	if s.MostActive == nil || s.MostActive.Project.ID != "p2" || s.MostActive.Completed != 1 {
		t.Errorf("most active: %+v", s.MostActive)
	}
}

func TestSummary_Empty(t *testing.T) {
	s := summarize(service.DashboardStats{}, nil, nil, testNow)
	if s.ProductivityScore != 0 || s.MostActive != nil || len(s.Recent) != 0 {
		t.Errorf("unexpected %+v", s)
	}
}
