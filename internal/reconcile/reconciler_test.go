package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskboard/internal/cache"
	"taskboard/internal/dnd"
	"taskboard/internal/service"
)

// board is a local task cache backed by a fake server-side copy.
type board struct {
	mu        sync.Mutex
	server    []service.Task
	refreshes []Scope

	tasks *cache.Collection[service.Task]
}

func newBoard(tasks ...service.Task) *board {
	b := &board{server: tasks, tasks: cache.New(func(t service.Task) string { return t.ID })}
	b.tasks.Replace(tasks)
	return b
}

func (b *board) Refresh(ctx context.Context, scope Scope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshes = append(b.refreshes, scope)
	b.tasks.Replace(b.server)
	return nil
}

func (b *board) setServerStatus(id string, s service.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.server {
		if b.server[i].ID == id {
			b.server[i].Status = s
		}
	}
}

func (b *board) refreshed() []Scope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Scope(nil), b.refreshes...)
}

func (b *board) move(id string, s service.Status, index int) func() {
	return func() {
		b.tasks.Mutate(func(ts []service.Task) []service.Task {
			out, _ := dnd.MoveToColumn(ts, id, s, index)
			return out
		})
	}
}

func (b *board) status(id string) service.Status {
	t, _ := b.tasks.Get(id)
	return t.Status
}

func TestPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		kind   Kind
		want   Rule
	}{
		{"list status", ListPolicy, StatusChange, Rule{None, Full}},
		{"list reorder", ListPolicy, Reorder, Rule{None, None}},
		{"list create", ListPolicy, Create, Rule{Full, None}},
		{"list delete", ListPolicy, Delete, Rule{Full, None}},
		{"board status", BoardPolicy, StatusChange, Rule{Narrow, Narrow}},
		{"board update", BoardPolicy, Update, Rule{Full, None}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Rule(tt.kind); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestBoardStatusChange_FailureRevertsThroughRefresh(t *testing.T) {
	b := newBoard(service.Task{ID: "t1", Status: service.StatusTodo})
	r := New(BoardPolicy, b, nil)
	boom := &service.APIError{Kind: service.ErrUnavailable, Status: 500, Detail: "boom"}

	p := r.Begin(Mutation{
		Kind:   StatusChange,
		Key:    "t1",
		Apply:  b.move("t1", service.StatusDone, 0),
		Commit: func(context.Context) error { return boom },
	})
	if got := b.status("t1"); got != service.StatusDone {
		t.Fatalf("expected optimistic done, got %s", got)
	}

	res, err := p.Finish(context.Background())
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if res.Refreshed != Narrow {
		t.Errorf("expected narrow refresh, got %v", res.Refreshed)
	}
	if got := b.status("t1"); got != service.StatusTodo {
		t.Errorf("expected reverted to todo, got %s", got)
	}
}

func TestBoardStatusChange_SuccessRefreshesNarrow(t *testing.T) {
	b := newBoard(service.Task{ID: "t1", Status: service.StatusTodo})
	r := New(BoardPolicy, b, nil)

	res, err := r.Do(context.Background(), Mutation{
		Kind:  StatusChange,
		Key:   "t1",
		Apply: b.move("t1", service.StatusDone, 0),
		Commit: func(context.Context) error {
			b.setServerStatus("t1", service.StatusDone)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Refreshed != Narrow {
		t.Errorf("expected narrow refresh, got %v", res.Refreshed)
	}
	if b.status("t1") != service.StatusDone {
		t.Errorf("expected done, got %s", b.status("t1"))
	}
}

func TestListStatusChange_SuccessSkipsRefresh(t *testing.T) {
	b := newBoard(service.Task{ID: "t1", Status: service.StatusTodo})
	r := New(ListPolicy, b, nil)

	res, err := r.Do(context.Background(), Mutation{
		Kind:   StatusChange,
		Key:    "t1",
		Apply:  b.move("t1", service.StatusInProgress, 0),
		Commit: func(context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Refreshed != None || len(b.refreshed()) != 0 {
		t.Errorf("expected no refresh, got %v", b.refreshed())
	}
	// The server copy was never updated, so any refresh would have reverted.
	if b.status("t1") != service.StatusInProgress {
		t.Errorf("expected optimistic state kept, got %s", b.status("t1"))
	}
}

func TestListStatusChange_FailureRefreshesFull(t *testing.T) {
	b := newBoard(service.Task{ID: "t1", Status: service.StatusTodo})
	r := New(ListPolicy, b, nil)

	res, _ := r.Do(context.Background(), Mutation{
		Kind:   StatusChange,
		Key:    "t1",
		Apply:  b.move("t1", service.StatusDone, 0),
		Commit: func(context.Context) error { return service.ErrUnavailable },
	})
	if res.Refreshed != Full {
		t.Errorf("expected full refresh, got %v", res.Refreshed)
	}
	if b.status("t1") != service.StatusTodo {
		t.Errorf("expected reverted, got %s", b.status("t1"))
	}
}

func TestLocalReorder_NoCommitNoRefresh(t *testing.T) {
	b := newBoard(service.Task{ID: "a"}, service.Task{ID: "b"})
	r := New(ListPolicy, b, nil)

	_, err := r.Do(context.Background(), Mutation{
		Kind:  Reorder,
		Key:   "a",
		Apply: func() { b.tasks.Move(0, 1) },
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := b.tasks.Snapshot(); got[0].ID != "b" {
		t.Errorf("expected b first, got %v", got)
	}
	if len(b.refreshed()) != 0 {
		t.Errorf("expected no refresh, got %v", b.refreshed())
	}
}

func TestSameKeyCommitsAreSerialized(t *testing.T) {
	b := newBoard(service.Task{ID: "t1", Status: service.StatusTodo})
	r := New(BoardPolicy, b, nil)

	release := make(chan struct{})
	var mu sync.Mutex
	var order []string

	first := r.Begin(Mutation{
		Kind:  StatusChange,
		Key:   "t1",
		Apply: b.move("t1", service.StatusInProgress, 0),
		Commit: func(context.Context) error {
			<-release
			mu.Lock()
			order = append(order, "in_progress")
			mu.Unlock()
			b.setServerStatus("t1", service.StatusInProgress)
			return nil
		},
	})
	second := r.Begin(Mutation{
		Kind:  StatusChange,
		Key:   "t1",
		Apply: b.move("t1", service.StatusDone, 0),
		Commit: func(context.Context) error {
			mu.Lock()
			order = append(order, "done")
			mu.Unlock()
			b.setServerStatus("t1", service.StatusDone)
			return nil
		},
	})

	var wg sync.WaitGroup
	results := make([]Result, 2)
	wg.Add(2)
	go func() { defer wg.Done(); results[1], _ = second.Finish(context.Background()) }()
	go func() { defer wg.Done(); results[0], _ = first.Finish(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	if len(order) != 0 {
		t.Errorf("expected second commit to wait, got %v", order)
	}
	mu.Unlock()

	close(release)
	wg.Wait()

	if len(order) != 2 || order[0] != "in_progress" || order[1] != "done" {
		t.Fatalf("expected commits in begin order, got %v", order)
	}
	if results[0].Refreshed != None {
		t.Errorf("expected first success refresh skipped, got %v", results[0].Refreshed)
	}
	if results[1].Refreshed != Narrow {
		t.Errorf("expected last mutation to reconcile, got %v", results[1].Refreshed)
	}
	if b.status("t1") != service.StatusDone {
		t.Errorf("expected final done, got %s", b.status("t1"))
	}
}

func TestFailureRefreshReplaysOutstandingMutations(t *testing.T) {
	b := newBoard(
		service.Task{ID: "t1", Status: service.StatusTodo},
		service.Task{ID: "t2", Status: service.StatusTodo},
	)
	r := New(ListPolicy, b, nil)

	hold := make(chan struct{})
	other := r.Begin(Mutation{
		Kind:  StatusChange,
		Key:   "t2",
		Apply: b.move("t2", service.StatusDone, 0),
		Commit: func(context.Context) error {
			<-hold
			return nil
		},
	})

	_, err := r.Do(context.Background(), Mutation{
		Kind:   StatusChange,
		Key:    "t1",
		Apply:  b.move("t1", service.StatusDone, 0),
		Commit: func(context.Context) error { return service.ErrUnavailable },
	})
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected failure, got %v", err)
	}

	if b.status("t1") != service.StatusTodo {
		t.Errorf("expected t1 reverted, got %s", b.status("t1"))
	}
	if b.status("t2") != service.StatusDone {
		t.Errorf("expected outstanding t2 change kept, got %s", b.status("t2"))
	}

	close(hold)
	if _, err := other.Finish(context.Background()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestFinish_CancelledWhileQueued(t *testing.T) {
	b := newBoard(service.Task{ID: "t1", Status: service.StatusTodo})
	r := New(BoardPolicy, b, nil)

	release := make(chan struct{})
	first := r.Begin(Mutation{Kind: StatusChange, Key: "t1", Commit: func(context.Context) error {
		<-release
		return nil
	}})
	committed := false
	second := r.Begin(Mutation{Kind: StatusChange, Key: "t1", Commit: func(context.Context) error {
		committed = true
		return nil
	}})
	third := r.Begin(Mutation{Kind: StatusChange, Key: "t1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := second.Finish(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if committed {
		t.Error("expected cancelled mutation not to commit")
	}

	done := make(chan struct{})
	go func() {
		third.Finish(context.Background())
		close(done)
	}()
	close(release)
	first.Finish(context.Background())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("later mutation blocked after cancelled predecessor")
	}
}

// A refresh that lands while a failed commit is still running its own
// refresh must not bring the failed change back.
func TestRefreshDoesNotReplayFailedCommit(t *testing.T) {
	b := newBoard(service.Task{ID: "t1", Status: service.StatusTodo})

	var r *Reconciler
	calls := 0
	r = New(BoardPolicy, RefresherFunc(func(ctx context.Context, scope Scope) error {
		calls++
		if err := b.Refresh(ctx, scope); err != nil {
			return err
		}
		if calls == 1 {
			// another view refreshes before the failed mutation is released
			return r.Refresh(ctx, Full)
		}
		return nil
	}), nil)

	_, err := r.Do(context.Background(), Mutation{
		Kind:   StatusChange,
		Key:    "t1",
		Apply:  b.move("t1", service.StatusDone, 0),
		Commit: func(context.Context) error { return service.ErrUnavailable },
	})
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected failure, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected two refreshes, got %d", calls)
	}
	if b.status("t1") != service.StatusTodo {
		t.Errorf("expected t1 reverted to todo, got %s", b.status("t1"))
	}
}
