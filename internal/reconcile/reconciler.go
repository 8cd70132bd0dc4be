package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Refresher re-fetches authoritative state for a scope.
type Refresher interface {
	Refresh(ctx context.Context, scope Scope) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, scope Scope) error

// Refresh implements Refresher.
func (f RefresherFunc) Refresh(ctx context.Context, scope Scope) error { return f(ctx, scope) }

// Mutation is one user intent.
type Mutation struct {
	Kind Kind
	// Key identifies the entity. Commits with the same key run one at a
	// time in the order they began. An empty key is never serialized.
	Key string
	// Apply changes the local cache. It runs at Begin and again after any
	// refresh that lands while the commit is still outstanding, so it must
	// be safe to repeat.
	Apply func()
	// Commit sends the change to the backend. A nil Commit is a local-only
	// mutation.
	Commit func(ctx context.Context) error
}

// Reconciler runs mutations against a policy.
type Reconciler struct {
	policy    Policy
	refresher Refresher
	log       *slog.Logger

	mu       sync.Mutex
	tails    map[string]chan struct{} // last pending done channel per key
	queued   map[string]int           // pending mutations per key
	inflight []*Pending               // in begin order
}

// New creates a Reconciler.
func New(policy Policy, refresher Refresher, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		policy:    policy,
		refresher: refresher,
		log:       log,
		tails:     make(map[string]chan struct{}),
		queued:    make(map[string]int),
	}
}

// Policy returns the table the reconciler follows.
func (r *Reconciler) Policy() Policy { return r.policy }

// Pending is a mutation that has been applied locally but not yet committed.
// Every Pending must be finished.
type Pending struct {
	ID string

	r    *Reconciler
	m    Mutation
	prev <-chan struct{}
	done chan struct{}
	once sync.Once

	settled bool // commit returned; guarded by r.mu
}

// Result reports what Finish did.
type Result struct {
	ID        string
	Kind      Kind
	Key       string
	Err       error // commit error
	Refreshed Scope
}

// Begin applies m locally and queues its commit.
func (r *Reconciler) Begin(m Mutation) *Pending {
	p := &Pending{
		ID:   uuid.NewString(),
		r:    r,
		m:    m,
		done: make(chan struct{}),
	}

	r.mu.Lock()
	if m.Key != "" {
		p.prev = r.tails[m.Key]
		r.tails[m.Key] = p.done
		r.queued[m.Key]++
	}
	r.inflight = append(r.inflight, p)
	r.mu.Unlock()

	if m.Apply != nil {
		m.Apply()
	}
	r.log.Debug("mutation applied", "id", p.ID, "kind", m.Kind, "key", m.Key)
	return p
}

// Do is Begin followed by Finish.
func (r *Reconciler) Do(ctx context.Context, m Mutation) (Result, error) {
	return r.Begin(m).Finish(ctx)
}

// Refresh re-fetches scope and re-applies every outstanding mutation.
func (r *Reconciler) Refresh(ctx context.Context, scope Scope) error {
	return r.refresh(ctx, scope, nil)
}

// Finish waits for earlier commits of the same key, commits, and runs the
// refresh the policy prescribes. A success refresh is skipped when later
// mutations of the same key are still queued; the last of them reconciles.
// The returned error joins the commit and refresh errors.
func (p *Pending) Finish(ctx context.Context) (Result, error) {
	r := p.r
	res := Result{ID: p.ID, Kind: p.m.Kind, Key: p.m.Key}

	if p.prev != nil {
		select {
		case <-p.prev:
		case <-ctx.Done():
			r.mu.Lock()
			p.settled = true
			r.mu.Unlock()
			// Keep the chain intact for later mutations of this key.
			go func() {
				<-p.prev
				p.release()
			}()
			res.Err = ctx.Err()
			return res, res.Err
		}
	}
	defer p.release()

	if p.m.Commit != nil {
		res.Err = p.m.Commit(ctx)
	}
	// Server state now decides; refreshes must not replay this mutation.
	r.mu.Lock()
	p.settled = true
	r.mu.Unlock()
	if errors.Is(res.Err, context.Canceled) {
		return res, res.Err
	}

	rule := r.policy.Rule(p.m.Kind)
	scope := rule.OnSuccess
	if res.Err != nil {
		scope = rule.OnFailure
		r.log.Warn("mutation failed", "id", p.ID, "kind", p.m.Kind, "key", p.m.Key, "error", res.Err, "refresh", scope)
	} else if scope != None && p.laterQueued() {
		r.log.Debug("refresh deferred to later mutation", "id", p.ID, "key", p.m.Key)
		scope = None
	}

	var refreshErr error
	if scope != None {
		res.Refreshed = scope
		refreshErr = r.refresh(ctx, scope, p)
	}
	return res, errors.Join(res.Err, refreshErr)
}

func (p *Pending) laterQueued() bool {
	if p.m.Key == "" {
		return false
	}
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	return p.r.queued[p.m.Key] > 1
}

func (p *Pending) release() {
	p.once.Do(func() {
		r := p.r
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, q := range r.inflight {
			if q == p {
				r.inflight = append(r.inflight[:i], r.inflight[i+1:]...)
				break
			}
		}
		if key := p.m.Key; key != "" {
			r.queued[key]--
			if r.queued[key] <= 0 {
				delete(r.queued, key)
			}
			if r.tails[key] == p.done {
				delete(r.tails, key)
			}
		}
		close(p.done)
	})
}

// refresh re-fetches scope, then replays optimistic changes whose commits
// have not returned yet so the listing does not erase them.
func (r *Reconciler) refresh(ctx context.Context, scope Scope, self *Pending) error {
	if scope == None || r.refresher == nil {
		return nil
	}
	if err := r.refresher.Refresh(ctx, scope); err != nil {
		r.log.Warn("refresh failed", "scope", scope, "error", err)
		return err
	}

	r.mu.Lock()
	replay := make([]*Pending, 0, len(r.inflight))
	for _, q := range r.inflight {
		if q != self && !q.settled && q.m.Apply != nil && q.m.Commit != nil {
			replay = append(replay, q)
		}
	}
	r.mu.Unlock()

	for _, q := range replay {
		q.m.Apply()
	}
	return nil
}
