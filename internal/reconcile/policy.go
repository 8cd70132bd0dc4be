// Package reconcile applies optimistic mutations to local caches, commits
// them to the backend, and refreshes the affected scope according to a
// per-view policy table.
package reconcile

import "fmt"

// Scope is how much local state a refresh re-fetches.
type Scope int

const (
	None Scope = iota
	// Narrow re-fetches the scope a view is focused on, such as the
	// selected project's tasks.
	Narrow
	// Full re-fetches everything the view holds.
	Full
)

func (s Scope) String() string {
	switch s {
	case None:
		return "none"
	case Narrow:
		return "narrow"
	case Full:
		return "full"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// Kind classifies a mutation.
type Kind int

const (
	StatusChange Kind = iota
	Reorder
	Create
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case StatusChange:
		return "status-change"
	case Reorder:
		return "reorder"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Rule is the refresh to run once a commit succeeds or fails.
type Rule struct {
	OnSuccess Scope
	OnFailure Scope
}

// Policy maps mutation kinds to rules. Kinds without an entry refresh
// nothing.
type Policy map[Kind]Rule

// Rule returns the rule for k.
func (p Policy) Rule(k Kind) Rule { return p[k] }

// ListPolicy governs the flat task list. A successful status change must not
// be followed by a refresh of the same scope.
var ListPolicy = Policy{
	StatusChange: {OnSuccess: None, OnFailure: Full},
	Reorder:      {OnSuccess: None, OnFailure: None},
	Create:       {OnSuccess: Full, OnFailure: None},
	Update:       {OnSuccess: Full, OnFailure: None},
	Delete:       {OnSuccess: Full, OnFailure: None},
}

// BoardPolicy governs the Kanban board. Status changes refresh only the
// selected project's tasks, whatever the outcome.
var BoardPolicy = Policy{
	StatusChange: {OnSuccess: Narrow, OnFailure: Narrow},
	Reorder:      {OnSuccess: None, OnFailure: None},
	Create:       {OnSuccess: Full, OnFailure: None},
	Update:       {OnSuccess: Full, OnFailure: None},
	Delete:       {OnSuccess: Full, OnFailure: None},
}
