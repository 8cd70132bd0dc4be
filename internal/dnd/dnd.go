// Package dnd models a single drag gesture over a task list or Kanban board
// and the local reordering a drop implies.
//
// Flat lists use any list name that is not a task status. Kanban columns are
// named by their status, so a drop onto a column is always a status change.
package dnd

import (
	"errors"
	"fmt"

	"taskboard/internal/service"
)

// State is the phase of a gesture.
type State int

const (
	Idle State = iota
	Dragging
	DroppedNoOp
	DroppedReorder
	DroppedStatusChange
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case DroppedNoOp:
		return "dropped-no-op"
	case DroppedReorder:
		return "dropped-reorder"
	case DroppedStatusChange:
		return "dropped-status-change"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is what a drop means for the task collection.
type Outcome int

const (
	NoOp Outcome = iota
	Reorder
	StatusChange
)

func (o Outcome) String() string {
	switch o {
	case NoOp:
		return "no-op"
	case Reorder:
		return "reorder"
	case StatusChange:
		return "status-change"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// FlatList names the single list of the flat task view.
const FlatList = "tasks"

// Position is a slot in a named list.
type Position struct {
	List  string
	Index int
}

// Column returns the status a Kanban column position refers to.
func (p Position) Column() (service.Status, bool) {
	s := service.Status(p.List)
	return s, s.Valid()
}

// ColumnPosition is the position at index within the column for status.
func ColumnPosition(status service.Status, index int) Position {
	return Position{List: string(status), Index: index}
}

var (
	ErrBusy        = errors.New("a drag is already in progress")
	ErrNotDragging = errors.New("no drag in progress")
)

// Classify decides what dropping source onto dest means. A nil dest is a
// cancelled drag.
func Classify(source Position, dest *Position) Outcome {
	if dest == nil || *dest == source {
		return NoOp
	}
	if _, ok := dest.Column(); ok {
		return StatusChange
	}
	if dest.List == source.List {
		return Reorder
	}
	return NoOp
}

// Drop describes a completed gesture.
type Drop struct {
	TaskID  string
	Source  Position
	Dest    Position
	Outcome Outcome
}

// Status is the destination column status of a StatusChange drop.
func (d Drop) Status() service.Status {
	s, _ := d.Dest.Column()
	return s
}

// Gesture tracks one drag from pick-up to drop. The zero value is Idle.
type Gesture struct {
	state  State
	taskID string
	source Position
}

// State returns the current phase.
func (g *Gesture) State() State { return g.state }

// TaskID returns the dragged task, or "" when idle.
func (g *Gesture) TaskID() string { return g.taskID }

// Source returns where the drag started.
func (g *Gesture) Source() Position { return g.source }

// Start picks up taskID at source.
func (g *Gesture) Start(taskID string, source Position) error {
	if g.state == Dragging {
		return ErrBusy
	}
	g.state, g.taskID, g.source = Dragging, taskID, source
	return nil
}

// Drop ends the drag at dest. A no-op drop returns the gesture to Idle; the
// other outcomes leave it in their dropped state until Reset.
func (g *Gesture) Drop(dest *Position) (Drop, error) {
	if g.state != Dragging {
		return Drop{}, ErrNotDragging
	}
	d := Drop{TaskID: g.taskID, Source: g.source, Outcome: Classify(g.source, dest)}
	if dest != nil {
		d.Dest = *dest
	}
	switch d.Outcome {
	case Reorder:
		g.state = DroppedReorder
	case StatusChange:
		g.state = DroppedStatusChange
	default:
		g.Reset()
	}
	return d, nil
}

// Cancel abandons the drag. It is a Drop with no destination.
func (g *Gesture) Cancel() {
	if g.state == Dragging {
		_, _ = g.Drop(nil)
	}
}

// Reset returns the gesture to Idle.
func (g *Gesture) Reset() {
	*g = Gesture{}
}
