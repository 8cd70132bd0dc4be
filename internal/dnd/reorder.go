package dnd

import "taskboard/internal/service"

// ReorderTasks returns a copy of tasks with the element at from spliced out
// and reinserted at to. ok is false, and the copy unchanged, when either
// index is out of range.
func ReorderTasks(tasks []service.Task, from, to int) (out []service.Task, ok bool) {
	out = make([]service.Task, len(tasks))
	copy(out, tasks)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) {
		return out, false
	}
	t := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]service.Task{t}, out[to:]...)...)
	return out, true
}

// MoveToColumn removes the task with taskID, sets its status, and splices it
// into that status column at index (clamped to the column length). The
// result lists the columns in service.Statuses order; each column keeps the
// relative order its tasks had in the input. ok is false when taskID is
// absent.
func MoveToColumn(tasks []service.Task, taskID string, status service.Status, index int) (out []service.Task, ok bool) {
	var moved service.Task
	rest := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == taskID && !ok {
			moved, ok = t, true
			continue
		}
		rest = append(rest, t)
	}
	if !ok {
		out = make([]service.Task, len(tasks))
		copy(out, tasks)
		return out, false
	}
	moved.Status = status

	cols := Columns(rest)
	col := cols[status]
	if index < 0 {
		index = 0
	}
	if index > len(col) {
		index = len(col)
	}
	col = append(col[:index], append([]service.Task{moved}, col[index:]...)...)
	cols[status] = col

	out = make([]service.Task, 0, len(tasks))
	for _, s := range service.Statuses {
		out = append(out, cols[s]...)
	}
	// Tasks with an unknown status keep their place at the end.
	for _, t := range rest {
		if !t.Status.Valid() {
			out = append(out, t)
		}
	}
	return out, true
}

// Columns groups tasks by status, preserving relative order.
func Columns(tasks []service.Task) map[service.Status][]service.Task {
	cols := make(map[service.Status][]service.Task, len(service.Statuses))
	for _, s := range service.Statuses {
		cols[s] = nil
	}
	for _, t := range tasks {
		if t.Status.Valid() {
			cols[t.Status] = append(cols[t.Status], t)
		}
	}
	return cols
}

// ColumnIndex returns the index of taskID within its status column, or -1.
func ColumnIndex(tasks []service.Task, taskID string) int {
	var status service.Status
	found := false
	for _, t := range tasks {
		if t.ID == taskID {
			status, found = t.Status, true
			break
		}
	}
	if !found {
		return -1
	}
	i := 0
	for _, t := range tasks {
		if t.ID == taskID {
			return i
		}
		if t.Status == status {
			i++
		}
	}
	return -1
}
