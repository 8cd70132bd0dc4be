// Package tui is the interactive board: a task list and a project Kanban
// board with keyboard drag and drop.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/dnd"
	"taskboard/internal/output"
	"taskboard/internal/reconcile"
	"taskboard/internal/service"
	"taskboard/internal/views"
)

// Mode selects the list or the board.
type Mode int

const (
	ModeList Mode = iota
	ModeBoard
)

func (m Mode) String() string {
	if m == ModeBoard {
		return "board"
	}
	return "list"
}

type refreshedMsg struct{ err error }

type committedMsg struct{ err error }

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	dropStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")).Bold(true)
)

// Model is the bubbletea model. Mutations are applied to the caches inside
// Update and committed by a command, so the screen never waits on the
// backend.
type Model struct {
	ctx   context.Context
	d     *views.Dashboard
	list  *views.TaskList
	board *views.ProjectBoard
	keys  KeyMap
	help  help.Model

	mode    Mode
	gesture dnd.Gesture

	row              int // list cursor
	col, crow        int // board cursor
	dropCol, dropRow int // drag target

	pending int
	status  string
	err     error
}

// New creates a model over d. board may be nil, which disables board mode;
// otherwise the model opens on the board.
func New(ctx context.Context, d *views.Dashboard, board *views.ProjectBoard) Model {
	m := Model{
		ctx:   ctx,
		d:     d,
		list:  views.NewTaskList(d),
		board: board,
		keys:  DefaultKeyMap,
		help:  help.New(),
	}
	if board != nil {
		m.mode = ModeBoard
	}
	return m
}

// Mode returns the active view.
func (m Model) Mode() Mode { return m.mode }

// Dragging reports whether a card is held.
func (m Model) Dragging() bool { return m.gesture.State() == dnd.Dragging }

// Status returns the last feedback line.
func (m Model) Status() string { return m.status }

// Err returns the error that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return m.refresh()
}

func (m Model) refresh() tea.Cmd {
	ctx, list, board := m.ctx, m.list, m.board
	return func() tea.Msg {
		if board != nil {
			return refreshedMsg{err: board.Refresh(ctx)}
		}
		return refreshedMsg{err: list.Refresh(ctx)}
	}
}

func (m Model) reloadBoard() tea.Cmd {
	ctx, board := m.ctx, m.board
	return func() tea.Msg {
		return refreshedMsg{err: board.Reload(ctx)}
	}
}

func (m Model) finish(p *reconcile.Pending) tea.Cmd {
	ctx := m.ctx
	fn := m.list.Finish
	if m.mode == ModeBoard {
		fn = m.board.Finish
	}
	return func() tea.Msg {
		return committedMsg{err: fn(ctx, p)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case refreshedMsg:
		cmd := m.feedback(msg.err)
		m.clamp()
		return m, cmd
	case committedMsg:
		m.pending--
		if m.board != nil {
			// a list commit or its failure refresh only touches the shared cache
			m.board.Resync()
		}
		cmd := m.feedback(msg.err)
		m.clamp()
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// feedback shows err. A rejected credential ends the program.
func (m *Model) feedback(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	fb := views.Explain(err)
	m.status = fb.String()
	if fb.Kind == views.FeedbackAuth {
		m.err = err
		return tea.Quit
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.gesture.Cancel()
		m.status = ""
	case key.Matches(msg, m.keys.Toggle):
		if m.board != nil {
			m.gesture.Cancel()
			if m.mode == ModeBoard {
				m.mode = ModeList
				m.clamp()
				return m, nil
			}
			m.mode = ModeBoard
			m.board.Resync()
			m.clamp()
			if m.pending == 0 {
				return m, m.reloadBoard()
			}
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.Up):
		m.step(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.step(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.step(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.step(1, 0)
	case key.Matches(msg, m.keys.Grab):
		return m.grab()
	case key.Matches(msg, m.keys.Todo):
		return m.setStatus(service.StatusTodo)
	case key.Matches(msg, m.keys.Doing):
		return m.setStatus(service.StatusInProgress)
	case key.Matches(msg, m.keys.Done):
		return m.setStatus(service.StatusDone)
	}
	return m, nil
}

// step moves the cursor, or the drop target while dragging.
func (m *Model) step(dx, dy int) {
	dragging := m.Dragging()
	if m.mode == ModeList {
		if dx != 0 {
			return
		}
		if dragging {
			m.dropRow += dy
		} else {
			m.row += dy
		}
		m.clamp()
		return
	}
	if dragging {
		m.dropCol += dx
		m.dropRow += dy
	} else {
		m.col += dx
		m.crow += dy
	}
	m.clamp()
}

// clamp keeps the cursor and drop target inside the current data.
func (m *Model) clamp() {
	if m.mode == ModeList {
		n := len(m.list.Visible())
		m.row = clampInt(m.row, 0, n-1)
		m.dropRow = clampInt(m.dropRow, 0, n-1)
		return
	}
	cols := m.board.Columns()
	m.col = clampInt(m.col, 0, len(cols)-1)
	m.crow = clampInt(m.crow, 0, len(cols[m.col].Tasks)-1)
	m.dropCol = clampInt(m.dropCol, 0, len(cols)-1)
	m.dropRow = clampInt(m.dropRow, 0, len(cols[m.dropCol].Tasks))
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

// grab picks up the card under the cursor, or drops the held one.
func (m Model) grab() (tea.Model, tea.Cmd) {
	if !m.Dragging() {
		m.status = ""
		if m.mode == ModeList {
			visible := m.list.Visible()
			if len(visible) == 0 {
				return m, nil
			}
			_ = m.gesture.Start(visible[m.row].ID, dnd.Position{List: dnd.FlatList, Index: m.row})
			m.dropRow = m.row
			return m, nil
		}
		cols := m.board.Columns()
		col := cols[m.col]
		if len(col.Tasks) == 0 {
			return m, nil
		}
		_ = m.gesture.Start(col.Tasks[m.crow].ID, dnd.ColumnPosition(col.Status, m.crow))
		m.dropCol, m.dropRow = m.col, m.crow
		return m, nil
	}

	dest := dnd.Position{List: dnd.FlatList, Index: m.dropRow}
	if m.mode == ModeBoard {
		dest = dnd.ColumnPosition(service.Statuses[m.dropCol], m.dropRow)
	}
	drop, err := m.gesture.Drop(&dest)
	if err != nil {
		return m, m.feedback(err)
	}
	m.gesture.Reset()

	switch drop.Outcome {
	case dnd.Reorder:
		if err := m.list.Drop(m.ctx, drop); err != nil {
			return m, m.feedback(err)
		}
		m.row = m.dropRow
		return m, nil
	case dnd.StatusChange:
		p, err := m.board.BeginMove(drop.TaskID, drop.Status(), drop.Dest.Index)
		if err != nil {
			return m, m.feedback(err)
		}
		m.pending++
		m.col = m.dropCol
		m.crow = indexInColumn(m.board.Columns()[m.col], drop.TaskID)
		return m, m.finish(p)
	}
	return m, nil
}

func indexInColumn(col views.Column, taskID string) int {
	for i, t := range col.Tasks {
		if t.ID == taskID {
			return i
		}
	}
	return 0
}

// setStatus changes the status of the card under the cursor.
func (m Model) setStatus(status service.Status) (tea.Model, tea.Cmd) {
	if m.Dragging() {
		return m, nil
	}
	var (
		p   *reconcile.Pending
		err error
	)
	if m.mode == ModeList {
		visible := m.list.Visible()
		if len(visible) == 0 || visible[m.row].Status == status {
			return m, nil
		}
		p, err = m.list.BeginStatus(visible[m.row].ID, status)
	} else {
		cols := m.board.Columns()
		col := cols[m.col]
		if len(col.Tasks) == 0 || col.Status == status {
			return m, nil
		}
		end := 0
		for _, c := range cols {
			if c.Status == status {
				end = len(c.Tasks)
			}
		}
		p, err = m.board.BeginMove(col.Tasks[m.crow].ID, status, end)
	}
	if err != nil {
		return m, m.feedback(err)
	}
	m.pending++
	m.clamp()
	return m, m.finish(p)
}

func (m Model) View() string {
	var b strings.Builder
	if m.mode == ModeBoard {
		b.WriteString(m.boardView())
	} else {
		b.WriteString(m.listView())
	}
	b.WriteString("\n")
	if m.pending > 0 {
		b.WriteString("saving…\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) listView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString("\n")
	visible := m.list.Visible()
	if len(visible) == 0 {
		b.WriteString("no tasks found\n")
		return b.String()
	}
	names := make(map[string]string)
	for _, p := range m.d.Projects.Snapshot() {
		names[p.ID] = p.Name
	}
	dragging := m.Dragging()
	for i, t := range visible {
		if dragging && i == m.dropRow && t.ID != m.gesture.TaskID() {
			b.WriteString(dropStyle.Render("  ▸ drop here"))
			b.WriteString("\n")
		}
		var line strings.Builder
		output.FormatTask(&line, i+1, t, names[t.ProjectID])
		text := strings.TrimRight(line.String(), "\n")
		switch {
		case dragging && t.ID == m.gesture.TaskID():
			text = "* " + text
		case i == m.row:
			text = cursorStyle.Render("> " + text)
		default:
			text = "  " + text
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) boardView() string {
	p, ok := m.board.Selected()
	if !ok {
		return "no project selected\n"
	}
	marks := output.BoardMarks{CursorCol: m.col, CursorRow: m.crow, DropCol: -1, DropRow: -1}
	if m.Dragging() {
		marks.Held = m.gesture.TaskID()
		marks.DropCol, marks.DropRow = m.dropCol, m.dropRow
	}
	return output.RenderBoard(p.Name, p.Color, m.board.Columns(), marks) +
		fmt.Sprintf("%s mode\n", m.mode)
}
