package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/service"
	"taskboard/internal/views"
)

// ColumnWidth is the inner width of a rendered Kanban column.
const ColumnWidth = 26

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "250", Dark: "243"}).
			Padding(0, 1).
			Width(ColumnWidth)
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	heldStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	dropStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")).Bold(true)
)

// Swatch renders a colored block for a palette color.
func Swatch(color string) string {
	if color == "" {
		color = service.DefaultColor
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■")
}

// BoardMarks highlights cells of a rendered board. Indexes are -1 when unset.
type BoardMarks struct {
	// Cursor is the focused card.
	CursorCol, CursorRow int
	// Held is the id of the card being dragged.
	Held string
	// Drop is the slot the held card would land in.
	DropCol, DropRow int
}

// NoMarks renders a board without highlights.
var NoMarks = BoardMarks{CursorCol: -1, CursorRow: -1, DropCol: -1, DropRow: -1}

// RenderBoard renders columns side by side. Cards are numbered from 1 across
// the whole board, column by column, so a number names one card.
func RenderBoard(title, color string, cols []views.Column, marks BoardMarks) string {
	rendered := make([]string, 0, len(cols))
	num := 0
	for ci, col := range cols {
		var b strings.Builder
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", col.Status.Label(), len(col.Tasks))))
		b.WriteString("\n")
		for ri, t := range col.Tasks {
			if marks.DropCol == ci && marks.DropRow == ri {
				b.WriteString(dropStyle.Render("▸ drop here"))
				b.WriteString("\n")
			}
			num++
			line := truncate(fmt.Sprintf("%d. %s", num, normalizeTitle(t.Title)), ColumnWidth)
			switch {
			case t.ID == marks.Held:
				line = heldStyle.Render(line)
			case marks.CursorCol == ci && marks.CursorRow == ri:
				line = cursorStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
			if meta := strings.TrimSpace(taskMeta(t, "")); meta != "" {
				b.WriteString(mutedStyle.Render("   " + truncate(meta, ColumnWidth-3)))
				b.WriteString("\n")
			}
		}
		if marks.DropCol == ci && marks.DropRow >= len(col.Tasks) {
			b.WriteString(dropStyle.Render("▸ drop here"))
			b.WriteString("\n")
		}
		if len(col.Tasks) == 0 && marks.DropCol != ci {
			b.WriteString(mutedStyle.Render("(empty)"))
		}
		rendered = append(rendered, columnStyle.Render(strings.TrimRight(b.String(), "\n")))
	}

	heading := headerStyle.Render(normalizeListTitle(title))
	if color != "" {
		heading = Swatch(color) + " " + heading
	}
	return heading + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, rendered...) + "\n"
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
