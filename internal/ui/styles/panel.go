package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Border characters (rounded)
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderPanel renders content inside a rounded border with title on the left
// of the top edge and status on the right. Either may be "". The result is
// exactly width columns by height rows.
func RenderPanel(content, title, status string, width, height int, focused bool) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = BorderFocusedColor
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(TextPrimaryColor).Bold(focused)
	statusStyle := lipgloss.NewStyle().Foreground(TextMutedColor)

	innerWidth := max(width-2, 1)
	innerHeight := max(height-2, 1)

	lines := strings.Split(content, "\n")
	var b strings.Builder
	b.WriteString(topBorder(title, status, innerWidth, borderStyle, titleStyle, statusStyle))
	for i := range innerHeight {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if lipgloss.Width(line) > innerWidth {
			line = Truncate(line, innerWidth)
		}
		line += strings.Repeat(" ", max(innerWidth-lipgloss.Width(line), 0))
		b.WriteString("\n")
		b.WriteString(borderStyle.Render(borderVertical) + line + borderStyle.Render(borderVertical))
	}
	b.WriteString("\n")
	b.WriteString(borderStyle.Render(borderBottomLeft + strings.Repeat(borderHorizontal, innerWidth) + borderBottomRight))
	return b.String()
}

// topBorder builds ╭─ title ───── status ─╮, dropping the status and then
// truncating the title when the panel is too narrow.
func topBorder(title, status string, innerWidth int, borderStyle, titleStyle, statusStyle lipgloss.Style) string {
	plain := borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	if title == "" && status == "" {
		return plain
	}

	// "─ " + title + " " ... " " + status + " ─"
	const decoration = 3
	titleWidth := runewidth.StringWidth(title)
	statusWidth := runewidth.StringWidth(status)

	if status != "" && decoration+titleWidth+1+decoration+statusWidth > innerWidth {
		status, statusWidth = "", 0
	}
	if title != "" {
		avail := innerWidth - decoration
		if status != "" {
			avail -= 1 + decoration + statusWidth
		}
		if avail < 1 {
			return plain
		}
		if titleWidth > avail {
			title = Truncate(title, avail)
			titleWidth = runewidth.StringWidth(title)
		}
	}

	used := 0
	var b strings.Builder
	b.WriteString(borderStyle.Render(borderTopLeft))
	if title != "" {
		b.WriteString(borderStyle.Render(borderHorizontal+" ") + titleStyle.Render(title) + borderStyle.Render(" "))
		used += decoration + titleWidth
	}
	tail := 0
	if status != "" {
		tail = decoration + statusWidth
	}
	b.WriteString(borderStyle.Render(strings.Repeat(borderHorizontal, max(innerWidth-used-tail, 0))))
	if status != "" {
		b.WriteString(borderStyle.Render(" ") + statusStyle.Render(status) + borderStyle.Render(" "+borderHorizontal))
	}
	b.WriteString(borderStyle.Render(borderTopRight))
	return b.String()
}

// Truncate shortens s to at most maxWidth terminal columns, ending with an
// ellipsis when anything was cut. Escape sequences in styled text are kept.
func Truncate(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "…")
}

// TruncatePlain is Truncate for unstyled text, padding the result to exactly
// maxWidth columns so columns line up.
func TruncatePlain(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, maxWidth, "…"), maxWidth)
}
