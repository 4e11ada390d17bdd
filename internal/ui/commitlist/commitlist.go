// Package commitlist provides the scrollable commit list.
package commitlist

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/ui/styles"
)

const (
	hashWidth   = 7
	authorWidth = 12
	dateWidth   = 10
	dateLayout  = "2006-01-02"
)

// Model holds the commit list state.
type Model struct {
	commits []domain.Commit

	cursor       int // Highlighted row
	maxVisible   int // Rows that fit before scrolling
	scrollOffset int // First visible row

	zones      *zone.Manager // nil disables mouse selection
	zonePrefix string
}

// New creates an empty commit list.
func New() Model {
	return Model{maxVisible: 10}
}

// SetCommits replaces the list. The cursor stays on the same commit when it
// is still present, otherwise it is clamped.
func (m Model) SetCommits(commits []domain.Commit) Model {
	var current string
	if c := m.Highlighted(); c != nil {
		current = c.Hash
	}
	m.commits = commits
	m.cursor = min(m.cursor, max(len(commits)-1, 0))
	for i, c := range commits {
		if c.Hash == current {
			m.cursor = i
			break
		}
	}
	return m.ensureVisible()
}

// SetZones enables mouse selection. Rows are marked in z, which must also
// scan the final frame.
func (m Model) SetZones(z *zone.Manager) Model {
	m.zones = z
	if z != nil {
		m.zonePrefix = z.NewPrefix()
	}
	return m
}

func (m Model) rowZone(hash string) string {
	return m.zonePrefix + "commit-" + hash
}

// SetHeight sets how many rows are visible.
func (m Model) SetHeight(rows int) Model {
	m.maxVisible = max(rows, 1)
	return m.ensureVisible()
}

// Len returns the number of commits.
func (m Model) Len() int {
	return len(m.commits)
}

// Cursor returns the highlighted row index.
func (m Model) Cursor() int {
	return m.cursor
}

// Highlighted returns the commit under the cursor, or nil when empty.
func (m Model) Highlighted() *domain.Commit {
	if m.cursor < 0 || m.cursor >= len(m.commits) {
		return nil
	}
	return &m.commits[m.cursor]
}

// Next moves the cursor down one row.
func (m Model) Next() Model {
	if m.cursor < len(m.commits)-1 {
		m.cursor++
	}
	return m.ensureVisible()
}

// Prev moves the cursor up one row.
func (m Model) Prev() Model {
	if m.cursor > 0 {
		m.cursor--
	}
	return m.ensureVisible()
}

// Top moves the cursor to the newest commit.
func (m Model) Top() Model {
	m.cursor = 0
	return m.ensureVisible()
}

// Bottom moves the cursor to the oldest commit.
func (m Model) Bottom() Model {
	m.cursor = max(len(m.commits)-1, 0)
	return m.ensureVisible()
}

// ensureVisible ensures the cursor is visible within the scroll window.
func (m Model) ensureVisible() Model {
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	} else if m.cursor >= m.scrollOffset+m.maxVisible {
		m.scrollOffset = m.cursor - m.maxVisible + 1
	}
	maxOffset := max(len(m.commits)-m.maxVisible, 0)
	m.scrollOffset = min(m.scrollOffset, maxOffset)
	return m
}

// HandleKey processes navigation keys.
// Returns (updated model, consumed bool, selected commit if enter pressed).
func (m Model) HandleKey(msg tea.KeyMsg) (Model, bool, *domain.Commit) {
	switch msg.String() {
	case "down", "j":
		return m.Next(), true, nil
	case "up", "k":
		return m.Prev(), true, nil
	case "home", "g":
		return m.Top(), true, nil
	case "end", "G":
		return m.Bottom(), true, nil
	case "enter":
		return m, true, m.Highlighted()
	}
	return m, false, nil
}

// HandleMouse selects the visible row under a left click. It returns the
// clicked commit, or nil when the click missed every row.
func (m Model) HandleMouse(msg tea.MouseMsg) (Model, *domain.Commit) {
	if m.zones == nil || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	end := min(m.scrollOffset+m.maxVisible, len(m.commits))
	for i := m.scrollOffset; i < end; i++ {
		if m.zones.Get(m.rowZone(m.commits[i].Hash)).InBounds(msg) {
			m.cursor = i
			return m.ensureVisible(), &m.commits[i]
		}
	}
	return m, nil
}

// View renders the visible rows at the given width. activeHash marks the
// commit whose detail is shown.
func (m Model) View(width int, activeHash string) string {
	if len(m.commits) == 0 {
		return ""
	}

	// Layout: "▸ hash message author date" with single spaces between columns
	fixedWidth := 2 + hashWidth + 1 + 1 + authorWidth + 1 + dateWidth
	showDate := width-fixedWidth >= 12
	if !showDate {
		fixedWidth -= 1 + dateWidth
	}
	messageWidth := max(width-fixedWidth, 4)

	normalStyle := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor)
	activeStyle := lipgloss.NewStyle().Foreground(styles.AccentColor).Bold(true)

	end := min(m.scrollOffset+m.maxVisible, len(m.commits))
	lines := make([]string, 0, end-m.scrollOffset)
	for i := m.scrollOffset; i < end; i++ {
		c := m.commits[i]

		marker := "  "
		if c.Hash == activeHash {
			marker = "▸ "
		}
		hash := c.ShortHash
		if hash == "" {
			hash = domain.ShortHash(c.Hash)
		}
		hash = fmt.Sprintf("%-*s", hashWidth, hash)

		rest := " " + styles.TruncatePlain(c.Message, messageWidth) +
			" " + styles.TruncatePlain(c.Author, authorWidth)
		if showDate {
			rest += " " + c.Timestamp.Local().Format(dateLayout)
		}

		var line string
		switch {
		case i == m.cursor:
			line = styles.SelectedStyle.Render(marker + hash + rest)
		case c.Hash == activeHash:
			line = activeStyle.Render(marker + hash + rest)
		default:
			line = marker + styles.HashStyle.Render(hash) + normalStyle.Render(rest)
		}
		if m.zones != nil {
			line = m.zones.Mark(m.rowZone(c.Hash), line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Position reports "n/total" for the panel status line.
func (m Model) Position() string {
	if len(m.commits) == 0 {
		return "0"
	}
	return fmt.Sprintf("%d/%d", m.cursor+1, len(m.commits))
}
