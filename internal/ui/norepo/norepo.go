// Package norepo provides the empty state view shown when the target
// directory is not inside a git repository.
package norepo

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/gitglance/internal/ui/styles"
)

// Model holds the norepo view state.
type Model struct {
	path   string
	width  int
	height int
}

// New creates a new norepo view for the directory that was searched.
func New(path string) Model {
	return Model{path: path}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the empty state.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.TextPrimaryColor)

	messageStyle := lipgloss.NewStyle().
		Foreground(styles.TextDescriptionColor)

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextMutedColor).
		Italic(true).
		MarginTop(2)

	var content strings.Builder
	content.WriteString(titleStyle.Render("No git repository here"))
	content.WriteString("\n\n")
	content.WriteString(messageStyle.Render(styles.Truncate(m.path, max(m.width-4, 10))))
	content.WriteString("\n\n")
	content.WriteString(messageStyle.Render("Try one of these options:"))
	content.WriteString("\n\n")
	content.WriteString(messageStyle.Render("  1. Run gitglance from inside a repository"))
	content.WriteString("\n")
	content.WriteString(messageStyle.Render("  2. Use the --repo flag: gitglance --repo /path/to/repo"))
	content.WriteString("\n")
	content.WriteString(messageStyle.Render("  3. Set repo_path in your config file (~/.config/gitglance/config.yaml)"))
	content.WriteString("\n\n")
	content.WriteString(hintStyle.Render("Press q to quit"))

	containerStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	return containerStyle.Render(content.String())
}

// SetSize updates the view dimensions.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}
