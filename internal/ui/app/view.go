package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/ui/styles"
)

const (
	headerHeight = 1
	greetHeight  = 4 // border + input + greeting
	footerHeight = 1
	minBodyRows  = 3
	dateFormat   = "Mon Jan 2 15:04:05 2006 -0700"
)

// layout sizes the widgets for the current window.
func (m Model) layout() Model {
	_, detailWidth, bodyHeight := m.bodySize()
	m.list = m.list.SetHeight(bodyHeight - 2)
	m.input.Width = max(m.width-6, 10)

	m.detail.Width = max(detailWidth-2, 1)
	m.detail.Height = max(bodyHeight-2, 1)
	if m.view.Detail.IsSuccess() {
		m.detail.SetContent(renderDetail(m.view.Detail.Data, m.detail.Width))
	}
	return m
}

func (m Model) bodySize() (listWidth, detailWidth, height int) {
	height = max(m.height-headerHeight-greetHeight-footerHeight, minBodyRows)
	listWidth = max(m.width*2/5, 24)
	if listWidth > m.width-12 {
		listWidth = max(m.width/2, 1)
	}
	detailWidth = max(m.width-listWidth, 1)
	return listWidth, detailWidth, height
}

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	listWidth, detailWidth, bodyHeight := m.bodySize()

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderList(listWidth, bodyHeight),
		m.renderDetailPane(detailWidth, bodyHeight),
	)
	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderGreet(),
		body,
		m.renderFooter(),
	))
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("gitglance")
	repo := styles.MutedStyle.Render(" " + m.repo)
	return styles.Truncate(title+repo, m.width)
}

func (m Model) renderGreet() string {
	var status string
	if m.view.GreetPending {
		status = "sending…"
	}

	var line string
	switch {
	case m.view.GreetErr != nil:
		line = styles.ErrorStyle.Render("Greeting failed: " + m.view.GreetErr.Error())
		if m.view.Greeting != "" {
			line = m.view.Greeting + "  " + line
		}
	case m.view.Greeting != "":
		line = m.view.Greeting
	default:
		line = styles.MutedStyle.Render("Type a name and press enter")
	}

	content := m.input.View() + "\n" + line
	return styles.RenderPanel(content, "Greet", status, m.width, greetHeight, m.focus == focusGreet)
}

func (m Model) renderList(width, height int) string {
	st := m.view.Commits
	inner := width - 2

	var content, status string
	switch {
	case st.IsError():
		status = "error"
		content = styles.ErrorStyle.Render(wordwrap.String("Could not load commits: "+st.Err.Error(), inner)) +
			"\n\n" + styles.MutedStyle.Render("Press r to retry")
	case st.IsSuccess() && len(st.Data) == 0:
		status = "0"
		content = styles.MutedStyle.Render("No commits yet")
	case st.Data == nil:
		status = "loading…"
		content = styles.MutedStyle.Render("Loading commits…")
	default:
		status = m.list.Position()
		if st.IsPending() {
			status = "refreshing…"
		}
		content = m.list.View(inner, m.view.ActiveHash)
	}
	return styles.RenderPanel(content, "Commits", status, width, height, m.focus == focusList)
}

func (m Model) renderDetailPane(width, height int) string {
	d := m.view.Detail
	inner := width - 2

	var content, status string
	switch {
	case d.IsIdle():
		content = styles.MutedStyle.Render("Select a commit and press enter")
	case d.IsPending() && d.Data.Hash == "":
		status = "loading…"
		content = styles.MutedStyle.Render("Loading " + domain.ShortHash(m.view.ActiveHash) + "…")
	case d.IsError():
		status = "error"
		content = styles.ErrorStyle.Render(wordwrap.String(d.Err.Error(), inner)) +
			"\n\n" + styles.MutedStyle.Render("Press r to retry")
	default:
		status = domain.ShortHash(d.Data.Hash)
		if d.IsPending() {
			status = "refreshing…"
		}
		content = m.detail.View()
	}
	return styles.RenderPanel(content, "Detail", status, width, height, m.focus == focusDetail)
}

func (m Model) renderFooter() string {
	var help string
	switch m.focus {
	case focusGreet:
		help = "enter greet • tab commits • esc leave input • ctrl+c quit"
	case focusList:
		help = "j/k move • enter/click open • r refresh • tab detail • / greet • q quit"
	default:
		help = "j/k scroll • r refresh • tab greet • q quit"
	}
	return styles.MutedStyle.Render(styles.Truncate(help, m.width))
}

// renderDetail formats a commit the way `git show --stat` lays it out.
func renderDetail(d domain.CommitDetail, width int) string {
	width = max(width, 20)
	var b strings.Builder

	b.WriteString(styles.HashStyle.Render("commit " + d.Hash))
	b.WriteString("\n")
	author := d.Author
	if d.AuthorEmail != "" {
		author += " <" + d.AuthorEmail + ">"
	}
	b.WriteString("Author: " + author + "\n")
	if !d.Timestamp.IsZero() {
		b.WriteString("Date:   " + d.Timestamp.Format(dateFormat) + "\n")
	}
	if len(d.Parents) > 0 {
		short := make([]string, len(d.Parents))
		for i, p := range d.Parents {
			short[i] = domain.ShortHash(p)
		}
		b.WriteString(styles.MutedStyle.Render("Parents: "+strings.Join(short, " ")) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(indent(wordwrap.String(d.Message, width-4), "    "))
	b.WriteString("\n")
	if d.Description != "" {
		b.WriteString("\n")
		b.WriteString(indent(wordwrap.String(d.Description, width-4), "    "))
		b.WriteString("\n")
	}

	if len(d.Files) > 0 {
		b.WriteString("\n")
		for _, f := range d.Files {
			counts := styles.AddedStyle.Render(fmt.Sprintf("+%d", f.Added)) + " " +
				styles.RemovedStyle.Render(fmt.Sprintf("-%d", f.Removed))
			b.WriteString(styles.Truncate(" "+f.Path+"  "+counts, width) + "\n")
		}
		added, removed := d.Totals()
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf(" %d %s changed, %d insertions(+), %d deletions(-)",
			len(d.Files), plural(len(d.Files), "file", "files"), added, removed)))
		b.WriteString("\n")
	}

	if d.Diff != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimRight(d.Diff, "\n"), "\n") {
			b.WriteString(styles.Truncate(diffLine(line), width))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func diffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return styles.TitleStyle.Render(line)
	case strings.HasPrefix(line, "+"):
		return styles.AddedStyle.Render(line)
	case strings.HasPrefix(line, "-"):
		return styles.RemovedStyle.Render(line)
	case strings.HasPrefix(line, "@@"):
		return styles.HashStyle.Render(line)
	}
	return line
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
