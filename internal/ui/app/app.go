// Package app is the root Bubble Tea model: the greeting form, the commit
// list and the commit detail pane, all rendered from controller state.
package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/gitglance/internal/controller"
	domain "github.com/zjrosen/gitglance/internal/git/domain"
	"github.com/zjrosen/gitglance/internal/log"
	"github.com/zjrosen/gitglance/internal/query"
	"github.com/zjrosen/gitglance/internal/ui/commitlist"
)

// Controller is the slice of the selection controller the UI drives.
type Controller interface {
	View() controller.View
	SetActiveCommitHash(hash string)
	Greet(ctx context.Context, name string) error
	RefreshCommits()
	RefetchDetail() bool
	Subscribe(fn func()) func()
}

type focusArea int

const (
	focusGreet focusArea = iota
	focusList
	focusDetail
)

// stateChangedMsg is delivered whenever controller state may have changed.
type stateChangedMsg struct{}

// greetDoneMsg reports the end of a greet submission.
type greetDoneMsg struct{ err error }

// Model is the root model.
type Model struct {
	ctx  context.Context
	ctrl Controller
	repo string

	input   textinput.Model
	list    commitlist.Model
	detail  viewport.Model
	focus   focusArea
	zones   *zone.Manager
	changes chan struct{}
	unsub   func()

	view        controller.View
	detailKey   query.Key
	detailEpoch uint64

	width  int
	height int
}

// New creates the root model. repo is shown in the header.
func New(ctx context.Context, ctrl Controller, repo string) Model {
	input := textinput.New()
	input.Placeholder = "Enter a name..."
	input.Prompt = "› "
	input.CharLimit = 64
	input.Focus()

	changes := make(chan struct{}, 1)
	unsub := ctrl.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	zones := zone.New()
	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		repo:    repo,
		input:   input,
		list:    commitlist.New().SetZones(zones),
		detail:  viewport.New(0, 0),
		focus:   focusGreet,
		zones:   zones,
		changes: changes,
		unsub:   unsub,
	}
	return m.sync()
}

// Init starts listening for controller changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange())
}

// Close stops listening for controller changes.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
	if m.zones != nil {
		m.zones.Close()
	}
}

func (m Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		<-changes
		return stateChangedMsg{}
	}
}

func (m Model) greet(name string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return greetDoneMsg{err: ctrl.Greet(ctx, name)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.layout()
		return m.sync(), nil

	case stateChangedMsg:
		return m.sync(), m.waitForChange()

	case greetDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, controller.ErrSuperseded) {
			log.Debug(log.CatUI, "Greet failed", "error", msg.err)
		}
		return m.sync(), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}

	if m.focus == focusGreet {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m.setFocus((m.focus + 1) % 3), nil
	case "shift+tab":
		return m.setFocus((m.focus + 2) % 3), nil
	}

	if m.focus == focusGreet {
		switch msg.String() {
		case "enter":
			return m, m.greet(m.input.Value())
		case "esc":
			return m.setFocus(focusList), nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "r":
		m.ctrl.RefreshCommits()
		if m.view.Detail.IsError() {
			m.ctrl.RefetchDetail()
		}
		return m, nil
	case "/", "i":
		return m.setFocus(focusGreet), nil
	}

	if m.focus == focusList {
		var selected *domain.Commit
		m.list, _, selected = m.list.HandleKey(msg)
		if selected != nil {
			m.ctrl.SetActiveCommitHash(selected.Hash)
			m.focus = focusDetail
		}
		return m.sync(), nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	var selected *domain.Commit
	m.list, selected = m.list.HandleMouse(msg)
	if selected != nil {
		m.ctrl.SetActiveCommitHash(selected.Hash)
		return m.setFocus(focusDetail).sync(), nil
	}
	if m.focus == focusDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) setFocus(f focusArea) Model {
	m.focus = f
	if f == focusGreet {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	return m
}

// sync pulls a fresh snapshot from the controller and updates the widgets
// that depend on it.
func (m Model) sync() Model {
	m.view = m.ctrl.View()

	if m.view.Commits.IsSuccess() || (m.view.Commits.IsPending() && m.view.Commits.Data != nil) {
		m.list = m.list.SetCommits(m.view.Commits.Data)
	} else if m.view.Commits.IsError() {
		m.list = m.list.SetCommits(nil)
	}

	d := m.view.Detail
	if d.Key != m.detailKey || d.Epoch != m.detailEpoch {
		if d.IsSuccess() {
			m.detail.SetContent(renderDetail(d.Data, m.detail.Width))
		} else {
			m.detail.SetContent("")
		}
		if d.Key != m.detailKey {
			m.detail.GotoTop()
		}
		m.detailKey = d.Key
		m.detailEpoch = d.Epoch
	}
	return m
}
