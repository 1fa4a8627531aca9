// Package tui is the interactive terminal front end: a list view and a map
// view over the same live tree list.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/treespotter/pkg/render"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

type view int

const (
	viewMap view = iota
	viewList
)

func (v view) String() string {
	if v == viewList {
		return "List"
	}
	return "Map"
}

var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111")).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	promptStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

// redrawMsg wakes the event loop after a snapshot or a notification.
type redrawMsg struct{}

// locationMsg carries the outcome of the permission request.
type locationMsg struct {
	state render.LocationState
	err   error
}

// opDoneMsg reports a finished write.
type opDoneMsg struct {
	what string
	err  error
}

// pendingDelete is a marker awaiting y/n.
type pendingDelete struct {
	id     render.MarkerID
	prompt string
}

// Model is the bubbletea model. It only reads renderer state, which the
// renderers update from the subscription goroutine.
type Model struct {
	ctx     context.Context
	list    *render.List
	mapView *render.Map
	grid    *render.Grid
	wake    <-chan struct{}
	drain   func() []string

	view     view
	cursor   int
	width    int
	height   int
	status   string
	location render.LocationState
	confirm  *pendingDelete
	quitting bool
}

// Init requests location permission and starts listening for redraws.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.requestLocation(), m.waitRedraw())
}

func (m Model) waitRedraw() tea.Cmd {
	wake := m.wake
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-wake:
			return redrawMsg{}
		case <-ctx.Done():
			return tea.Quit()
		}
	}
}

func (m Model) requestLocation() tea.Cmd {
	return func() tea.Msg {
		state, err := m.mapView.RequestPermission(m.ctx)
		return locationMsg{state: state, err: err}
	}
}

func waitOp(ctx context.Context, what string, op *viewstate.Op) tea.Cmd {
	if op == nil {
		return nil
	}
	return func() tea.Msg {
		return opDoneMsg{what: what, err: op.Wait(ctx)}
	}
}

// Update handles input and background messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case redrawMsg:
		m.collectStatus()
		m.clampCursor()
		return m, m.waitRedraw()

	case locationMsg:
		m.location = msg.state
		m.collectStatus()
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.what, msg.err)
		}
		m.collectStatus()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		return m.handleConfirm(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		if m.view == viewMap {
			m.view = viewList
		} else {
			m.view = viewMap
		}
		m.cursor = 0
		m.clampCursor()
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < m.items()-1 {
			m.cursor++
		}
		return m, nil

	case " ":
		if m.view != viewList {
			return m, nil
		}
		tree, ok := m.list.Tree(m.cursor)
		if !ok {
			return m, nil
		}
		op, err := m.list.SetChecked(m.ctx, m.cursor, !tree.Favorite)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, waitOp(m.ctx, "Favorite", op)

	case "a":
		op, err := m.mapView.AddTreeHere(m.ctx, "")
		m.collectStatus()
		if err != nil {
			return m, nil
		}
		return m, waitOp(m.ctx, "Add", op)

	case "l":
		return m, m.requestLocation()

	case "d":
		if m.view != viewMap {
			return m, nil
		}
		id, ok := m.selectedMarker()
		if !ok {
			return m, nil
		}
		tree, ok := m.mapView.Resolve(id)
		if !ok {
			return m, nil
		}
		m.confirm = &pendingDelete{id: id, prompt: fmt.Sprintf("Delete %s?", tree.Label())}
		return m, nil
	}

	return m, nil
}

func (m Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.confirm
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirm = nil
		yes := render.ConfirmerFunc(func(context.Context, string) (bool, error) { return true, nil })
		op, err := m.mapView.RequestDelete(m.ctx, pending.id, yes)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, waitOp(m.ctx, "Delete", op)
	case "n", "N", "esc":
		m.confirm = nil
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) collectStatus() {
	if msgs := m.drain(); len(msgs) > 0 {
		m.status = msgs[len(msgs)-1]
	}
}

func (m Model) items() int {
	if m.view == viewList {
		return m.list.Len()
	}
	ids, _ := m.grid.Markers()
	return len(ids)
}

func (m *Model) clampCursor() {
	n := m.items()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selectedMarker() (render.MarkerID, bool) {
	ids, _ := m.grid.Markers()
	if m.cursor < 0 || m.cursor >= len(ids) {
		return "", false
	}
	return ids[m.cursor], true
}

// View renders the active tab.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	for _, v := range []view{viewMap, viewList} {
		label := " " + v.String() + " "
		if v == m.view {
			b.WriteString(tabActiveStyle.Render(label))
		} else {
			b.WriteString(tabInactiveStyle.Render(label))
		}
	}
	b.WriteString(tabInactiveStyle.Render("  location: " + m.location.String()))
	b.WriteString("\n\n")

	width := m.width
	if width <= 0 {
		width = 60
	}

	switch m.view {
	case viewList:
		b.WriteString(m.list.View(width, m.cursor))
	case viewMap:
		height := m.height - 8
		if height < 6 {
			height = 12
		}
		selected, _ := m.selectedMarker()
		b.WriteString(m.grid.Render(width-2, height, selected))
		if _, markers := m.grid.Markers(); m.cursor < len(markers) {
			b.WriteString("\n")
			sel := markers[m.cursor]
			b.WriteString(selectedStyle.Render(sel.Title) + "  " + helpStyle.Render(sel.Snippet))
		}
	}
	b.WriteString("\n\n")

	if m.confirm != nil {
		b.WriteString(promptStyle.Render(m.confirm.prompt + " [y/n]"))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	var help string
	if m.view == viewList {
		help = "[tab] switch  [j/k] move  [space] favorite  [a]dd here  [q]uit"
	} else {
		help = "[tab] switch  [j/k] select  [d]elete  [a]dd here  [l]ocate  [q]uit"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}
