package render

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

// Row is one rendered list entry.
type Row struct {
	Ref      core.Ref
	Title    string
	Subtitle string
	Checked  bool

	tree *core.Tree
}

// List renders one row per tree with a favorite toggle.
type List struct {
	model    Mutator
	onRedraw func()

	mu          sync.RWMutex
	rows        []Row
	redraws     int
	unsubscribe func()
}

// ListOption configures a List.
type ListOption func(*List)

// OnListRedraw registers a hook called after every redraw.
func OnListRedraw(fn func()) ListOption {
	return func(l *List) { l.onRedraw = fn }
}

// NewList attaches a list renderer to src.
func NewList(src viewstate.Source[[]*core.Tree], model Mutator, opts ...ListOption) *List {
	l := &List{model: model}
	for _, opt := range opts {
		opt(l)
	}
	l.unsubscribe = src.Observe(l.redraw)
	return l
}

func (l *List) redraw(trees []*core.Tree) {
	rows := make([]Row, 0, len(trees))
	for _, t := range trees {
		rows = append(rows, Row{
			Ref:      t.Ref,
			Title:    t.Label(),
			Subtitle: t.Spotted(),
			Checked:  t.Favorite,
			tree:     t,
		})
	}

	l.mu.Lock()
	l.rows = rows
	l.redraws++
	l.mu.Unlock()

	if l.onRedraw != nil {
		l.onRedraw()
	}
}

// Rows returns a copy of the rendered rows.
func (l *List) Rows() []Row {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Row(nil), l.rows...)
}

// Len returns the number of rendered rows.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

// Redraws counts snapshots rendered so far.
func (l *List) Redraws() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.redraws
}

// Tree returns the tree behind row i.
func (l *List) Tree(i int) (*core.Tree, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.rows) {
		return nil, false
	}
	return l.rows[i].tree, true
}

// SetChecked toggles the favorite flag of row i.
func (l *List) SetChecked(ctx context.Context, i int, checked bool) (*viewstate.Op, error) {
	l.mu.Lock()
	if i < 0 || i >= len(l.rows) {
		l.mu.Unlock()
		return nil, fmt.Errorf("row %d out of range", i)
	}
	l.rows[i].Checked = checked
	tree := l.rows[i].tree
	l.mu.Unlock()

	return l.model.SetFavorite(ctx, tree, checked), nil
}

// Detach stops observing the source. The last rendered rows are kept.
func (l *List) Detach() {
	l.mu.Lock()
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	checkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// View renders the list. cursor highlights a row; pass -1 for none.
func (l *List) View(width, cursor int) string {
	rows := l.Rows()
	if len(rows) == 0 {
		return emptyStyle.Render("No trees spotted yet.")
	}

	var b strings.Builder
	for i, r := range rows {
		pointer := "  "
		if i == cursor {
			pointer = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if r.Checked {
			box = checkStyle.Render("[♥]")
		}

		line := fmt.Sprintf("%s%s %s", pointer, box, titleStyle.Render(r.Title))
		if width > 0 {
			line = lipgloss.NewStyle().MaxWidth(width).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString("      " + subtitleStyle.Render(r.Subtitle))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
