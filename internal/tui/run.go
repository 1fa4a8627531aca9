package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/treespotter/internal/notify"
	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/render"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

// Source is what the UI needs from the view model.
type Source interface {
	render.Mutator
	Trees() viewstate.Source[[]*core.Tree]
}

// Config wires the UI to the device and an optional extra notifier (e.g.
// desktop notifications). Messages always appear in the status line.
type Config struct {
	Location    render.LocationProvider
	Permissions render.Permissions
	Notifier    notify.Notifier
	Logger      *slog.Logger
}

// Session owns the renderers behind one UI run.
type Session struct {
	Model   Model
	list    *render.List
	mapView *render.Map
}

// NewSession attaches a list and a grid map to the model's tree list.
func NewSession(ctx context.Context, src Source, cfg Config) *Session {
	wake := make(chan struct{}, 1)
	signal := func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	}

	recorder := &notify.Recorder{}
	notifier := notify.Multi{recorder, cfg.Notifier}
	toast := render.NotifierFunc(func(msg string) {
		notifier.Notify(msg)
		signal()
	})

	grid := render.NewGrid()
	list := render.NewList(src.Trees(), src, render.OnListRedraw(signal))

	opts := []render.MapOption{render.WithNotifier(toast), render.OnMapRedraw(signal)}
	if cfg.Location != nil {
		opts = append(opts, render.WithLocationProvider(cfg.Location))
	}
	if cfg.Permissions != nil {
		opts = append(opts, render.WithPermissions(cfg.Permissions))
	}
	if cfg.Logger != nil {
		opts = append(opts, render.WithMapLogger(cfg.Logger))
	}
	mapView := render.NewMap(src.Trees(), src, grid, opts...)

	return &Session{
		Model: Model{
			ctx:     ctx,
			list:    list,
			mapView: mapView,
			grid:    grid,
			wake:    wake,
			drain:   recorder.Drain,
		},
		list:    list,
		mapView: mapView,
	}
}

// Close detaches the renderers.
func (s *Session) Close() {
	s.list.Detach()
	s.mapView.Detach()
}

// Run starts the program on the alternate screen and blocks until the user
// quits or ctx ends.
func Run(ctx context.Context, src Source, cfg Config) error {
	session := NewSession(ctx, src, cfg)
	defer session.Close()

	program := tea.NewProgram(session.Model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
