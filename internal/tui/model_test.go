package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/treespotter/internal/device"
	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

type fakeSource struct {
	trees *viewstate.Observable[[]*core.Tree]

	mu      sync.Mutex
	added   []*core.Tree
	deleted []core.Ref
}

func newFakeSource() *fakeSource {
	return &fakeSource{trees: viewstate.NewObservable[[]*core.Tree]()}
}

func (f *fakeSource) Trees() viewstate.Source[[]*core.Tree] { return f.trees }

func (f *fakeSource) AddTree(_ context.Context, t *core.Tree) *viewstate.Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, t)
	return viewstate.Completed(nil)
}

func (f *fakeSource) SetFavorite(_ context.Context, t *core.Tree, favorite bool) *viewstate.Op {
	t.Favorite = favorite
	return viewstate.Completed(nil)
}

func (f *fakeSource) DeleteTree(_ context.Context, t *core.Tree) *viewstate.Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, t.Ref)
	return viewstate.Completed(nil)
}

func sample() []*core.Tree {
	t1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return []*core.Tree{
		{Name: "Pine", DateSpotted: t1.Add(time.Hour), Ref: "pine", Location: &core.GeoPoint{Latitude: 45.51, Longitude: -122.68}},
		{Name: "Oak", Favorite: true, DateSpotted: t1, Ref: "oak", Location: &core.GeoPoint{Latitude: 45.52, Longitude: -122.67}},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func newTestSession(t *testing.T, cfg Config) (*fakeSource, *Session) {
	t.Helper()
	src := newFakeSource()
	s := NewSession(context.Background(), src, cfg)
	t.Cleanup(s.Close)
	src.trees.Set(sample())
	return src, s
}

func TestRedrawIsSignalled(t *testing.T) {
	_, s := newTestSession(t, Config{})

	msg := s.Model.waitRedraw()()
	assert.IsType(t, redrawMsg{}, msg)

	m, cmd := update(t, s.Model, msg)
	assert.NotNil(t, cmd, "keeps listening")
	assert.Contains(t, m.View(), "Pine")
}

func TestTabAndFavorite(t *testing.T) {
	_, s := newTestSession(t, Config{})
	m := s.Model
	assert.Equal(t, viewMap, m.view)

	m, _ = update(t, m, key("tab"))
	assert.Equal(t, viewList, m.view)
	assert.Contains(t, m.View(), "Oak")

	m, cmd := update(t, m, key(" "))
	require.NotNil(t, cmd)
	done := cmd()
	assert.Equal(t, opDoneMsg{what: "Favorite"}, done)

	tree, ok := m.list.Tree(0)
	require.True(t, ok)
	assert.True(t, tree.Favorite)
	assert.True(t, m.list.Rows()[0].Checked)

	m, _ = update(t, m, key("tab"))
	assert.Equal(t, viewMap, m.view)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	src, s := newTestSession(t, Config{})
	m := s.Model

	m, _ = update(t, m, key("j"))
	m, _ = update(t, m, key("d"))
	require.NotNil(t, m.confirm)
	assert.Equal(t, "Delete Oak?", m.confirm.prompt)
	assert.Contains(t, m.View(), "Delete Oak? [y/n]")

	m, _ = update(t, m, key("n"))
	assert.Nil(t, m.confirm)
	assert.Empty(t, src.deleted)

	m, _ = update(t, m, key("d"))
	m, cmd := update(t, m, key("y"))
	require.NotNil(t, cmd)
	cmd()
	assert.Nil(t, m.confirm)
	assert.Equal(t, []core.Ref{"oak"}, src.deleted)
}

func TestAddWithoutPermission(t *testing.T) {
	src, s := newTestSession(t, Config{Permissions: device.NewGate(false), Location: device.NewLocation(nil)})
	m := s.Model

	m, _ = update(t, m, m.requestLocation()())
	assert.Equal(t, "Location permission denied", m.status)

	m, cmd := update(t, m, key("a"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Location permission is required to add trees", m.status)
	assert.Empty(t, src.added)
}

func TestAddAtLocation(t *testing.T) {
	here := core.GeoPoint{Latitude: 45.5, Longitude: -122.6}
	src, s := newTestSession(t, Config{Permissions: device.NewGate(true), Location: device.NewLocation(&here)})
	m := s.Model

	m, _ = update(t, m, m.requestLocation()())
	m, cmd := update(t, m, key("a"))
	require.NotNil(t, cmd)
	cmd()

	src.mu.Lock()
	defer src.mu.Unlock()
	require.Len(t, src.added, 1)
	assert.Equal(t, here, *src.added[0].Location)
	assert.NotEmpty(t, src.added[0].Name)
}

func TestQuit(t *testing.T) {
	_, s := newTestSession(t, Config{})
	m, cmd := update(t, s.Model, key("q"))
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}
