package render

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/viewstate"
)

// MarkerID identifies a marker on a Surface.
type MarkerID string

// Icon selects the marker glyph.
type Icon int

const (
	IconTree Icon = iota
	IconFavorite
)

func (i Icon) String() string {
	if i == IconFavorite {
		return "favorite"
	}
	return "tree"
}

// Marker is one point drawn on a map surface.
type Marker struct {
	Position core.GeoPoint
	Title    string
	Snippet  string
	Icon     Icon
}

// Surface is the drawing target of the map renderer.
type Surface interface {
	AddMarker(m Marker) MarkerID
	RemoveMarker(id MarkerID)
	MoveCamera(center core.GeoPoint, zoom float64)
}

// DefaultZoom is the camera zoom used when centering on the user.
const DefaultZoom = 15

// TreeNames are used for trees added without a name.
var TreeNames = []string{"Fir", "Pine", "Cedar", "Spruce", "Redwood", "Bristlecone", "Giant Sequoia", "Juniper"}

// Map renders located trees as markers and owns the device-location flow.
type Map struct {
	surface  Surface
	model    Mutator
	locator  LocationProvider
	perms    Permissions
	notifier Notifier
	logger   *slog.Logger
	zoom     float64
	names    func() string
	onRedraw func()

	mu          sync.RWMutex
	markers     map[MarkerID]core.Ref
	trees       map[core.Ref]*core.Tree
	state       LocationState
	centered    bool
	lastFix     *core.GeoPoint
	unsubscribe func()
}

// MapOption configures a Map.
type MapOption func(*Map)

// WithLocationProvider sets where device fixes come from.
func WithLocationProvider(p LocationProvider) MapOption {
	return func(m *Map) { m.locator = p }
}

// WithPermissions sets the location permission gate.
func WithPermissions(p Permissions) MapOption {
	return func(m *Map) { m.perms = p }
}

// WithNotifier sets where transient messages go.
func WithNotifier(n Notifier) MapOption {
	return func(m *Map) { m.notifier = n }
}

// WithMapLogger sets the logger. Defaults to slog.Default().
func WithMapLogger(l *slog.Logger) MapOption {
	return func(m *Map) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithZoom overrides DefaultZoom.
func WithZoom(z float64) MapOption {
	return func(m *Map) { m.zoom = z }
}

// WithNameSource overrides the random name picker.
func WithNameSource(fn func() string) MapOption {
	return func(m *Map) { m.names = fn }
}

// OnMapRedraw registers a hook called after every redraw.
func OnMapRedraw(fn func()) MapOption {
	return func(m *Map) { m.onRedraw = fn }
}

// NewMap attaches a map renderer drawing on surface.
func NewMap(src viewstate.Source[[]*core.Tree], model Mutator, surface Surface, opts ...MapOption) *Map {
	m := &Map{
		surface:  surface,
		model:    model,
		notifier: NotifierFunc(func(string) {}),
		logger:   slog.Default(),
		zoom:     DefaultZoom,
		names:    RandomTreeName,
		markers:  make(map[MarkerID]core.Ref),
		trees:    make(map[core.Ref]*core.Tree),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.unsubscribe = src.Observe(m.redraw)
	return m
}

// RandomTreeName picks a name from TreeNames.
func RandomTreeName() string {
	return TreeNames[rand.IntN(len(TreeNames))]
}

// redraw clears every marker and places one per located tree.
func (m *Map) redraw(trees []*core.Tree) {
	m.mu.Lock()
	for id := range m.markers {
		m.surface.RemoveMarker(id)
	}
	clear(m.markers)
	clear(m.trees)

	for _, t := range trees {
		if t.Location == nil {
			continue
		}
		icon := IconTree
		if t.Favorite {
			icon = IconFavorite
		}
		id := m.surface.AddMarker(Marker{
			Position: *t.Location,
			Title:    t.Label(),
			Snippet:  t.Spotted(),
			Icon:     icon,
		})
		m.markers[id] = t.Ref
		m.trees[t.Ref] = t
	}
	m.mu.Unlock()

	if m.onRedraw != nil {
		m.onRedraw()
	}
}

// Markers returns the number of markers currently drawn.
func (m *Map) Markers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers)
}

// Resolve maps a marker back to its tree.
func (m *Map) Resolve(id MarkerID) (*core.Tree, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.markers[id]
	if !ok {
		return nil, false
	}
	t, ok := m.trees[ref]
	return t, ok
}

// RequestDelete asks for confirmation, then deletes the tree behind id.
// It returns a nil Op when the user declines.
func (m *Map) RequestDelete(ctx context.Context, id MarkerID, confirm Confirmer) (*viewstate.Op, error) {
	t, ok := m.Resolve(id)
	if !ok {
		return nil, fmt.Errorf("%w: marker %s", core.ErrNotFound, id)
	}
	yes, err := confirm.Confirm(ctx, fmt.Sprintf("Delete %s?", t.Label()))
	if err != nil {
		return nil, err
	}
	if !yes {
		return nil, nil
	}
	return m.model.DeleteTree(ctx, t), nil
}

// Detach stops observing the source. Drawn markers are left in place.
func (m *Map) Detach() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// AddTreeHere adds a tree at the current device location. An empty name
// picks one from TreeNames. Without permission or a fix the user is told
// and nothing is written. The outcome message follows when the write settles.
func (m *Map) AddTreeHere(ctx context.Context, name string) (*viewstate.Op, error) {
	tree, err := m.newTreeHere(ctx, name)
	if err != nil {
		return nil, err
	}
	op := m.model.AddTree(ctx, tree)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		return m.settleAdd(ctx, tree, op)
	}, lifecycle.WithErrorHandler(func(err error) {
		m.logger.Debug("add tree did not complete", "name", tree.Name, "error", err)
	}))

	return op, nil
}

// AddTreeHereAndWait is AddTreeHere for callers that cannot outlive the
// write, such as a one-shot command. It returns the tree once the write has
// settled and the outcome has been reported.
func (m *Map) AddTreeHereAndWait(ctx context.Context, name string) (*core.Tree, error) {
	tree, err := m.newTreeHere(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := m.settleAdd(ctx, tree, m.model.AddTree(ctx, tree)); err != nil {
		return nil, err
	}
	return tree, nil
}

// newTreeHere checks permission and location and builds the unsaved tree.
func (m *Map) newTreeHere(ctx context.Context, name string) (*core.Tree, error) {
	if m.State() == NoPermission {
		m.notifier.Notify("Location permission is required to add trees")
		return nil, core.ErrPermissionDenied
	}

	loc, err := m.Locate(ctx)
	if err != nil {
		m.notifier.Notify("Unable to find your location")
		return nil, err
	}

	if name == "" {
		name = m.names()
	}
	return core.NewTree(name, &loc), nil
}

// settleAdd waits for the write, then recenters and reports the outcome.
func (m *Map) settleAdd(ctx context.Context, tree *core.Tree, op *viewstate.Op) error {
	if err := op.Wait(ctx); err != nil {
		m.notifier.Notify(fmt.Sprintf("Could not add %s", tree.Name))
		return err
	}
	m.surface.MoveCamera(*tree.Location, m.zoom)
	m.notifier.Notify(fmt.Sprintf("%s added", tree.Name))
	return nil
}
