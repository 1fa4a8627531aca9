package render

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"github.com/aretw0/treespotter/pkg/core"
)

// Grid is a Surface that plots markers on a character grid for terminals.
type Grid struct {
	mu      sync.RWMutex
	next    int
	markers map[MarkerID]Marker
	order   []MarkerID
	camera  *core.GeoPoint
}

// NewGrid returns an empty grid surface.
func NewGrid() *Grid {
	return &Grid{markers: make(map[MarkerID]Marker)}
}

func (g *Grid) AddMarker(m Marker) MarkerID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	id := MarkerID("g" + strconv.Itoa(g.next))
	g.markers[id] = m
	g.order = append(g.order, id)
	return id
}

func (g *Grid) RemoveMarker(id MarkerID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.markers[id]; !ok {
		return
	}
	delete(g.markers, id)
	for i, o := range g.order {
		if o == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func (g *Grid) MoveCamera(center core.GeoPoint, _ float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.camera = &center
}

// Markers returns the drawn markers in insertion order with their IDs.
func (g *Grid) Markers() ([]MarkerID, []Marker) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := append([]MarkerID(nil), g.order...)
	out := make([]Marker, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.markers[id])
	}
	return ids, out
}

var (
	gridTreeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	gridFavStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true)
	gridSelectStyle = lipgloss.NewStyle().Reverse(true)
	gridCameraStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	gridFrameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
)

const (
	glyphTree     = "♣"
	glyphFavorite = "♥"
	glyphCamera   = "+"
)

// Render draws the markers (and the camera) scaled into width x height
// cells. selected highlights one marker.
func (g *Grid) Render(width, height int, selected MarkerID) string {
	if width < 2 {
		width = 2
	}
	if height < 2 {
		height = 2
	}

	g.mu.RLock()
	ids := append([]MarkerID(nil), g.order...)
	markers := make(map[MarkerID]Marker, len(g.markers))
	for id, m := range g.markers {
		markers[id] = m
	}
	camera := g.camera
	g.mu.RUnlock()

	cells := make([][]string, height)
	for y := range cells {
		cells[y] = make([]string, width)
		for x := range cells[y] {
			cells[y][x] = " "
		}
	}

	var pts orb.MultiPoint
	for _, id := range ids {
		pts = append(pts, markers[id].Position.Point())
	}
	if camera != nil {
		pts = append(pts, camera.Point())
	}
	if len(pts) > 0 {
		bound := pts.Bound()
		// A single point has an empty bound.
		bound = bound.Pad(0.0005)

		place := func(p orb.Point) (int, int) {
			x := int((p.Lon() - bound.Min.Lon()) / (bound.Max.Lon() - bound.Min.Lon()) * float64(width-1))
			// North is up.
			y := int((bound.Max.Lat() - p.Lat()) / (bound.Max.Lat() - bound.Min.Lat()) * float64(height-1))
			return x, y
		}

		if camera != nil {
			x, y := place(camera.Point())
			cells[y][x] = gridCameraStyle.Render(glyphCamera)
		}
		for _, id := range ids {
			m := markers[id]
			x, y := place(m.Position.Point())
			glyph := gridTreeStyle.Render(glyphTree)
			if m.Icon == IconFavorite {
				glyph = gridFavStyle.Render(glyphFavorite)
			}
			if id == selected {
				glyph = gridSelectStyle.Render(glyph)
			}
			cells[y][x] = glyph
		}
	}

	lines := make([]string, height)
	for y, row := range cells {
		lines[y] = strings.Join(row, "")
	}
	return gridFrameStyle.Render(strings.Join(lines, "\n"))
}

var _ Surface = (*Grid)(nil)
