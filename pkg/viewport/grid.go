package viewport

import (
	"errors"
	"fmt"
	"sync"

	"viewercore/pkg/services"
)

// ErrIndexOutOfRange is returned for grid positions outside the layout.
var ErrIndexOutOfRange = errors.New("grid index out of range")

// ErrDuplicateViewport is returned when a viewport id is already enabled elsewhere in the grid.
var ErrDuplicateViewport = errors.New("viewport already enabled")

// Grid is the layout of viewport positions. Each position may hold an
// enabled surface; exactly one position is active.
type Grid struct {
	mu sync.RWMutex

	renderingEngineID string
	slots             []*services.Surface
	active            int
}

// NewGrid creates an empty layout with size positions.
func NewGrid(renderingEngineID string, size int) *Grid {
	if size < 0 {
		size = 0
	}
	return &Grid{
		renderingEngineID: renderingEngineID,
		slots:             make([]*services.Surface, size),
	}
}

// RenderingEngineID returns the engine every surface in the grid uses.
func (g *Grid) RenderingEngineID() string {
	return g.renderingEngineID
}

// Enable attaches vp to the rendering engine at position index.
func (g *Grid) Enable(index int, vp services.Viewport) (*services.Surface, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if index < 0 || index >= len(g.slots) {
		return nil, fmt.Errorf("enable viewport %s at %d: %w", vp.ID(), index, ErrIndexOutOfRange)
	}
	for i, s := range g.slots {
		if s != nil && i != index && s.ViewportID == vp.ID() {
			return nil, fmt.Errorf("enable viewport %s at %d: %w", vp.ID(), index, ErrDuplicateViewport)
		}
	}

	surface := &services.Surface{
		RenderingEngineID: g.renderingEngineID,
		ViewportID:        vp.ID(),
		Viewport:          vp,
	}
	g.slots[index] = surface
	return surface, nil
}

// Disable detaches the surface at index, if any.
func (g *Grid) Disable(index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= 0 && index < len(g.slots) {
		g.slots[index] = nil
	}
}

// SetLayout resizes the grid. Positions past the new size are dropped and
// the active index is clamped.
func (g *Grid) SetLayout(size int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if size < 0 {
		size = 0
	}
	slots := make([]*services.Surface, size)
	copy(slots, g.slots)
	g.slots = slots
	g.active = clamp(g.active, 0, size-1)
}

func (g *Grid) ActiveIndex() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// SetActiveIndex makes index active. Out-of-range indexes are ignored.
func (g *Grid) SetActiveIndex(index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index >= 0 && index < len(g.slots) {
		g.active = index
	}
}

func (g *Grid) GridSize() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.slots)
}

func (g *Grid) EnabledSurface(index int) (*services.Surface, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if index < 0 || index >= len(g.slots) || g.slots[index] == nil {
		return nil, false
	}
	return g.slots[index], true
}

func (g *Grid) ViewportInfo(viewportID string) (services.ViewportInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for i, s := range g.slots {
		if s != nil && s.ViewportID == viewportID {
			return services.ViewportInfo{
				ViewportID:        s.ViewportID,
				RenderingEngineID: s.RenderingEngineID,
				Index:             i,
			}, true
		}
	}
	return services.ViewportInfo{}, false
}

// Surfaces returns the enabled surfaces in grid order.
func (g *Grid) Surfaces() []*services.Surface {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*services.Surface
	for _, s := range g.slots {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
