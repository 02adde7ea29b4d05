// Package toolgroup implements the tool-group store: named sets of tools with
// per-tool activation modes and mouse bindings, bound to viewports.
//
// Invariants kept by every mutator:
//   - at most one tool per group holds the primary mouse button
//   - a viewport belongs to at most one tool group
package toolgroup

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"

	"viewercore/internal/models"
)

var (
	// ErrToolGroupExists is returned when creating a group whose id is taken
	ErrToolGroupExists = errors.New("tool group already exists")
	// ErrToolGroupNotFound is returned for unknown group ids
	ErrToolGroupNotFound = errors.New("tool group not found")
	// ErrToolNotAdded is returned when changing the mode of a tool the group does not have
	ErrToolNotAdded = errors.New("tool not added to tool group")
	// ErrViewportBound is returned when a viewport already belongs to another group
	ErrViewportBound = errors.New("viewport already bound to a tool group")
)

// ViewportRef identifies a viewport on a rendering engine.
type ViewportRef struct {
	ViewportID        string
	RenderingEngineID string
}

// ToolState is the mode and bindings of one tool.
type ToolState struct {
	Mode     models.ToolMode
	Bindings []models.Binding
}

func (s ToolState) hasButton(b models.MouseButton) bool {
	for _, binding := range s.Bindings {
		if binding.MouseButton == b {
			return true
		}
	}
	return false
}

// ToolGroup is a named set of tools bound to viewports.
type ToolGroup struct {
	mu sync.RWMutex

	id        string
	tools     map[string]*ToolState
	order     []string
	viewports []ViewportRef

	log logr.Logger
}

func newToolGroup(id string, log logr.Logger) *ToolGroup {
	return &ToolGroup{
		id:    id,
		tools: make(map[string]*ToolState),
		log:   log.WithValues("toolGroupId", id),
	}
}

func (g *ToolGroup) ID() string { return g.id }

// AddTool adds a tool in Passive mode. Adding an existing tool is a no-op.
func (g *ToolGroup) AddTool(toolName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.tools[toolName]; ok {
		return
	}
	g.tools[toolName] = &ToolState{Mode: models.ToolPassive}
	g.order = append(g.order, toolName)
}

// HasTool reports whether toolName was added to the group.
func (g *ToolGroup) HasTool(toolName string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.tools[toolName]
	return ok
}

// SetToolActive activates toolName with the given bindings. Any other tool
// holding one of those mouse buttons loses it; a tool left without bindings
// that held the primary button drops to Passive.
func (g *ToolGroup) SetToolActive(toolName string, bindings ...models.Binding) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tool, ok := g.tools[toolName]
	if !ok {
		return fmt.Errorf("activate %s in %s: %w", toolName, g.id, ErrToolNotAdded)
	}

	for name, other := range g.tools {
		if name == toolName || other.Mode != models.ToolActive {
			continue
		}
		heldPrimary := other.hasButton(models.MousePrimary)
		other.Bindings = withoutButtons(other.Bindings, bindings)
		if heldPrimary && !other.hasButton(models.MousePrimary) && len(other.Bindings) == 0 {
			other.Mode = models.ToolPassive
			g.log.V(1).Info("tool lost primary binding", "toolName", name)
		}
	}

	tool.Mode = models.ToolActive
	tool.Bindings = mergeBindings(tool.Bindings, bindings)
	g.log.V(1).Info("tool activated", "toolName", toolName, "bindings", len(tool.Bindings))
	return nil
}

// SetToolPassive makes toolName Passive and drops its primary binding.
func (g *ToolGroup) SetToolPassive(toolName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tool, ok := g.tools[toolName]
	if !ok {
		return fmt.Errorf("passive %s in %s: %w", toolName, g.id, ErrToolNotAdded)
	}
	tool.Mode = models.ToolPassive
	tool.Bindings = withoutButtons(tool.Bindings, []models.Binding{models.PrimaryBinding})
	return nil
}

// SetToolEnabled makes toolName Enabled: rendered but not interactive.
func (g *ToolGroup) SetToolEnabled(toolName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tool, ok := g.tools[toolName]
	if !ok {
		return fmt.Errorf("enable %s in %s: %w", toolName, g.id, ErrToolNotAdded)
	}
	tool.Mode = models.ToolEnabled
	tool.Bindings = nil
	return nil
}

// SetToolDisabled makes toolName Disabled and clears its bindings.
func (g *ToolGroup) SetToolDisabled(toolName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tool, ok := g.tools[toolName]
	if !ok {
		return fmt.Errorf("disable %s in %s: %w", toolName, g.id, ErrToolNotAdded)
	}
	tool.Mode = models.ToolDisabled
	tool.Bindings = nil
	return nil
}

func (g *ToolGroup) ActivePrimaryTool() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, name := range g.order {
		tool := g.tools[name]
		if tool.Mode == models.ToolActive && tool.hasButton(models.MousePrimary) {
			return name, true
		}
	}
	return "", false
}

func (g *ToolGroup) ToolMode(toolName string) (models.ToolMode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	tool, ok := g.tools[toolName]
	if !ok {
		return "", false
	}
	return tool.Mode, true
}

// Tool returns a copy of the state of toolName.
func (g *ToolGroup) Tool(toolName string) (ToolState, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	tool, ok := g.tools[toolName]
	if !ok {
		return ToolState{}, false
	}
	out := ToolState{Mode: tool.Mode}
	out.Bindings = append(out.Bindings, tool.Bindings...)
	return out, true
}

// ToolNames returns the tools in the order they were added.
func (g *ToolGroup) ToolNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

func (g *ToolGroup) HasViewport(viewportID, renderingEngineID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.indexOf(viewportID, renderingEngineID) >= 0
}

// Viewports returns the bound viewports in the order they were added.
func (g *ToolGroup) Viewports() []ViewportRef {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]ViewportRef(nil), g.viewports...)
}

func (g *ToolGroup) indexOf(viewportID, renderingEngineID string) int {
	for i, ref := range g.viewports {
		if ref.ViewportID == viewportID && ref.RenderingEngineID == renderingEngineID {
			return i
		}
	}
	return -1
}

func (g *ToolGroup) addViewport(ref ViewportRef) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.indexOf(ref.ViewportID, ref.RenderingEngineID) >= 0 {
		return false
	}
	g.viewports = append(g.viewports, ref)
	return true
}

func (g *ToolGroup) removeViewport(ref ViewportRef) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.indexOf(ref.ViewportID, ref.RenderingEngineID)
	if i < 0 {
		return false
	}
	g.viewports = append(g.viewports[:i], g.viewports[i+1:]...)
	return true
}

func withoutButtons(have, drop []models.Binding) []models.Binding {
	var out []models.Binding
	for _, b := range have {
		keep := true
		for _, d := range drop {
			if b.MouseButton == d.MouseButton {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, b)
		}
	}
	return out
}

func mergeBindings(have, add []models.Binding) []models.Binding {
	out := append([]models.Binding(nil), have...)
	for _, b := range add {
		dup := false
		for _, h := range out {
			if h.MouseButton == b.MouseButton {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MouseButton < out[j].MouseButton })
	return out
}
