package toolgroup

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"viewercore/pkg/services"
)

// EventType classifies tool-group events.
type EventType string

const (
	// ViewportAdded fires after a viewport joins a tool group
	ViewportAdded EventType = "VIEWPORT_ADDED"
	// ViewportRemoved fires after a viewport leaves a tool group
	ViewportRemoved EventType = "VIEWPORT_REMOVED"
	// ToolGroupDestroyed fires after a tool group is destroyed
	ToolGroupDestroyed EventType = "TOOLGROUP_DESTROYED"
)

// Event is delivered to subscribers synchronously, after the store lock is released.
type Event struct {
	Type              EventType
	ToolGroupID       string
	ViewportID        string
	RenderingEngineID string
}

// Listener handles one event.
type Listener func(Event)

type subscriber struct {
	event EventType
	fn    Listener
}

// Manager owns every tool group and the viewport membership index.
type Manager struct {
	mu sync.RWMutex

	groups      map[string]*ToolGroup
	byViewport  map[ViewportRef]string
	subscribers map[string]subscriber
	// subscription ids in subscription order
	subOrder []string

	log logr.Logger
}

// NewManager creates an empty tool-group store.
func NewManager(log logr.Logger) *Manager {
	return &Manager{
		groups:      make(map[string]*ToolGroup),
		byViewport:  make(map[ViewportRef]string),
		subscribers: make(map[string]subscriber),
		log:         log,
	}
}

// CreateToolGroup creates an empty group with the given id.
func (m *Manager) CreateToolGroup(id string) (*ToolGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[id]; ok {
		return nil, fmt.Errorf("create tool group %s: %w", id, ErrToolGroupExists)
	}
	g := newToolGroup(id, m.log)
	m.groups[id] = g
	m.log.Info("tool group created", "toolGroupId", id)
	return g, nil
}

// Group returns the concrete tool group with the given id.
func (m *Manager) Group(id string) (*ToolGroup, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	return g, ok
}

// ToolGroup implements services.ToolGroupStore.
func (m *Manager) ToolGroup(id string) (services.ToolGroup, bool) {
	g, ok := m.Group(id)
	if !ok {
		return nil, false
	}
	return g, true
}

// ToolGroupForViewport implements services.ToolGroupStore.
func (m *Manager) ToolGroupForViewport(viewportID, renderingEngineID string) (services.ToolGroup, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byViewport[ViewportRef{ViewportID: viewportID, RenderingEngineID: renderingEngineID}]
	if !ok {
		return nil, false
	}
	return m.groups[id], true
}

// IDs returns the group ids in lexical order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.groups))
	for id := range m.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddViewport binds a viewport to a group and emits ViewportAdded.
// Re-adding a viewport to its own group is a no-op.
func (m *Manager) AddViewport(toolGroupID, viewportID, renderingEngineID string) error {
	ref := ViewportRef{ViewportID: viewportID, RenderingEngineID: renderingEngineID}

	m.mu.Lock()
	g, ok := m.groups[toolGroupID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("add viewport %s: %w: %s", viewportID, ErrToolGroupNotFound, toolGroupID)
	}
	if owner, bound := m.byViewport[ref]; bound {
		m.mu.Unlock()
		if owner == toolGroupID {
			return nil
		}
		return fmt.Errorf("add viewport %s to %s: %w (%s)", viewportID, toolGroupID, ErrViewportBound, owner)
	}
	g.addViewport(ref)
	m.byViewport[ref] = toolGroupID
	m.mu.Unlock()

	m.log.V(1).Info("viewport added", "toolGroupId", toolGroupID, "viewportId", viewportID)
	m.publish(Event{Type: ViewportAdded, ToolGroupID: toolGroupID, ViewportID: viewportID, RenderingEngineID: renderingEngineID})
	return nil
}

// RemoveViewport unbinds a viewport from whichever group holds it.
func (m *Manager) RemoveViewport(viewportID, renderingEngineID string) bool {
	ref := ViewportRef{ViewportID: viewportID, RenderingEngineID: renderingEngineID}

	m.mu.Lock()
	id, ok := m.byViewport[ref]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.byViewport, ref)
	m.groups[id].removeViewport(ref)
	m.mu.Unlock()

	m.publish(Event{Type: ViewportRemoved, ToolGroupID: id, ViewportID: viewportID, RenderingEngineID: renderingEngineID})
	return true
}

// DestroyToolGroup removes a group and releases its viewports.
func (m *Manager) DestroyToolGroup(id string) error {
	m.mu.Lock()
	g, ok := m.groups[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("destroy tool group: %w: %s", ErrToolGroupNotFound, id)
	}
	for _, ref := range g.Viewports() {
		delete(m.byViewport, ref)
	}
	delete(m.groups, id)
	m.mu.Unlock()

	m.log.Info("tool group destroyed", "toolGroupId", id)
	m.publish(Event{Type: ToolGroupDestroyed, ToolGroupID: id})
	return nil
}

// Destroy removes every tool group.
func (m *Manager) Destroy() {
	for _, id := range m.IDs() {
		// ids come from the live map; a concurrent destroy is the only failure
		_ = m.DestroyToolGroup(id)
	}
}

// Subscribe registers fn for one event type and returns the subscription id.
// Listeners of an event run in the order they subscribed.
func (m *Manager) Subscribe(event EventType, fn Listener) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.subscribers[id] = subscriber{event: event, fn: fn}
	m.subOrder = append(m.subOrder, id)
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[id]; !ok {
		return
	}
	delete(m.subscribers, id)
	for i, sid := range m.subOrder {
		if sid == id {
			m.subOrder = append(m.subOrder[:i], m.subOrder[i+1:]...)
			break
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

func (m *Manager) publish(evt Event) {
	m.mu.RLock()
	var fns []Listener
	for _, id := range m.subOrder {
		if sub := m.subscribers[id]; sub.event == evt.Type {
			fns = append(fns, sub.fn)
		}
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
}
