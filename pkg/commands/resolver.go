package commands

import "viewercore/pkg/services"

// activeSurface returns the enabled surface at the active grid position.
func (m *Module) activeSurface() (*services.Surface, bool) {
	if m.svc.Viewports == nil {
		return nil, false
	}
	return m.svc.Viewports.EnabledSurface(m.svc.Viewports.ActiveIndex())
}

// activeStack returns the active viewport when it is a stack viewport.
func (m *Module) activeStack() (services.StackViewport, bool) {
	surface, ok := m.activeSurface()
	if !ok {
		return nil, false
	}
	return services.AsStack(surface.Viewport)
}

// resolveToolGroup returns the tool group with explicitID, or the group bound
// to the active viewport when explicitID is empty. It never fails; a miss
// reports false.
func (m *Module) resolveToolGroup(explicitID string) (services.ToolGroup, bool) {
	if m.svc.ToolGroups == nil {
		return nil, false
	}
	if explicitID != "" {
		return m.svc.ToolGroups.ToolGroup(explicitID)
	}

	surface, ok := m.activeSurface()
	if !ok {
		return nil, false
	}
	tg, ok := m.svc.ToolGroups.ToolGroupForViewport(surface.ViewportID, surface.RenderingEngineID)
	if !ok {
		m.log.Info("no tool group found for viewport",
			"viewportId", surface.ViewportID, "renderingEngineId", surface.RenderingEngineID)
		return nil, false
	}
	return tg, true
}
