package commands

import (
	"context"

	"viewercore/internal/models"
)

// setToolActive activates toolName with the primary binding in the resolved
// tool group, demoting the current primary tool to Passive. Only the first
// grid position whose viewport belongs to the group is considered. Returns
// the id of that viewport, or "" when no member viewport is enabled.
func (m *Module) setToolActive(ctx context.Context, opts Options) (any, error) {
	toolName, _ := opts.String("toolName")
	if toolName == "" {
		return nil, &OptionError{Command: "setToolActive", Option: "toolName", Message: "required"}
	}
	toolGroupID, _ := opts.String("toolGroupId")

	tg, ok := m.resolveToolGroup(toolGroupID)
	if !ok {
		m.log.Info("no tool group found", "toolGroupId", toolGroupID)
		return nil, nil
	}
	if _, ok := tg.ToolMode(toolName); !ok {
		m.log.Info("tool not in tool group", "toolName", toolName, "toolGroupId", tg.ID())
		return nil, nil
	}
	if m.svc.Viewports == nil {
		return "", nil
	}

	for index := 0; index < m.svc.Viewports.GridSize(); index++ {
		surface, ok := m.svc.Viewports.EnabledSurface(index)
		if !ok || !tg.HasViewport(surface.ViewportID, surface.RenderingEngineID) {
			continue
		}

		if active, ok := tg.ActivePrimaryTool(); ok {
			if err := tg.SetToolPassive(active); err != nil {
				return nil, err
			}
		}
		if err := tg.SetToolActive(toolName, models.PrimaryBinding); err != nil {
			return nil, err
		}
		return surface.ViewportID, nil
	}
	return "", nil
}

// toggleCrosshairs activates the crosshairs tool when toggledState is set.
// Otherwise, if the toolbar's primary tool was left Passive, it disables
// crosshairs and restores the primary tool.
func (m *Module) toggleCrosshairs(ctx context.Context, opts Options) (any, error) {
	toolName := m.cfg.Tools.CrosshairsTool
	toolGroupID, _ := opts.String("toolGroupId")

	if opts.Bool("toggledState") {
		_, err := m.setToolActive(ctx, Options{"toolName": toolName, "toolGroupId": toolGroupID})
		return nil, err
	}

	tg, ok := m.resolveToolGroup(toolGroupID)
	if !ok {
		return nil, nil
	}

	primary := m.svc.Session.PrimaryToolID()
	if mode, ok := tg.ToolMode(primary); ok && mode == models.ToolPassive {
		if err := tg.SetToolDisabled(toolName); err != nil {
			return nil, err
		}
		if err := tg.SetToolActive(primary, models.PrimaryBinding); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
