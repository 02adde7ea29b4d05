package toolgroup

import (
	"fmt"

	"viewercore/internal/models"
	"viewercore/pkg/config"
)

// CreateFromPreset creates a tool group and applies the preset's tools in
// order: every tool is added, then moved to its configured mode.
func (m *Manager) CreateFromPreset(preset config.ToolGroupPreset) (*ToolGroup, error) {
	g, err := m.CreateToolGroup(preset.ID)
	if err != nil {
		return nil, err
	}
	if err := g.ApplyPreset(preset.Tools); err != nil {
		return g, fmt.Errorf("tool group %s: %w", preset.ID, err)
	}
	return g, nil
}

// ApplyPreset adds the given tools and sets their modes. Active tools take
// the configured mouse buttons as bindings.
func (g *ToolGroup) ApplyPreset(tools []config.ToolPreset) error {
	for _, tool := range tools {
		mode, ok := models.ParseToolMode(tool.Mode)
		if !ok {
			return fmt.Errorf("tool %s: unknown mode %q", tool.Name, tool.Mode)
		}
		g.AddTool(tool.Name)

		var err error
		switch mode {
		case models.ToolActive:
			var bindings []models.Binding
			for _, b := range tool.MouseButtons {
				bindings = append(bindings, models.Binding{MouseButton: models.MouseButton(b)})
			}
			err = g.SetToolActive(tool.Name, bindings...)
		case models.ToolPassive:
			err = g.SetToolPassive(tool.Name)
		case models.ToolEnabled:
			err = g.SetToolEnabled(tool.Name)
		case models.ToolDisabled:
			err = g.SetToolDisabled(tool.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
