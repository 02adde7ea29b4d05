package toolgroup

import (
	"errors"
	"testing"

	"github.com/go-logr/logr"

	"viewercore/internal/models"
	"viewercore/pkg/config"
)

func TestCreateFromPreset(t *testing.T) {
	m := NewManager(logr.Discard())
	preset := config.ToolGroupPreset{
		ID: "ct",
		Tools: []config.ToolPreset{
			{Name: "WindowLevel", Mode: "Active", MouseButtons: []int{1}},
			{Name: "Zoom", Mode: "Active", MouseButtons: []int{2}},
			{Name: "Length", Mode: "Passive"},
			{Name: "Crosshairs", Mode: "Disabled"},
			{Name: "ReferenceLines", Mode: "Enabled"},
		},
	}

	g, err := m.CreateFromPreset(preset)
	if err != nil {
		t.Fatalf("Failed to create from preset: %v", err)
	}

	want := map[string]models.ToolMode{
		"WindowLevel":    models.ToolActive,
		"Zoom":           models.ToolActive,
		"Length":         models.ToolPassive,
		"Crosshairs":     models.ToolDisabled,
		"ReferenceLines": models.ToolEnabled,
	}
	for name, mode := range want {
		if got, _ := g.ToolMode(name); got != mode {
			t.Errorf("Expected %s to be %s, got %s", name, mode, got)
		}
	}
	if primary, _ := g.ActivePrimaryTool(); primary != "WindowLevel" {
		t.Errorf("Expected primary tool WindowLevel, got %s", primary)
	}

	if _, err := m.CreateFromPreset(preset); !errors.Is(err, ErrToolGroupExists) {
		t.Errorf("Expected ErrToolGroupExists, got %v", err)
	}
}

func TestApplyPresetUnknownMode(t *testing.T) {
	m := NewManager(logr.Discard())
	_, err := m.CreateFromPreset(config.ToolGroupPreset{
		ID:    "pt",
		Tools: []config.ToolPreset{{Name: "WindowLevel", Mode: "Sleeping"}},
	})
	if err == nil {
		t.Errorf("Expected an error for an unknown tool mode")
	}
}
