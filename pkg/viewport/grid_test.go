package viewport

import (
	"errors"
	"testing"
)

func TestGridEnableAndLookup(t *testing.T) {
	g := NewGrid("engine", 3)
	a := NewVideo("a", 1)
	b := NewVideo("b", 1)

	if _, err := g.Enable(0, a); err != nil {
		t.Fatalf("Enable error: %v", err)
	}
	if _, err := g.Enable(2, b); err != nil {
		t.Fatalf("Enable error: %v", err)
	}

	if g.GridSize() != 3 {
		t.Errorf("Expected grid size 3, got %d", g.GridSize())
	}
	if _, ok := g.EnabledSurface(1); ok {
		t.Error("Expected no surface at index 1")
	}
	s, ok := g.EnabledSurface(2)
	if !ok || s.ViewportID != "b" || s.RenderingEngineID != "engine" {
		t.Errorf("Expected surface b on engine, got %+v", s)
	}

	info, ok := g.ViewportInfo("b")
	if !ok || info.Index != 2 {
		t.Errorf("Expected viewport b at index 2, got %+v", info)
	}
	if _, ok := g.ViewportInfo("missing"); ok {
		t.Error("Expected no info for unknown viewport")
	}
	if len(g.Surfaces()) != 2 {
		t.Errorf("Expected 2 surfaces, got %d", len(g.Surfaces()))
	}
}

func TestGridEnableErrors(t *testing.T) {
	g := NewGrid("engine", 2)
	a := NewVideo("a", 1)

	if _, err := g.Enable(5, a); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := g.Enable(0, a); err != nil {
		t.Fatalf("Enable error: %v", err)
	}
	if _, err := g.Enable(1, a); !errors.Is(err, ErrDuplicateViewport) {
		t.Errorf("Expected ErrDuplicateViewport, got %v", err)
	}
}

func TestGridActiveIndex(t *testing.T) {
	g := NewGrid("engine", 2)

	g.SetActiveIndex(1)
	if g.ActiveIndex() != 1 {
		t.Errorf("Expected active index 1, got %d", g.ActiveIndex())
	}

	g.SetActiveIndex(7)
	if g.ActiveIndex() != 1 {
		t.Errorf("Expected out-of-range index to be ignored, got %d", g.ActiveIndex())
	}

	g.SetLayout(1)
	if g.ActiveIndex() != 0 {
		t.Errorf("Expected active index clamped to 0 after shrink, got %d", g.ActiveIndex())
	}

	g.Enable(0, NewVideo("a", 1))
	g.Disable(0)
	if _, ok := g.EnabledSurface(0); ok {
		t.Error("Expected surface disabled")
	}
}
