package commands

import (
	"context"
	"errors"
	"testing"

	"viewercore/pkg/session"
)

func TestToggleCine(t *testing.T) {
	h := newHarness(t)
	h.session.SetCine(1, session.CineState{IsPlaying: true, FramesPerSecond: 24})

	if v := h.dispatch(t, "toggleCine", nil); v != true {
		t.Errorf("Expected cine enabled, got %v", v)
	}
	if !h.session.CineEnabled() || !h.session.ButtonActive(session.CineButtonID) {
		t.Errorf("Expected cine flag and toolbar button on")
	}
	for i := 0; i < h.grid.GridSize(); i++ {
		if h.session.Cine(i).IsPlaying {
			t.Errorf("Expected playback stopped at %d", i)
		}
	}
	if got := h.session.Cine(1).FramesPerSecond; got != 24 {
		t.Errorf("Expected frame rate kept, got %d", got)
	}

	if v := h.dispatch(t, "toggleCine", nil); v != false {
		t.Errorf("Expected cine disabled, got %v", v)
	}
	if h.session.ButtonActive(session.CineButtonID) {
		t.Errorf("Expected toolbar button off")
	}
}

func TestSetViewportActive(t *testing.T) {
	h := newHarness(t)

	h.dispatch(t, "setViewportActive", Options{"viewportId": "pt"})
	if h.grid.ActiveIndex() != 1 {
		t.Errorf("Expected active index 1, got %d", h.grid.ActiveIndex())
	}

	h.dispatch(t, "setViewportActive", Options{"viewportId": "nope"})
	if h.grid.ActiveIndex() != 1 {
		t.Errorf("Expected active index unchanged for an unknown viewport, got %d", h.grid.ActiveIndex())
	}
}

func TestArrowTextCallback(t *testing.T) {
	h := newHarness(t)
	h.dialogs.text = "lesion"

	var got string
	v := h.dispatch(t, "arrowTextCallback", Options{"callback": func(text string) { got = text }})
	if v != "lesion" || got != "lesion" {
		t.Errorf("Expected lesion returned and passed to callback, got %v and %q", v, got)
	}

	h.dialogs.text = ""
	v = h.dispatch(t, "arrowTextCallback", Options{"data": map[string]any{"text": "existing"}})
	if v != "existing" {
		t.Errorf("Expected initial text to be offered, got %v", v)
	}

	h.dialogs.ok = false
	if v := h.dispatch(t, "arrowTextCallback", nil); v != nil {
		t.Errorf("Expected nil on cancel, got %v", v)
	}

	h.dialogs.err = errors.New("dialog closed")
	if _, err := h.reg.Dispatch(context.Background(), "arrowTextCallback", nil); err == nil {
		t.Errorf("Expected dialog error to propagate")
	}
}

func TestShowDownloadViewportModal(t *testing.T) {
	h := newHarness(t)
	h.grid.SetActiveIndex(1)

	h.dispatch(t, "showDownloadViewportModal", nil)

	if len(h.modals.shown) != 1 {
		t.Fatalf("Expected one modal, got %d", len(h.modals.shown))
	}
	modal := h.modals.shown[0]
	if modal.Title != DownloadModalTitle || modal.Props["activeViewportIndex"] != 1 {
		t.Errorf("Expected download modal for index 1, got %+v", modal)
	}
}

func TestOptionalServicesMissing(t *testing.T) {
	h := newHarness(t)
	m := NewModule(Services{Viewports: h.grid, ToolGroups: h.tools, Segmentations: h.segs})

	for _, fn := range []HandlerFunc{m.showDownloadViewportModal, m.arrowTextCallback} {
		if v, err := fn(context.Background(), Options{}); v != nil || err != nil {
			t.Errorf("Expected (nil, nil) without the service, got (%v, %v)", v, err)
		}
	}
	if m.Session() == nil {
		t.Errorf("Expected a session to be created")
	}
}
