// Package commands implements the command core of the viewer: a registry of
// named, parameterized operations and the handlers behind them. Handlers
// resolve the active viewport or the tool group bound to it and mutate
// viewport, tool and segmentation state through the collaborators in
// Services.
package commands

import (
	"github.com/go-logr/logr"

	"viewercore/pkg/config"
	"viewercore/pkg/services"
	"viewercore/pkg/session"
)

// Services are the collaborators handlers act through. Dialogs and Modals
// may be nil; the commands that need them become no-ops.
type Services struct {
	Viewports     services.ViewportRegistry
	ToolGroups    services.ToolGroupStore
	Segmentations services.SegmentationStore
	Metadata      services.MetadataProvider
	Dialogs       services.DialogService
	Modals        services.ModalService
	Session       *session.State
	Config        *config.Config
	Log           logr.Logger
}

// Module holds the handlers of every command.
type Module struct {
	svc Services
	cfg *config.Config
	log logr.Logger
}

// NewModule creates the handlers over svc. A nil Config means defaults.
func NewModule(svc Services) *Module {
	cfg := svc.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if svc.Session == nil {
		svc.Session = session.NewState(svc.Log)
	}
	return &Module{
		svc: svc,
		cfg: cfg,
		log: svc.Log,
	}
}

// Definitions returns the command table with default options.
func (m *Module) Definitions() []Definition {
	return []Definition{
		{Name: "setWindowLevel", Fn: m.setWindowLevel},
		{Name: "setToolActive", Fn: m.setToolActive},
		{Name: "toggleCrosshairs", Fn: m.toggleCrosshairs},
		{Name: "rotateViewportCW", Fn: m.rotateViewport, Options: Options{"rotation": 90}},
		{Name: "rotateViewportCCW", Fn: m.rotateViewport, Options: Options{"rotation": -90}},
		{Name: "flipViewportHorizontal", Fn: m.flipViewportHorizontal},
		{Name: "flipViewportVertical", Fn: m.flipViewportVertical},
		{Name: "invertViewport", Fn: m.invertViewport},
		{Name: "resetViewport", Fn: m.resetViewport},
		{Name: "scaleUpViewport", Fn: m.scaleViewport, Options: Options{"direction": 1}},
		{Name: "scaleDownViewport", Fn: m.scaleViewport, Options: Options{"direction": -1}},
		{Name: "fitViewportToWindow", Fn: m.scaleViewport, Options: Options{"direction": 0}},
		{Name: "nextImage", Fn: m.scroll, Options: Options{"direction": 1}},
		{Name: "previousImage", Fn: m.scroll, Options: Options{"direction": -1}},
		{Name: "showDownloadViewportModal", Fn: m.showDownloadViewportModal},
		{Name: "toggleCine", Fn: m.toggleCine},
		{Name: "arrowTextCallback", Fn: m.arrowTextCallback},
		{Name: "setViewportActive", Fn: m.setViewportActive},
		{Name: "createSegmentationForDisplaySet", Fn: m.createSegmentationForDisplaySet},
		{Name: "addSegmentationRepresentationToToolGroup", Fn: m.addSegmentationRepresentationToToolGroup},
		{Name: "getSegmentationReport", Fn: m.getSegmentationReport},
		{Name: "getLabelmapVolumes", Fn: m.getLabelmapVolumes},
		{Name: "thresholdSegmentation", Fn: m.thresholdSegmentation, Options: Options{"label": 1}},
		{Name: "calculateTMTV", Fn: m.calculateTMTV},
	}
}

// Session returns the session state handlers read and write.
func (m *Module) Session() *session.State {
	return m.svc.Session
}

// Register creates a module over svc and registers all of its definitions.
func Register(r *Registry, svc Services) (*Module, error) {
	m := NewModule(svc)
	for _, def := range m.Definitions() {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return m, nil
}
