// Package services declares the contracts of the collaborators the command
// core talks to: the viewport registry, the tool-group store, the
// segmentation store and the metadata provider, plus the dialog and modal
// surfaces a few commands open. The core depends only on these interfaces;
// pkg/viewport, pkg/toolgroup, pkg/segmentation and pkg/metadata provide
// in-memory implementations.
package services

import (
	"context"
	"image"

	"viewercore/internal/models"
)

// Viewport is a rendering surface. The set of kinds is closed; only
// models.KindStack viewports implement StackViewport.
type Viewport interface {
	ID() string
	Kind() models.ViewportKind
	Render()
}

// StackViewport is the 2D stack variant. It is the only kind whose camera
// and display properties the command core mutates.
type StackViewport interface {
	Viewport

	Properties() models.Properties
	SetProperties(props models.Properties)
	ResetProperties()

	Camera() models.Camera
	SetCamera(cam models.Camera)
	ResetCamera()

	// ImageIndex is the position of the displayed image in the stack
	ImageIndex() int
	SetImageIndex(index int)
	NumImages() int

	// Frame returns the most recently rendered image, or nil before the first render
	Frame() image.Image
}

// AsStack narrows a viewport to the stack variant. Volume and video
// viewports report false.
func AsStack(vp Viewport) (StackViewport, bool) {
	if vp == nil {
		return nil, false
	}
	switch vp.Kind() {
	case models.KindStack:
		sv, ok := vp.(StackViewport)
		return sv, ok
	case models.KindVolume, models.KindVideo:
		return nil, false
	default:
		return nil, false
	}
}

// Surface is an enabled element: a viewport attached to a rendering engine.
type Surface struct {
	RenderingEngineID string
	ViewportID        string
	Viewport          Viewport
}

// ViewportInfo locates a viewport in the layout grid.
type ViewportInfo struct {
	ViewportID        string
	RenderingEngineID string
	Index             int
}

// ViewportRegistry maps grid positions to enabled surfaces and tracks the
// active position.
type ViewportRegistry interface {
	ActiveIndex() int
	SetActiveIndex(index int)

	// GridSize is the number of positions in the current layout
	GridSize() int

	// EnabledSurface returns the surface at index, if one is enabled there
	EnabledSurface(index int) (*Surface, bool)

	ViewportInfo(viewportID string) (ViewportInfo, bool)
}

// ToolGroup is a named set of tools with activation modes and bindings.
type ToolGroup interface {
	ID() string

	SetToolActive(toolName string, bindings ...models.Binding) error
	SetToolPassive(toolName string) error
	SetToolDisabled(toolName string) error

	// ActivePrimaryTool returns the tool holding the primary mouse button
	ActivePrimaryTool() (string, bool)

	// ToolMode returns the mode of a tool added to the group
	ToolMode(toolName string) (models.ToolMode, bool)

	HasViewport(viewportID, renderingEngineID string) bool
}

// ToolGroupStore looks tool groups up by id or by bound viewport.
type ToolGroupStore interface {
	ToolGroup(id string) (ToolGroup, bool)
	ToolGroupForViewport(viewportID, renderingEngineID string) (ToolGroup, bool)
}

// DerivedVolumeOptions configures volume derivation.
type DerivedVolumeOptions struct {
	// VolumeID is the cache key of the derived volume
	VolumeID string
}

// SegmentationInput describes a segmentation to register.
type SegmentationInput struct {
	SegmentationID string
	Label          string
	Type           models.RepresentationType

	// VolumeID is the labelmap volume carrying the data
	VolumeID string
}

// RepresentationInput describes a representation to bind to a tool group.
type RepresentationInput struct {
	SegmentationID string
	Type           models.RepresentationType
}

// SegmentationStore owns derived volumes and segmentation state.
type SegmentationStore interface {
	CreateDerivedVolume(ctx context.Context, sourceVolumeID string, opts DerivedVolumeOptions) (*models.Volume, error)
	AddSegmentations(ctx context.Context, inputs []SegmentationInput) error
	AddSegmentationRepresentations(ctx context.Context, toolGroupID string, inputs []RepresentationInput) error

	Volume(id string) (*models.Volume, bool)
	Segmentation(id string) (models.Segmentation, bool)
	Segmentations() []models.Segmentation

	// UpdateSegmentationData merges data into the segmentation's top-level metadata
	UpdateSegmentationData(id string, data map[string]any) error

	// FillLabelmap and InspectLabelmap run fn over a labelmap volume and its
	// referenced volume with the store locked for writing or reading.
	FillLabelmap(labelmapID string, fn func(labelmap, reference *models.Volume) (int, error)) (int, error)
	InspectLabelmap(labelmapID string, fn func(labelmap, reference *models.Volume) error) error
}

// MetadataProvider serves per-image instance metadata.
type MetadataProvider interface {
	Instance(imageID string) (models.Instance, bool)
}

// DialogService prompts the user for input.
type DialogService interface {
	// PromptText asks for a line of text; ok is false when the user cancelled
	PromptText(ctx context.Context, title, initial string) (text string, ok bool, err error)
}

// Modal describes a modal dialog to open.
type Modal struct {
	Title   string
	Content string
	Props   map[string]any
}

// ModalService opens modal dialogs.
type ModalService interface {
	Show(modal Modal) error
}
