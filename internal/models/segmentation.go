package models

// RepresentationType is how a segmentation is rendered and interacted with
// inside a tool group.
type RepresentationType string

const (
	RepresentationLabelmap RepresentationType = "labelmap"
	RepresentationContour  RepresentationType = "contour"
)

// SegmentationState tracks a segmentation through its lifecycle.
type SegmentationState int

const (
	// SegmentationUnregistered means the store has never seen the id
	SegmentationUnregistered SegmentationState = iota
	// SegmentationRegistered means the volume was derived and the segmentation added
	SegmentationRegistered
	// SegmentationRepresented means it is bound to at least one tool group
	SegmentationRepresented
	// SegmentationRemoved means the store dropped it
	SegmentationRemoved
)

func (s SegmentationState) String() string {
	switch s {
	case SegmentationRegistered:
		return "Registered"
	case SegmentationRepresented:
		return "Represented"
	case SegmentationRemoved:
		return "Removed"
	default:
		return "Unregistered"
	}
}

// Segmentation is a derived labelmap tied to a source volume.
type Segmentation struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`

	// Type is the representation type it was registered with
	Type RepresentationType `yaml:"type"`

	// VolumeID is the labelmap volume holding the voxel labels
	VolumeID string `yaml:"volumeId"`

	// Data is arbitrary nested metadata (statistics, colours, tool state)
	Data map[string]any `yaml:"data,omitempty"`
}

// Representation binds a segmentation to a tool group.
type Representation struct {
	SegmentationID string             `yaml:"segmentationId"`
	ToolGroupID    string             `yaml:"toolGroupId"`
	Type           RepresentationType `yaml:"type"`
}
