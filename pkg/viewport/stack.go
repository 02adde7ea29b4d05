// Package viewport provides in-memory viewports and the layout grid that
// exposes them as enabled surfaces.
//
// A Stack viewport displays one Z slice of a volume at a time and carries the
// camera and display properties the command core mutates. Volume and Video
// viewports exist so the closed set of viewport kinds is represented; the
// command core leaves them alone.
package viewport

import (
	"image"
	"math"
	"sync"

	"github.com/go-logr/logr"

	"viewercore/internal/models"
	"viewercore/pkg/metrics"
)

// StackOptions configures a stack viewport.
type StackOptions struct {
	// VOILowerPercentile and VOIUpperPercentile select the default window
	VOILowerPercentile float64
	VOIUpperPercentile float64

	Log logr.Logger
}

// Stack is a 2D viewport over the images of a volume.
type Stack struct {
	mu sync.Mutex

	id     string
	volume *models.Volume

	imageIndex int

	camera        models.Camera
	defaultCamera models.Camera

	props        models.Properties
	defaultProps models.Properties

	frame   *image.Gray16
	renders int

	log logr.Logger
}

// NewStack creates a stack viewport showing the first image of volume.
func NewStack(id string, volume *models.Volume, opts StackOptions) *Stack {
	s := &Stack{
		id:     id,
		volume: volume,
		log:    opts.Log,
	}

	s.defaultCamera = models.Camera{ParallelScale: fitScale(volume)}
	if voi, ok := DefaultVOI(volume, opts.VOILowerPercentile, opts.VOIUpperPercentile); ok {
		s.defaultProps.VOIRange = &voi
	}

	s.camera = s.defaultCamera
	s.props = copyProps(s.defaultProps)
	return s
}

// fitScale is the parallel scale that fits the whole image in view.
func fitScale(vol *models.Volume) float64 {
	if vol == nil {
		return 1
	}
	w := float64(vol.Width) * nonZero(vol.VoxelSize.X)
	h := float64(vol.Height) * nonZero(vol.VoxelSize.Y)
	scale := math.Max(w, h) / 2
	if scale <= 0 {
		return 1
	}
	return scale
}

func nonZero(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

func copyProps(p models.Properties) models.Properties {
	if p.VOIRange != nil {
		voi := *p.VOIRange
		p.VOIRange = &voi
	}
	return p
}

func (s *Stack) ID() string                { return s.id }
func (s *Stack) Kind() models.ViewportKind { return models.KindStack }

// Volume returns the volume backing the stack.
func (s *Stack) Volume() *models.Volume { return s.volume }

func (s *Stack) Properties() models.Properties {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyProps(s.props)
}

func (s *Stack) SetProperties(props models.Properties) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props = copyProps(props)
}

func (s *Stack) ResetProperties() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.props = copyProps(s.defaultProps)
}

func (s *Stack) Camera() models.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

func (s *Stack) SetCamera(cam models.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera = cam
}

// ResetCamera restores the fit-to-window scale, clears pan and flips.
func (s *Stack) ResetCamera() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera = s.defaultCamera
}

// DefaultCamera returns the camera ResetCamera restores.
func (s *Stack) DefaultCamera() models.Camera {
	return s.defaultCamera
}

func (s *Stack) ImageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageIndex
}

// SetImageIndex moves to index, clamped to the stack.
func (s *Stack) SetImageIndex(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageIndex = clamp(index, 0, s.numImages()-1)
}

func (s *Stack) NumImages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numImages()
}

func (s *Stack) numImages() int {
	if s.volume == nil {
		return 0
	}
	return s.volume.Depth
}

// ImageID returns the id of the displayed image, if the volume lists image ids.
func (s *Stack) ImageID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.volume == nil || s.imageIndex >= len(s.volume.ImageIDs) {
		return "", false
	}
	return s.volume.ImageIDs[s.imageIndex], true
}

// Render extracts the displayed image, applies the VOI window, invert and
// flips, and stores the result as the current frame.
func (s *Stack) Render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := window{invert: s.props.Invert}
	if s.props.VOIRange != nil {
		w.voi = *s.props.VOIRange
	} else {
		w.voi = models.VOIRange{Lower: 0, Upper: 1}
	}

	img, err := extractSlice(s.volume, AxisZ, s.imageIndex, w)
	if err != nil {
		s.log.Error(err, "render failed", "viewportId", s.id, "imageIndex", s.imageIndex)
		return
	}
	flip(img, s.camera.FlipHorizontal, s.camera.FlipVertical)

	s.frame = img
	s.renders++
	metrics.RecordRender(string(models.KindStack))
}

// Frame returns the last rendered image, or nil.
func (s *Stack) Frame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil
	}
	return s.frame
}

// Renders returns how many times the viewport has rendered.
func (s *Stack) Renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
