package viewport

import (
	"image"
	"sync"

	"github.com/go-logr/logr"

	"viewercore/internal/models"
	"viewercore/pkg/metrics"
)

// Volume is an orthographic viewport showing the centre plane of a volume
// along one axis. Commands that only apply to stacks ignore it.
type Volume struct {
	mu sync.Mutex

	id     string
	volume *models.Volume
	axis   Axis
	voi    models.VOIRange

	frame   *image.Gray16
	renders int

	log logr.Logger
}

// NewVolume creates a volume viewport looking along axis.
func NewVolume(id string, volume *models.Volume, axis Axis, opts StackOptions) *Volume {
	v := &Volume{id: id, volume: volume, axis: axis, log: opts.Log}
	if voi, ok := DefaultVOI(volume, opts.VOILowerPercentile, opts.VOIUpperPercentile); ok {
		v.voi = voi
	} else {
		v.voi = models.VOIRange{Lower: 0, Upper: 1}
	}
	return v
}

func (v *Volume) ID() string                { return v.id }
func (v *Volume) Kind() models.ViewportKind { return models.KindVolume }

// Render extracts the centre plane along the viewport's axis.
func (v *Volume) Render() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.volume == nil {
		return
	}
	position := 0
	switch v.axis {
	case AxisX:
		position = v.volume.Width / 2
	case AxisY:
		position = v.volume.Height / 2
	default:
		position = v.volume.Depth / 2
	}

	img, err := extractSlice(v.volume, v.axis, position, window{voi: v.voi})
	if err != nil {
		v.log.Error(err, "render failed", "viewportId", v.id, "axis", v.axis)
		return
	}
	v.frame = img
	v.renders++
	metrics.RecordRender(string(models.KindVolume))
}

// Frame returns the last rendered plane, or nil.
func (v *Volume) Frame() image.Image {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.frame == nil {
		return nil
	}
	return v.frame
}

func (v *Volume) Renders() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renders
}

// Video is a multi-frame playback viewport.
type Video struct {
	mu sync.Mutex

	id      string
	frames  int
	renders int
}

// NewVideo creates a video viewport with the given frame count.
func NewVideo(id string, frames int) *Video {
	return &Video{id: id, frames: frames}
}

func (v *Video) ID() string                { return v.id }
func (v *Video) Kind() models.ViewportKind { return models.KindVideo }

func (v *Video) Render() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders++
	metrics.RecordRender(string(models.KindVideo))
}

func (v *Video) Renders() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renders
}
