package viewport

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"viewercore/internal/models"
)

// Axis selects the plane a slice is extracted along.
type Axis string

const (
	// AxisX extracts a sagittal (YZ) plane
	AxisX Axis = "x"
	// AxisY extracts a coronal (XZ) plane
	AxisY Axis = "y"
	// AxisZ extracts an axial (XY) plane, i.e. one image of the stack
	AxisZ Axis = "z"
)

// window maps voxel intensities through a VOI range onto 16-bit gray.
type window struct {
	voi    models.VOIRange
	invert bool
}

func (w window) gray(value float64) color.Gray16 {
	n := 0.0
	if width := w.voi.Width(); width > 0 {
		n = (value - w.voi.Lower) / width
	} else if value >= w.voi.Upper {
		n = 1
	}
	n = math.Max(0, math.Min(1, n))
	if w.invert {
		n = 1 - n
	}
	return color.Gray16{Y: uint16(n * 65535)}
}

// extractSlice extracts a 2D slice from the volume along the given axis and
// windows it for display.
func extractSlice(vol *models.Volume, axis Axis, position int, w window) (*image.Gray16, error) {
	if vol == nil {
		return nil, fmt.Errorf("no volume loaded")
	}
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case AxisX:
		if position >= vol.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, vol.Width)
		}

		img = image.NewGray16(image.Rect(0, 0, vol.Depth, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for z := 0; z < vol.Depth; z++ {
				idx := vol.Index(position, y, z)
				if idx < len(vol.Data) {
					img.SetGray16(z, y, w.gray(vol.Data[idx]))
				}
			}
		}

	case AxisY:
		if position >= vol.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, vol.Height)
		}

		img = image.NewGray16(image.Rect(0, 0, vol.Width, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for x := 0; x < vol.Width; x++ {
				idx := vol.Index(x, position, z)
				if idx < len(vol.Data) {
					img.SetGray16(x, z, w.gray(vol.Data[idx]))
				}
			}
		}

	case AxisZ:
		if position >= vol.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, vol.Depth)
		}

		img = image.NewGray16(image.Rect(0, 0, vol.Width, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				idx := vol.Index(x, y, position)
				if idx < len(vol.Data) {
					img.SetGray16(x, y, w.gray(vol.Data[idx]))
				}
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// flip mirrors an image in place.
func flip(img *image.Gray16, horizontal, vertical bool) {
	if !horizontal && !vertical {
		return
	}
	b := img.Bounds()
	out := image.NewGray16(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sx, sy := x, y
			if horizontal {
				sx = b.Max.X - 1 - (x - b.Min.X)
			}
			if vertical {
				sy = b.Max.Y - 1 - (y - b.Min.Y)
			}
			out.SetGray16(x, y, img.Gray16At(sx, sy))
		}
	}
	copy(img.Pix, out.Pix)
}

// DefaultVOI picks a display window spanning the given intensity percentiles
// of the volume. It returns false for an empty volume.
func DefaultVOI(vol *models.Volume, lowerPercentile, upperPercentile float64) (models.VOIRange, bool) {
	if vol == nil || len(vol.Data) == 0 {
		return models.VOIRange{}, false
	}

	sorted := make([]float64, len(vol.Data))
	copy(sorted, vol.Data)
	sort.Float64s(sorted)

	lower := stat.Quantile(lowerPercentile, stat.Empirical, sorted, nil)
	upper := stat.Quantile(upperPercentile, stat.Empirical, sorted, nil)
	if upper <= lower {
		upper = sorted[len(sorted)-1]
		lower = sorted[0]
	}
	return models.VOIRange{Lower: lower, Upper: upper}, true
}
