package viewport

import (
	"math"
	"testing"

	"viewercore/internal/models"
)

// newTestVolume builds a volume whose value at each voxel is produced by fill
func newTestVolume(width, height, depth int, fill func(x, y, z int) float64) *models.Volume {
	vol := &models.Volume{
		ID:     "test",
		Data:   make([]float64, width*height*depth),
		Width:  width,
		Height: height,
		Depth:  depth,
	}
	vol.VoxelSize.X, vol.VoxelSize.Y, vol.VoxelSize.Z = 1, 1, 1
	for z := 0; z < depth; z++ {
		vol.ImageIDs = append(vol.ImageIDs, "img:"+string(rune('a'+z)))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				vol.Data[vol.Index(x, y, z)] = fill(x, y, z)
			}
		}
	}
	return vol
}

// TestExtractSlice verifies that slices are correctly extracted from the volume
func TestExtractSlice(t *testing.T) {
	width, height, depth := 10, 10, 5

	// Each slice along Z has a unique value
	vol := newTestVolume(width, height, depth, func(x, y, z int) float64 {
		return float64(z) / float64(depth)
	})
	w := window{voi: models.VOIRange{Lower: 0, Upper: 1}}

	for z := 0; z < depth; z++ {
		img, err := extractSlice(vol, AxisZ, z, w)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", z, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != height {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d",
				width, height, bounds.Dx(), bounds.Dy())
		}

		expectedValue := uint16(float64(z) / float64(depth) * 65535)
		centerValue := img.Gray16At(width/2, height/2).Y
		if math.Abs(float64(centerValue)-float64(expectedValue)) > 1.0 {
			t.Errorf("Expected Z slice value ~%d at center, got %d", expectedValue, centerValue)
		}
	}

	imgX, err := extractSlice(vol, AxisX, width/2, w)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	if b := imgX.Bounds(); b.Dx() != depth || b.Dy() != height {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d", depth, height, b.Dx(), b.Dy())
	}

	imgY, err := extractSlice(vol, AxisY, height/2, w)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}
	if b := imgY.Bounds(); b.Dx() != width || b.Dy() != depth {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d", width, depth, b.Dx(), b.Dy())
	}

	if _, err := extractSlice(vol, Axis("invalid"), 0, w); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
	if _, err := extractSlice(vol, AxisZ, depth+1, w); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
	if _, err := extractSlice(vol, AxisZ, -1, w); err == nil {
		t.Error("Expected error for negative position, got nil")
	}
}

// TestWindowInvert verifies the VOI window and inversion mapping
func TestWindowInvert(t *testing.T) {
	w := window{voi: models.VOIRange{Lower: 100, Upper: 200}}

	if got := w.gray(50).Y; got != 0 {
		t.Errorf("Expected below-window value to map to 0, got %d", got)
	}
	if got := w.gray(250).Y; got != 65535 {
		t.Errorf("Expected above-window value to map to 65535, got %d", got)
	}

	w.invert = true
	if got := w.gray(250).Y; got != 0 {
		t.Errorf("Expected inverted above-window value to map to 0, got %d", got)
	}
}

// TestFlip verifies horizontal and vertical mirroring
func TestFlip(t *testing.T) {
	vol := newTestVolume(3, 2, 1, func(x, y, z int) float64 {
		return float64(x+3*y) / 5
	})
	img, err := extractSlice(vol, AxisZ, 0, window{voi: models.VOIRange{Lower: 0, Upper: 1}})
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	topLeft := img.Gray16At(0, 0)
	bottomRight := img.Gray16At(2, 1)

	flip(img, true, true)

	if img.Gray16At(2, 1) != topLeft {
		t.Errorf("Expected top-left pixel at bottom-right after flip, got %v", img.Gray16At(2, 1))
	}
	if img.Gray16At(0, 0) != bottomRight {
		t.Errorf("Expected bottom-right pixel at top-left after flip, got %v", img.Gray16At(0, 0))
	}
}

// TestDefaultVOI verifies the percentile window computed from volume intensities
func TestDefaultVOI(t *testing.T) {
	vol := newTestVolume(10, 10, 1, func(x, y, z int) float64 {
		return float64(y*10 + x)
	})

	voi, ok := DefaultVOI(vol, 0, 1)
	if !ok {
		t.Fatal("Expected a default VOI for a populated volume")
	}
	if voi.Lower != 0 || voi.Upper != 99 {
		t.Errorf("Expected VOI [0, 99], got [%f, %f]", voi.Lower, voi.Upper)
	}

	voi, _ = DefaultVOI(vol, 0.1, 0.9)
	if voi.Lower < 9 || voi.Lower > 10 || voi.Upper < 89 || voi.Upper > 90 {
		t.Errorf("Expected VOI near [10, 90], got [%f, %f]", voi.Lower, voi.Upper)
	}

	if _, ok := DefaultVOI(&models.Volume{}, 0, 1); ok {
		t.Error("Expected no VOI for an empty volume")
	}

	flat := newTestVolume(2, 2, 1, func(x, y, z int) float64 { return 5 })
	voi, _ = DefaultVOI(flat, 0.1, 0.9)
	if voi.Lower != 5 || voi.Upper != 5 {
		t.Errorf("Expected degenerate VOI [5, 5], got [%f, %f]", voi.Lower, voi.Upper)
	}
}
