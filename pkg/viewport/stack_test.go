package viewport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"

	"viewercore/internal/models"
	"viewercore/pkg/services"
)

func newTestStack(t *testing.T) *Stack {
	t.Helper()
	vol := newTestVolume(8, 4, 3, func(x, y, z int) float64 {
		return float64(x + y + z)
	})
	vol.VoxelSize.X = 2
	return NewStack("stack-1", vol, StackOptions{VOILowerPercentile: 0, VOIUpperPercentile: 1, Log: logr.Discard()})
}

// TestNewStack verifies the defaults derived from the volume
func TestNewStack(t *testing.T) {
	s := newTestStack(t)

	if s.Kind() != models.KindStack {
		t.Errorf("Expected kind stack, got %s", s.Kind())
	}
	// 8 voxels * 2mm wide, 4 voxels * 1mm high -> half of 16
	if got := s.Camera().ParallelScale; got != 8 {
		t.Errorf("Expected fit parallel scale 8, got %f", got)
	}
	props := s.Properties()
	if props.VOIRange == nil {
		t.Fatal("Expected default VOI range")
	}
	if props.VOIRange.Lower != 0 || props.VOIRange.Upper != 12 {
		t.Errorf("Expected default VOI [0, 12], got [%f, %f]", props.VOIRange.Lower, props.VOIRange.Upper)
	}
	if s.NumImages() != 3 {
		t.Errorf("Expected 3 images, got %d", s.NumImages())
	}
	if _, ok := services.AsStack(s); !ok {
		t.Error("Expected stack viewport to narrow to StackViewport")
	}
}

// TestStackPropertiesAreCopied verifies callers cannot mutate viewport state through returned values
func TestStackPropertiesAreCopied(t *testing.T) {
	s := newTestStack(t)

	props := s.Properties()
	props.VOIRange.Lower = -1000

	if s.Properties().VOIRange.Lower == -1000 {
		t.Error("Expected Properties to return a copy of the VOI range")
	}
}

// TestStackReset verifies camera and property resets restore defaults
func TestStackReset(t *testing.T) {
	s := newTestStack(t)

	s.SetCamera(models.Camera{ParallelScale: 1, FlipHorizontal: true, Pan: [2]float64{3, 4}})
	s.SetProperties(models.Properties{Invert: true, Rotation: 90})

	s.ResetCamera()
	s.ResetProperties()

	if s.Camera() != s.DefaultCamera() {
		t.Errorf("Expected default camera after reset, got %+v", s.Camera())
	}
	props := s.Properties()
	if props.Invert || props.Rotation != 0 || props.VOIRange == nil {
		t.Errorf("Expected default properties after reset, got %+v", props)
	}
}

// TestStackRender verifies rendering produces a frame for the displayed image
func TestStackRender(t *testing.T) {
	s := newTestStack(t)

	if s.Frame() != nil {
		t.Error("Expected no frame before first render")
	}

	s.Render()

	if s.Renders() != 1 {
		t.Errorf("Expected 1 render, got %d", s.Renders())
	}
	frame := s.Frame()
	if frame == nil {
		t.Fatal("Expected a frame after render")
	}
	if b := frame.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("Expected 8x4 frame, got %dx%d", b.Dx(), b.Dy())
	}
}

// TestScrollThroughStack verifies scrolling clamps at both ends
func TestScrollThroughStack(t *testing.T) {
	s := newTestStack(t)

	if !ScrollThroughStack(s, 1) {
		t.Error("Expected scroll forward to change the index")
	}
	if s.ImageIndex() != 1 {
		t.Errorf("Expected image index 1, got %d", s.ImageIndex())
	}

	ScrollThroughStack(s, 10)
	if s.ImageIndex() != 2 {
		t.Errorf("Expected image index clamped to 2, got %d", s.ImageIndex())
	}
	if ScrollThroughStack(s, 1) {
		t.Error("Expected scroll past the end to report no change")
	}

	ScrollThroughStack(s, -10)
	if s.ImageIndex() != 0 {
		t.Errorf("Expected image index clamped to 0, got %d", s.ImageIndex())
	}
	if id, ok := s.ImageID(); !ok || id != "img:a" {
		t.Errorf("Expected image id img:a, got %q", id)
	}
}

// TestOtherViewportKinds verifies volume and video viewports are not stacks
func TestOtherViewportKinds(t *testing.T) {
	vol := newTestVolume(4, 4, 4, func(x, y, z int) float64 { return float64(z) })

	mpr := NewVolume("mpr", vol, AxisX, StackOptions{VOILowerPercentile: 0, VOIUpperPercentile: 1, Log: logr.Discard()})
	video := NewVideo("video", 10)

	for _, vp := range []services.Viewport{mpr, video} {
		if _, ok := services.AsStack(vp); ok {
			t.Errorf("Expected %s viewport not to narrow to StackViewport", vp.Kind())
		}
	}

	mpr.Render()
	if mpr.Frame() == nil {
		t.Error("Expected volume viewport frame after render")
	}
	video.Render()
	if video.Renders() != 1 {
		t.Errorf("Expected 1 video render, got %d", video.Renders())
	}
}

// TestSaveFrame verifies that rendered frames can be saved to disk
func TestSaveFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	s := newTestStack(t)
	s.Render()

	filename := filepath.Join(t.TempDir(), "capture", "frame.jpg")
	if err := SaveFrame(s.Frame(), filename); err != nil {
		t.Fatalf("Failed to save frame: %v", err)
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Errorf("Saved file does not exist: %s", filename)
	}

	if err := SaveFrame(nil, filename); err == nil {
		t.Error("Expected error saving a nil frame, got nil")
	}
}

// TestSaveStack verifies that a whole stack is exported and the index restored
func TestSaveStack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	s := newTestStack(t)
	s.SetImageIndex(1)

	outputDir := filepath.Join(t.TempDir(), "stack")
	files, err := SaveStack(s, outputDir)
	if err != nil {
		t.Fatalf("Failed to save stack: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("Expected 3 files, got %d", len(files))
	}
	for z := 0; z < 3; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("stack-1_%03d.jpg", z))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}
	if s.ImageIndex() != 1 {
		t.Errorf("Expected image index restored to 1, got %d", s.ImageIndex())
	}
}
