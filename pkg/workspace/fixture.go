// Package workspace assembles a viewer session from a study fixture and
// runs scripted command sequences against it.
package workspace

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"viewercore/internal/models"
)

// VolumeFixture describes a synthetic volume.
type VolumeFixture struct {
	ID string `yaml:"id"`

	// Dims is width, height, depth in voxels
	Dims [3]int `yaml:"dims"`

	// Spacing is the voxel size in mm; zero components default to 1
	Spacing [3]float64 `yaml:"spacing"`

	// Pattern is one of gradient, sphere or zero
	Pattern string `yaml:"pattern"`

	// Peak scales the pattern intensities; defaults to 1000
	Peak float64 `yaml:"peak"`

	// ImageIDs defaults to "<id>:<slice>" per slice
	ImageIDs []string `yaml:"imageIds"`

	// Instance is attached to every image of the volume
	Instance *models.Instance `yaml:"instance"`
}

// ViewportFixture places a viewport in the grid.
type ViewportFixture struct {
	ID     string              `yaml:"id"`
	Kind   models.ViewportKind `yaml:"kind"`
	Volume string              `yaml:"volume"`

	// ToolGroup is the tool group the viewport joins
	ToolGroup string `yaml:"toolGroup"`

	// Frames is the frame count of a video viewport
	Frames int `yaml:"frames"`
}

// Fixture is a study and its hanging layout.
type Fixture struct {
	StudyInstanceUID string `yaml:"studyInstanceUid"`

	// Modalities is backslash separated, e.g. CT\PT
	Modalities string `yaml:"modalities"`

	Volumes   []VolumeFixture   `yaml:"volumes"`
	Viewports []ViewportFixture `yaml:"viewports"`

	// Layout is the number of grid positions; defaults to the viewport count
	Layout int `yaml:"layout"`

	// ActiveViewport is the grid position active after the build
	ActiveViewport int `yaml:"activeViewport"`
}

// LoadFixture reads a fixture from a YAML file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading fixture: %w", err)
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("error parsing fixture: %w", err)
	}
	return &fx, nil
}

// NewVolume builds the synthetic volume a fixture describes.
func (vf VolumeFixture) NewVolume() (*models.Volume, error) {
	w, h, d := vf.Dims[0], vf.Dims[1], vf.Dims[2]
	if vf.ID == "" || w <= 0 || h <= 0 || d <= 0 {
		return nil, fmt.Errorf("volume %q: id and positive dims are required", vf.ID)
	}

	vol := &models.Volume{
		ID:     vf.ID,
		Width:  w,
		Height: h,
		Depth:  d,
		Data:   make([]float64, w*h*d),
	}
	vol.VoxelSize.X = orOne(vf.Spacing[0])
	vol.VoxelSize.Y = orOne(vf.Spacing[1])
	vol.VoxelSize.Z = orOne(vf.Spacing[2])

	vol.ImageIDs = vf.ImageIDs
	if len(vol.ImageIDs) == 0 {
		for z := 0; z < d; z++ {
			vol.ImageIDs = append(vol.ImageIDs, fmt.Sprintf("%s:%d", vf.ID, z))
		}
	}

	peak := vf.Peak
	if peak == 0 {
		peak = 1000
	}

	switch vf.Pattern {
	case "", "zero":
	case "gradient":
		fillGradient(vol, peak)
	case "sphere":
		fillSphere(vol, peak)
	default:
		return nil, fmt.Errorf("volume %s: unknown pattern %q", vf.ID, vf.Pattern)
	}
	return vol, nil
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// fillGradient ramps intensity along Z.
func fillGradient(vol *models.Volume, peak float64) {
	for z := 0; z < vol.Depth; z++ {
		value := peak * float64(z) / math.Max(float64(vol.Depth-1), 1)
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				vol.Data[vol.Index(x, y, z)] = value
			}
		}
	}
}

// fillSphere places a bright sphere at the centre with intensity falling
// off linearly to the edge.
func fillSphere(vol *models.Volume, peak float64) {
	cx := float64(vol.Width-1) / 2
	cy := float64(vol.Height-1) / 2
	cz := float64(vol.Depth-1) / 2
	radius := math.Min(math.Min(float64(vol.Width), float64(vol.Height)), float64(vol.Depth)) / 2

	for z := 0; z < vol.Depth; z++ {
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				dist := math.Sqrt(math.Pow(float64(x)-cx, 2) + math.Pow(float64(y)-cy, 2) + math.Pow(float64(z)-cz, 2))
				if dist <= radius {
					vol.Data[vol.Index(x, y, z)] = peak * (1 - dist/radius/2)
				}
			}
		}
	}
}
