package segmentation

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"viewercore/internal/models"
)

// Stats summarises the labelled region of a labelmap.
type Stats struct {
	// Voxels is the number of voxels with a non-zero label
	Voxels int `yaml:"voxels"`

	// VolumeMl is the labelled volume in millilitres
	VolumeMl float64 `yaml:"volumeMl"`

	// Max and Mean are intensities of the referenced volume inside the region.
	// Both are zero when the region is empty.
	Max  float64 `yaml:"max"`
	Mean float64 `yaml:"mean"`
}

// Data returns the stats in the shape stored under a segmentation's "stats" key.
func (s Stats) Data() map[string]any {
	return map[string]any{
		"voxels":   s.Voxels,
		"volumeMl": s.VolumeMl,
		"max":      s.Max,
		"mean":     s.Mean,
	}
}

// ComputeStats measures the labelled region of labelmap against the
// intensities of reference. The two volumes must share a geometry.
func ComputeStats(labelmap, reference *models.Volume) (Stats, error) {
	if labelmap == nil || reference == nil {
		return Stats{}, fmt.Errorf("compute stats: %w", ErrVolumeNotFound)
	}
	if labelmap.Width != reference.Width || labelmap.Height != reference.Height || labelmap.Depth != reference.Depth {
		return Stats{}, fmt.Errorf("compute stats: labelmap %s is %dx%dx%d, reference %s is %dx%dx%d",
			labelmap.ID, labelmap.Width, labelmap.Height, labelmap.Depth,
			reference.ID, reference.Width, reference.Height, reference.Depth)
	}

	var values []float64
	for i, label := range labelmap.Data {
		if label != 0 {
			values = append(values, reference.Data[i])
		}
	}

	stats := Stats{
		Voxels:   len(values),
		VolumeMl: float64(len(values)) * labelmap.VoxelVolume() / 1000.0,
	}
	if len(values) > 0 {
		stats.Max = floats.Max(values)
		stats.Mean = stat.Mean(values, nil)
	}
	return stats, nil
}

// FillByThreshold labels every voxel of labelmap whose reference intensity
// lies in [lower, upper] and returns the number of voxels labelled.
// Voxels outside the range keep their current label.
func FillByThreshold(labelmap, reference *models.Volume, lower, upper, label float64) (int, error) {
	if labelmap == nil || reference == nil {
		return 0, fmt.Errorf("threshold: %w", ErrVolumeNotFound)
	}
	if len(labelmap.Data) != len(reference.Data) {
		return 0, fmt.Errorf("threshold: labelmap %s and reference %s differ in size", labelmap.ID, reference.ID)
	}
	if lower > upper {
		lower, upper = upper, lower
	}

	filled := 0
	for i, v := range reference.Data {
		if v >= lower && v <= upper {
			labelmap.Data[i] = label
			filled++
		}
	}
	return filled, nil
}
