package models

// Volume represents a 3D image volume held in the volume cache.
// Source volumes carry the image ids of the stack they were built from;
// derived volumes (labelmaps) point back at their source through
// ReferencedVolumeID.
type Volume struct {
	// ID is the cache key of the volume
	ID string

	// ReferencedVolumeID is the id of the volume this one was derived from.
	// Empty for source volumes.
	ReferencedVolumeID string

	// ImageIDs lists the images of the source stack, one per slice along Z
	ImageIDs []string

	// Data is the 3D volume data as a 1D array in row-major order
	Data []float64

	// Width is the width of the volume in voxels
	Width int

	// Height is the height of the volume in voxels
	Height int

	// Depth is the depth of the volume in voxels
	Depth int

	// VoxelSize is the physical size of each voxel in mm
	VoxelSize struct {
		X, Y, Z float64
	}
}

// NumVoxels returns Width*Height*Depth.
func (v *Volume) NumVoxels() int {
	return v.Width * v.Height * v.Depth
}

// VoxelVolume returns the physical volume of one voxel in mm^3.
func (v *Volume) VoxelVolume() float64 {
	return v.VoxelSize.X * v.VoxelSize.Y * v.VoxelSize.Z
}

// Index returns the offset of voxel (x, y, z) in Data.
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}
