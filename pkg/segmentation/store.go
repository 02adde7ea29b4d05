// Package segmentation owns the volume cache and the segmentation store:
// labelmap derivation, segmentation registration, representation binding,
// report building and labelmap statistics.
package segmentation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"viewercore/internal/models"
	"viewercore/pkg/metrics"
	"viewercore/pkg/services"
)

var (
	// ErrVolumeNotFound is returned when a volume id is not in the cache
	ErrVolumeNotFound = errors.New("volume not found")
	// ErrVolumeExists is returned when a volume id is already cached
	ErrVolumeExists = errors.New("volume already exists")
	// ErrSegmentationNotFound is returned for unknown segmentation ids
	ErrSegmentationNotFound = errors.New("segmentation not found")
	// ErrSegmentationExists is returned when registering an id twice
	ErrSegmentationExists = errors.New("segmentation already exists")
)

// Store is an in-memory volume cache plus segmentation state.
type Store struct {
	mu sync.RWMutex

	volumes         map[string]*models.Volume
	segmentations   map[string]models.Segmentation
	order           []string
	representations []models.Representation
	states          map[string]models.SegmentationState

	log logr.Logger
}

// NewStore creates an empty store.
func NewStore(log logr.Logger) *Store {
	return &Store{
		volumes:       make(map[string]*models.Volume),
		segmentations: make(map[string]models.Segmentation),
		states:        make(map[string]models.SegmentationState),
		log:           log,
	}
}

// AddVolume caches a source volume.
func (s *Store) AddVolume(vol *models.Volume) error {
	if vol == nil || vol.ID == "" {
		return fmt.Errorf("add volume: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.volumes[vol.ID]; ok {
		return fmt.Errorf("add volume %s: %w", vol.ID, ErrVolumeExists)
	}
	s.volumes[vol.ID] = vol
	return nil
}

// Volume returns the cached volume with the given id.
func (s *Store) Volume(id string) (*models.Volume, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vol, ok := s.volumes[id]
	return vol, ok
}

// FillLabelmap runs fn over a labelmap volume and the volume it was derived
// from while holding the store's write lock. fn must not call back into the
// store.
func (s *Store) FillLabelmap(labelmapID string, fn func(labelmap, reference *models.Volume) (int, error)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	labelmap, reference, err := s.labelmapPair(labelmapID)
	if err != nil {
		return 0, err
	}
	return fn(labelmap, reference)
}

// InspectLabelmap is the read-only counterpart of FillLabelmap.
func (s *Store) InspectLabelmap(labelmapID string, fn func(labelmap, reference *models.Volume) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labelmap, reference, err := s.labelmapPair(labelmapID)
	if err != nil {
		return err
	}
	return fn(labelmap, reference)
}

// labelmapPair expects s.mu to be held.
func (s *Store) labelmapPair(labelmapID string) (*models.Volume, *models.Volume, error) {
	labelmap, ok := s.volumes[labelmapID]
	if !ok {
		return nil, nil, fmt.Errorf("labelmap %s: %w", labelmapID, ErrVolumeNotFound)
	}
	reference, ok := s.volumes[labelmap.ReferencedVolumeID]
	if !ok {
		return nil, nil, fmt.Errorf("labelmap %s: referenced volume %q: %w", labelmapID, labelmap.ReferencedVolumeID, ErrVolumeNotFound)
	}
	return labelmap, reference, nil
}

// CreateDerivedVolume allocates a zeroed volume with the geometry of the
// source volume and caches it under opts.VolumeID.
func (s *Store) CreateDerivedVolume(ctx context.Context, sourceVolumeID string, opts services.DerivedVolumeOptions) (*models.Volume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.volumes[sourceVolumeID]
	if !ok {
		return nil, fmt.Errorf("derive volume from %s: %w", sourceVolumeID, ErrVolumeNotFound)
	}
	if _, ok := s.volumes[opts.VolumeID]; ok {
		return nil, fmt.Errorf("derive volume %s: %w", opts.VolumeID, ErrVolumeExists)
	}

	derived := &models.Volume{
		ID:                 opts.VolumeID,
		ReferencedVolumeID: src.ID,
		Data:               make([]float64, src.NumVoxels()),
		Width:              src.Width,
		Height:             src.Height,
		Depth:              src.Depth,
		VoxelSize:          src.VoxelSize,
	}
	s.volumes[derived.ID] = derived

	s.log.V(1).Info("derived volume created", "volumeId", derived.ID, "referencedVolumeId", src.ID)
	return derived, nil
}

// AddSegmentations registers segmentations. The batch is rejected as a
// whole if any id is already registered.
func (s *Store) AddSegmentations(ctx context.Context, inputs []services.SegmentationInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, in := range inputs {
		if _, ok := s.segmentations[in.SegmentationID]; ok {
			return fmt.Errorf("add segmentation %s: %w", in.SegmentationID, ErrSegmentationExists)
		}
	}

	for _, in := range inputs {
		s.segmentations[in.SegmentationID] = models.Segmentation{
			ID:       in.SegmentationID,
			Label:    in.Label,
			Type:     in.Type,
			VolumeID: in.VolumeID,
		}
		s.order = append(s.order, in.SegmentationID)
		s.states[in.SegmentationID] = models.SegmentationRegistered
		metrics.RecordSegmentationCreated()
		s.log.Info("segmentation added", "segmentationId", in.SegmentationID, "type", in.Type)
	}
	return nil
}

// AddSegmentationRepresentations binds segmentations to a tool group.
func (s *Store) AddSegmentationRepresentations(ctx context.Context, toolGroupID string, inputs []services.RepresentationInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, in := range inputs {
		if _, ok := s.segmentations[in.SegmentationID]; !ok {
			return fmt.Errorf("add representation of %s: %w", in.SegmentationID, ErrSegmentationNotFound)
		}
	}

	for _, in := range inputs {
		if s.hasRepresentation(in.SegmentationID, toolGroupID, in.Type) {
			continue
		}
		s.representations = append(s.representations, models.Representation{
			SegmentationID: in.SegmentationID,
			ToolGroupID:    toolGroupID,
			Type:           in.Type,
		})
		s.states[in.SegmentationID] = models.SegmentationRepresented
		s.log.Info("segmentation represented", "segmentationId", in.SegmentationID, "toolGroupId", toolGroupID, "type", in.Type)
	}
	return nil
}

func (s *Store) hasRepresentation(segmentationID, toolGroupID string, typ models.RepresentationType) bool {
	for _, r := range s.representations {
		if r.SegmentationID == segmentationID && r.ToolGroupID == toolGroupID && r.Type == typ {
			return true
		}
	}
	return false
}

// Representations returns the representations of a segmentation.
func (s *Store) Representations(segmentationID string) []models.Representation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Representation
	for _, r := range s.representations {
		if r.SegmentationID == segmentationID {
			out = append(out, r)
		}
	}
	return out
}

// Segmentation returns a copy of the segmentation with the given id.
func (s *Store) Segmentation(id string) (models.Segmentation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seg, ok := s.segmentations[id]
	if !ok {
		return models.Segmentation{}, false
	}
	seg.Data = copyData(seg.Data)
	return seg, true
}

// Segmentations returns every registered segmentation in registration order.
func (s *Store) Segmentations() []models.Segmentation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Segmentation, 0, len(s.order))
	for _, id := range s.order {
		seg := s.segmentations[id]
		seg.Data = copyData(seg.Data)
		out = append(out, seg)
	}
	return out
}

// UpdateSegmentationData merges data into the segmentation's metadata.
// Top-level keys are replaced.
func (s *Store) UpdateSegmentationData(id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segmentations[id]
	if !ok {
		return fmt.Errorf("update segmentation %s: %w", id, ErrSegmentationNotFound)
	}
	if seg.Data == nil {
		seg.Data = make(map[string]any, len(data))
	}
	for k, v := range data {
		seg.Data[k] = v
	}
	s.segmentations[id] = seg
	return nil
}

// RemoveSegmentation drops a segmentation, its representations and its labelmap volume.
func (s *Store) RemoveSegmentation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segmentations[id]
	if !ok {
		return fmt.Errorf("remove segmentation %s: %w", id, ErrSegmentationNotFound)
	}
	delete(s.segmentations, id)
	delete(s.volumes, seg.VolumeID)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	kept := s.representations[:0]
	for _, r := range s.representations {
		if r.SegmentationID != id {
			kept = append(kept, r)
		}
	}
	s.representations = kept
	s.states[id] = models.SegmentationRemoved

	s.log.Info("segmentation removed", "segmentationId", id)
	return nil
}

// State returns the lifecycle state of a segmentation id.
func (s *Store) State(id string) models.SegmentationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[id]
}

func copyData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if nested, ok := v.(map[string]any); ok {
			v = copyData(nested)
		}
		out[k] = v
	}
	return out
}
