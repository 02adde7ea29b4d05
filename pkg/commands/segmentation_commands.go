package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"viewercore/internal/models"
	"viewercore/pkg/segmentation"
	"viewercore/pkg/services"
)

// TMTVResult is the outcome of calculateTMTV.
type TMTVResult struct {
	Segmentations map[string]segmentation.Stats `yaml:"segmentations"`

	// TotalVolumeMl is the summed labelled volume across segmentations
	TotalVolumeMl float64 `yaml:"totalVolumeMl"`
}

// createSegmentationForDisplaySet derives a labelmap volume from the display
// set's volume and registers it as a labelmap segmentation. Returns the id
// "<displaySetInstanceUID>::<uuid>".
func (m *Module) createSegmentationForDisplaySet(ctx context.Context, opts Options) (any, error) {
	volumeID, _ := opts.String("displaySetInstanceUID")
	if volumeID == "" {
		return nil, &OptionError{Command: "createSegmentationForDisplaySet", Option: "displaySetInstanceUID", Message: "required"}
	}
	label, _ := opts.String("label")

	segmentationID := fmt.Sprintf("%s::%s", volumeID, uuid.NewString())

	if _, err := m.svc.Segmentations.CreateDerivedVolume(ctx, volumeID, services.DerivedVolumeOptions{VolumeID: segmentationID}); err != nil {
		return nil, err
	}

	err := m.svc.Segmentations.AddSegmentations(ctx, []services.SegmentationInput{{
		SegmentationID: segmentationID,
		Label:          label,
		Type:           models.RepresentationLabelmap,
		VolumeID:       segmentationID,
	}})
	if err != nil {
		return nil, err
	}
	return segmentationID, nil
}

// addSegmentationRepresentationToToolGroup binds a segmentation to a tool
// group under options.representationType, labelmap when unset.
func (m *Module) addSegmentationRepresentationToToolGroup(ctx context.Context, opts Options) (any, error) {
	segmentationID, _ := opts.String("segmentationId")
	toolGroupID, _ := opts.String("toolGroupId")

	typ := models.RepresentationLabelmap
	if nested, ok := opts.Map("options"); ok {
		if rt, ok := nested.String("representationType"); ok && rt != "" {
			typ = models.RepresentationType(rt)
		}
	}

	return nil, m.svc.Segmentations.AddSegmentationRepresentations(ctx, toolGroupID, []services.RepresentationInput{{
		SegmentationID: segmentationID,
		Type:           typ,
	}})
}

// getLabelmapVolumes returns the cached volume of each segmentation. Ids
// with no volume are skipped.
func (m *Module) getLabelmapVolumes(ctx context.Context, opts Options) (any, error) {
	segs := m.segmentationsOption(opts)
	volumes := make([]*models.Volume, 0, len(segs))
	for _, seg := range segs {
		if vol, ok := m.svc.Segmentations.Volume(seg.ID); ok {
			volumes = append(volumes, vol)
		}
	}
	return volumes, nil
}

// getSegmentationReport returns a flat record per segmentation, enriched
// with patient and study identifiers where they can be resolved.
func (m *Module) getSegmentationReport(ctx context.Context, opts Options) (any, error) {
	segs := m.segmentationsOption(opts)
	return segmentation.BuildReport(m.svc.Segmentations, m.svc.Metadata, segs), nil
}

// thresholdSegmentation labels every voxel of the segmentation whose source
// intensity lies in [lower, upper]. Returns the number of voxels labelled.
func (m *Module) thresholdSegmentation(ctx context.Context, opts Options) (any, error) {
	segmentationID, _ := opts.String("segmentationId")
	var bounds [3]float64
	for i, key := range []string{"lower", "upper", "label"} {
		v, present, err := opts.Number(key)
		if err != nil {
			return nil, &OptionError{Command: "thresholdSegmentation", Option: key, Message: err.Error()}
		}
		if !present {
			return nil, &OptionError{Command: "thresholdSegmentation", Option: key, Message: "required"}
		}
		bounds[i] = v
	}

	labelmapID, ok := m.labelmapID(segmentationID)
	if !ok {
		return nil, nil
	}
	filled, err := m.svc.Segmentations.FillLabelmap(labelmapID, func(labelmap, reference *models.Volume) (int, error) {
		return segmentation.FillByThreshold(labelmap, reference, bounds[0], bounds[1], bounds[2])
	})
	if err != nil {
		return nil, err
	}
	return filled, nil
}

// calculateTMTV measures every labelmap segmentation, stores the result under
// its "stats" data key and returns the per-segmentation and total volumes.
func (m *Module) calculateTMTV(ctx context.Context, opts Options) (any, error) {
	result := TMTVResult{Segmentations: make(map[string]segmentation.Stats)}

	for _, seg := range m.segmentationsOption(opts) {
		if seg.Type != "" && seg.Type != models.RepresentationLabelmap {
			continue
		}
		labelmapID, ok := m.labelmapID(seg.ID)
		if !ok {
			continue
		}
		var stats segmentation.Stats
		err := m.svc.Segmentations.InspectLabelmap(labelmapID, func(labelmap, reference *models.Volume) error {
			var err error
			stats, err = segmentation.ComputeStats(labelmap, reference)
			return err
		})
		if err != nil {
			return nil, err
		}
		if err := m.svc.Segmentations.UpdateSegmentationData(seg.ID, map[string]any{"stats": stats.Data()}); err != nil {
			return nil, err
		}
		result.Segmentations[seg.ID] = stats
		result.TotalVolumeMl += stats.VolumeMl
	}
	return result, nil
}

// labelmapID returns the id of a segmentation's labelmap volume when both
// it and the volume it was derived from are cached.
func (m *Module) labelmapID(segmentationID string) (string, bool) {
	volumeID := segmentationID
	if seg, ok := m.svc.Segmentations.Segmentation(segmentationID); ok && seg.VolumeID != "" {
		volumeID = seg.VolumeID
	}
	labelmap, ok := m.svc.Segmentations.Volume(volumeID)
	if !ok {
		m.log.Info("no labelmap volume", "segmentationId", segmentationID)
		return "", false
	}
	if _, ok := m.svc.Segmentations.Volume(labelmap.ReferencedVolumeID); !ok {
		m.log.Info("no referenced volume", "segmentationId", segmentationID, "referencedVolumeId", labelmap.ReferencedVolumeID)
		return "", false
	}
	return volumeID, true
}

// segmentationsOption returns the segmentations named by the
// "segmentations" option, or every known segmentation when it is empty.
// Entries may be segmentations or ids; unknown ids become bare segmentations.
func (m *Module) segmentationsOption(opts Options) []models.Segmentation {
	var segs []models.Segmentation
	switch v := opts["segmentations"].(type) {
	case []models.Segmentation:
		segs = append(segs, v...)
	case []string:
		for _, id := range v {
			segs = append(segs, m.lookupSegmentation(id))
		}
	case []any:
		for _, item := range v {
			switch it := item.(type) {
			case string:
				segs = append(segs, m.lookupSegmentation(it))
			case models.Segmentation:
				segs = append(segs, it)
			case map[string]any:
				if id, ok := it["id"].(string); ok {
					segs = append(segs, m.lookupSegmentation(id))
				}
			}
		}
	}
	if len(segs) == 0 {
		return m.svc.Segmentations.Segmentations()
	}
	return segs
}

func (m *Module) lookupSegmentation(id string) models.Segmentation {
	if seg, ok := m.svc.Segmentations.Segmentation(id); ok {
		return seg
	}
	return models.Segmentation{ID: id}
}
