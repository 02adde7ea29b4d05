package segmentation

import (
	"fmt"

	"viewercore/internal/models"
	"viewercore/pkg/services"
)

// Report maps segmentation ids to flat report records.
type Report map[string]map[string]any

// VolumeLookup resolves cached volumes by id.
type VolumeLookup interface {
	Volume(id string) (*models.Volume, bool)
}

// BuildReport flattens each segmentation and enriches it with patient and
// study identifiers read from the first image of its referenced volume.
// A missing labelmap volume, referenced volume, image list or instance
// leaves the record unenriched; no segmentation is ever dropped.
func BuildReport(volumes VolumeLookup, meta services.MetadataProvider, segs []models.Segmentation) Report {
	report := make(Report, len(segs))
	for _, seg := range segs {
		report[seg.ID] = buildEntry(volumes, meta, seg)
	}
	return report
}

func buildEntry(volumes VolumeLookup, meta services.MetadataProvider, seg models.Segmentation) map[string]any {
	entry := map[string]any{
		"id":    seg.ID,
		"label": seg.Label,
	}
	if seg.Data != nil {
		Flatten(entry, seg.Data)
	}

	labelmap, ok := volumes.Volume(seg.ID)
	if !ok {
		return entry
	}
	entry["referencedVolumeId"] = labelmap.ReferencedVolumeID

	referenced, ok := volumes.Volume(labelmap.ReferencedVolumeID)
	if !ok || len(referenced.ImageIDs) == 0 {
		return entry
	}

	if meta == nil {
		return entry
	}
	inst, ok := meta.Instance(referenced.ImageIDs[0])
	if !ok {
		return entry
	}

	entry["PatientID"] = inst.PatientID
	entry["PatientName"] = inst.PatientName.Alphabetic
	entry["StudyInstanceUID"] = inst.StudyInstanceUID
	entry["SeriesInstanceUID"] = inst.SeriesInstanceUID
	entry["StudyDate"] = inst.StudyDate
	return entry
}

// Flatten copies data into dst one level deep: scalar values keep their
// key, maps become key_subKey and slices become key_index. Values nested
// deeper than one level are copied as they are. Nil values are kept.
func Flatten(dst, data map[string]any) {
	for key, value := range data {
		switch v := value.(type) {
		case map[string]any:
			for subKey, subValue := range v {
				dst[key+"_"+subKey] = subValue
			}
		case []any:
			for i, item := range v {
				dst[fmt.Sprintf("%s_%d", key, i)] = item
			}
		default:
			dst[key] = value
		}
	}
}
