package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"

	"viewercore/internal/models"
	"viewercore/pkg/metadata"
	"viewercore/pkg/segmentation"
	"viewercore/pkg/services"
	"viewercore/pkg/session"
	"viewercore/pkg/toolgroup"
	"viewercore/pkg/viewport"
)

const testEngine = "engine"

type fakeDialogs struct {
	text   string
	ok     bool
	err    error
	titles []string
}

func (f *fakeDialogs) PromptText(ctx context.Context, title, initial string) (string, bool, error) {
	f.titles = append(f.titles, title)
	if f.text == "" {
		return initial, f.ok, f.err
	}
	return f.text, f.ok, f.err
}

type fakeModals struct {
	shown []services.Modal
}

func (f *fakeModals) Show(modal services.Modal) error {
	f.shown = append(f.shown, modal)
	return nil
}

// failingStore wraps a store and fails the calls the core must propagate.
type failingStore struct {
	*segmentation.Store
	err error
}

func (f *failingStore) CreateDerivedVolume(ctx context.Context, src string, opts services.DerivedVolumeOptions) (*models.Volume, error) {
	return nil, f.err
}

func (f *failingStore) AddSegmentationRepresentations(ctx context.Context, tg string, in []services.RepresentationInput) error {
	return f.err
}

var errStoreDown = errors.New("store down")

type harness struct {
	reg     *Registry
	module  *Module
	grid    *viewport.Grid
	tools   *toolgroup.Manager
	segs    *segmentation.Store
	meta    *metadata.Provider
	session *session.State
	dialogs *fakeDialogs
	modals  *fakeModals

	ct, pt *viewport.Stack
	video  *viewport.Video
}

func newTestVolume(id string, width, height, depth int) *models.Volume {
	vol := &models.Volume{
		ID:     id,
		Width:  width,
		Height: height,
		Depth:  depth,
		Data:   make([]float64, width*height*depth),
	}
	vol.VoxelSize.X, vol.VoxelSize.Y, vol.VoxelSize.Z = 1, 1, 1
	for z := 0; z < depth; z++ {
		vol.ImageIDs = append(vol.ImageIDs, id+":"+string(rune('a'+z)))
	}
	for i := range vol.Data {
		vol.Data[i] = float64(i)
	}
	return vol
}

// newHarness lays out a ct stack at 0, a pt stack at 1, a video at 2 and
// an empty position at 3. ct and pt each have their own tool group.
func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logr.Discard()

	h := &harness{
		grid:    viewport.NewGrid(testEngine, 4),
		tools:   toolgroup.NewManager(log),
		segs:    segmentation.NewStore(log),
		meta:    metadata.NewProvider(),
		session: session.NewState(log),
		dialogs: &fakeDialogs{ok: true},
		modals:  &fakeModals{},
	}

	ctVol := newTestVolume("V1", 4, 4, 3)
	ptVol := newTestVolume("V2", 4, 4, 3)
	for _, vol := range []*models.Volume{ctVol, ptVol} {
		if err := h.segs.AddVolume(vol); err != nil {
			t.Fatalf("Failed to add volume: %v", err)
		}
	}
	h.meta.AddSeries(ctVol.ImageIDs, models.Instance{PatientID: "P1", StudyDate: "20240101", Modality: "CT"})

	opts := viewport.StackOptions{VOILowerPercentile: 0, VOIUpperPercentile: 1, Log: log}
	h.ct = viewport.NewStack("ct", ctVol, opts)
	h.pt = viewport.NewStack("pt", ptVol, opts)
	h.video = viewport.NewVideo("video", 10)

	for i, vp := range []services.Viewport{h.ct, h.pt, h.video} {
		if _, err := h.grid.Enable(i, vp); err != nil {
			t.Fatalf("Failed to enable viewport: %v", err)
		}
	}

	for _, id := range []string{"ctToolGroup", "ptToolGroup"} {
		g, err := h.tools.CreateToolGroup(id)
		if err != nil {
			t.Fatalf("Failed to create tool group: %v", err)
		}
		for _, tool := range []string{"WindowLevel", "Crosshairs", "Zoom", "Length"} {
			g.AddTool(tool)
		}
		g.SetToolActive("WindowLevel", models.PrimaryBinding)
		g.SetToolActive("Zoom", models.Binding{MouseButton: models.MouseSecondary})
	}
	h.tools.AddViewport("ctToolGroup", "ct", testEngine)
	h.tools.AddViewport("ptToolGroup", "pt", testEngine)
	h.session.SetPrimaryToolID("WindowLevel")

	h.reg = NewRegistry(log)
	module, err := Register(h.reg, Services{
		Viewports:     h.grid,
		ToolGroups:    h.tools,
		Segmentations: h.segs,
		Metadata:      h.meta,
		Dialogs:       h.dialogs,
		Modals:        h.modals,
		Session:       h.session,
		Log:           log,
	})
	if err != nil {
		t.Fatalf("Failed to register commands: %v", err)
	}
	h.module = module
	return h
}

func (h *harness) dispatch(t *testing.T, name string, opts Options) any {
	t.Helper()
	v, err := h.reg.Dispatch(context.Background(), name, opts)
	if err != nil {
		t.Fatalf("Dispatch %s failed: %v", name, err)
	}
	return v
}

func (h *harness) group(t *testing.T, id string) *toolgroup.ToolGroup {
	t.Helper()
	g, ok := h.tools.Group(id)
	if !ok {
		t.Fatalf("Expected tool group %s", id)
	}
	return g
}
