package workspace

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"viewercore/internal/models"
	"viewercore/pkg/commands"
	"viewercore/pkg/config"
	"viewercore/pkg/metadata"
	"viewercore/pkg/mode"
	"viewercore/pkg/segmentation"
	"viewercore/pkg/services"
	"viewercore/pkg/session"
	"viewercore/pkg/toolgroup"
	"viewercore/pkg/viewport"
)

// Options configures Build.
type Options struct {
	// Config defaults to config.DefaultConfig
	Config *config.Config

	Dialogs services.DialogService
	Modals  services.ModalService

	Log logr.Logger
}

// Workspace is an assembled session: every collaborator, the command
// registry and, for PET/CT studies, the TMTV mode.
type Workspace struct {
	Config        *config.Config
	Grid          *viewport.Grid
	ToolGroups    *toolgroup.Manager
	Segmentations *segmentation.Store
	Metadata      *metadata.Provider
	Session       *session.State
	Registry      *commands.Registry

	// Mode is nil when the study's modalities do not fit the TMTV mode
	Mode *mode.TMTV

	log logr.Logger
}

// Build assembles a workspace from fx. Viewports are enabled in fixture
// order and then bound to their tool groups, so VIEWPORT_ADDED listeners see
// enabled surfaces.
func Build(ctx context.Context, fx *Fixture, opts Options) (*Workspace, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Log

	w := &Workspace{
		Config:        cfg,
		ToolGroups:    toolgroup.NewManager(log.WithName("toolgroups")),
		Segmentations: segmentation.NewStore(log.WithName("segmentation")),
		Metadata:      metadata.NewProvider(),
		Session:       session.NewState(log.WithName("session")),
		Registry:      commands.NewRegistry(log.WithName("commands")),
		log:           log,
	}

	layout := fx.Layout
	if layout < len(fx.Viewports) {
		layout = len(fx.Viewports)
	}
	w.Grid = viewport.NewGrid(cfg.Viewer.RenderingEngineID, layout)

	volumes := make(map[string]*models.Volume)
	for _, vf := range fx.Volumes {
		vol, err := vf.NewVolume()
		if err != nil {
			return nil, err
		}
		if err := w.Segmentations.AddVolume(vol); err != nil {
			return nil, err
		}
		if vf.Instance != nil {
			inst := *vf.Instance
			if inst.StudyInstanceUID == "" {
				inst.StudyInstanceUID = fx.StudyInstanceUID
			}
			w.Metadata.AddSeries(vol.ImageIDs, inst)
		}
		volumes[vol.ID] = vol
	}

	_, err := commands.Register(w.Registry, commands.Services{
		Viewports:     w.Grid,
		ToolGroups:    w.ToolGroups,
		Segmentations: w.Segmentations,
		Metadata:      w.Metadata,
		Dialogs:       opts.Dialogs,
		Modals:        opts.Modals,
		Session:       w.Session,
		Config:        cfg,
		Log:           log.WithName("commands"),
	})
	if err != nil {
		return nil, err
	}

	for i, vf := range fx.Viewports {
		vp, err := w.newViewport(vf, volumes)
		if err != nil {
			return nil, err
		}
		if _, err := w.Grid.Enable(i, vp); err != nil {
			return nil, err
		}
	}
	w.Grid.SetActiveIndex(fx.ActiveViewport)

	if mode.IsValidMode(fx.Modalities, cfg.Mode.RequiredModalities, cfg.Mode.ExcludedModalities) {
		w.Mode = mode.NewTMTV(cfg, w.ToolGroups, w.Session, w.Registry, log.WithName("mode"))
		if err := w.Mode.Enter(ctx); err != nil {
			return nil, err
		}
	} else {
		log.Info("study does not fit the TMTV mode", "modalities", fx.Modalities)
	}

	for _, vf := range fx.Viewports {
		if vf.ToolGroup == "" {
			continue
		}
		if _, ok := w.ToolGroups.Group(vf.ToolGroup); !ok {
			if err := w.createToolGroup(vf.ToolGroup); err != nil {
				return nil, err
			}
		}
		if err := w.ToolGroups.AddViewport(vf.ToolGroup, vf.ID, w.Grid.RenderingEngineID()); err != nil {
			return nil, err
		}
	}

	for _, s := range w.Grid.Surfaces() {
		s.Viewport.Render()
	}
	return w, nil
}

func (w *Workspace) newViewport(vf ViewportFixture, volumes map[string]*models.Volume) (services.Viewport, error) {
	stackOpts := viewport.StackOptions{
		VOILowerPercentile: w.Config.Viewer.VOILowerPercentile,
		VOIUpperPercentile: w.Config.Viewer.VOIUpperPercentile,
		Log:                w.log.WithName("viewport").WithValues("viewportId", vf.ID),
	}

	switch vf.Kind {
	case models.KindStack, "":
		vol, ok := volumes[vf.Volume]
		if !ok {
			return nil, fmt.Errorf("viewport %s: %w: %s", vf.ID, segmentation.ErrVolumeNotFound, vf.Volume)
		}
		return viewport.NewStack(vf.ID, vol, stackOpts), nil
	case models.KindVolume:
		vol, ok := volumes[vf.Volume]
		if !ok {
			return nil, fmt.Errorf("viewport %s: %w: %s", vf.ID, segmentation.ErrVolumeNotFound, vf.Volume)
		}
		return viewport.NewVolume(vf.ID, vol, viewport.AxisZ, stackOpts), nil
	case models.KindVideo:
		return viewport.NewVideo(vf.ID, vf.Frames), nil
	}
	return nil, fmt.Errorf("viewport %s: unknown kind %q", vf.ID, vf.Kind)
}

// createToolGroup creates a group outside the mode, from a configured
// preset when one matches.
func (w *Workspace) createToolGroup(id string) error {
	preset := config.ToolGroupPreset{ID: id}
	for _, p := range w.Config.ToolGroups {
		if p.ID == id {
			preset = p
			break
		}
	}
	if _, err := w.ToolGroups.CreateFromPreset(preset); err != nil {
		return err
	}
	w.Session.SetPrimaryToolID(w.Config.Tools.PrimaryTool)
	return nil
}

// Close exits the mode, if one was entered.
func (w *Workspace) Close() {
	if w.Mode != nil {
		w.Mode.Exit()
	}
}
