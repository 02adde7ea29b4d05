package commands

import (
	"context"
	"math"

	"viewercore/internal/models"
	"viewercore/pkg/services"
	"viewercore/pkg/viewport"
)

// setWindowLevel applies a window/level pair to the active stack viewport.
// An explicit toolGroupId that is not the group of the active viewport makes
// the command a no-op.
func (m *Module) setWindowLevel(ctx context.Context, opts Options) (any, error) {
	wl, err := windowLevelOption(opts)
	if err != nil {
		return nil, err
	}

	surface, ok := m.activeSurface()
	if !ok {
		return nil, nil
	}

	if toolGroupID, _ := opts.String("toolGroupId"); toolGroupID != "" {
		var boundID string
		if m.svc.ToolGroups != nil {
			if tg, ok := m.svc.ToolGroups.ToolGroupForViewport(surface.ViewportID, surface.RenderingEngineID); ok {
				boundID = tg.ID()
			}
		}
		if toolGroupID != boundID {
			return nil, nil
		}
	}

	vp, ok := services.AsStack(surface.Viewport)
	if !ok {
		return nil, nil
	}

	voi := wl.Range()
	props := vp.Properties()
	props.VOIRange = &voi
	vp.SetProperties(props)
	vp.Render()
	return nil, nil
}

func windowLevelOption(opts Options) (models.WindowLevel, error) {
	if wl, ok := opts["windowLevel"].(models.WindowLevel); ok {
		return wl, nil
	}
	nested, ok := opts.Map("windowLevel")
	if !ok {
		return models.WindowLevel{}, &OptionError{Command: "setWindowLevel", Option: "windowLevel", Message: "required"}
	}

	var wl models.WindowLevel
	for key, dst := range map[string]*float64{"window": &wl.Window, "level": &wl.Level} {
		v, present, err := nested.Number(key)
		if err != nil {
			return models.WindowLevel{}, &OptionError{Command: "setWindowLevel", Option: "windowLevel." + key, Message: err.Error()}
		}
		if !present {
			return models.WindowLevel{}, &OptionError{Command: "setWindowLevel", Option: "windowLevel." + key, Message: "required"}
		}
		*dst = v
	}
	return wl, nil
}

// rotateViewport adds rotation degrees to the active stack viewport,
// keeping the result in [0, 360).
func (m *Module) rotateViewport(ctx context.Context, opts Options) (any, error) {
	rotation, _, err := opts.Number("rotation")
	if err != nil {
		return nil, &OptionError{Command: "rotateViewport", Option: "rotation", Message: err.Error()}
	}

	vp, ok := m.activeStack()
	if !ok {
		return nil, nil
	}

	props := vp.Properties()
	props.Rotation = normalizeRotation(props.Rotation + rotation)
	vp.SetProperties(props)
	vp.Render()
	return nil, nil
}

func normalizeRotation(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	return r
}

func (m *Module) flipViewportHorizontal(ctx context.Context, opts Options) (any, error) {
	vp, ok := m.activeStack()
	if !ok {
		return nil, nil
	}
	cam := vp.Camera()
	cam.FlipHorizontal = !cam.FlipHorizontal
	vp.SetCamera(cam)
	vp.Render()
	return nil, nil
}

func (m *Module) flipViewportVertical(ctx context.Context, opts Options) (any, error) {
	vp, ok := m.activeStack()
	if !ok {
		return nil, nil
	}
	cam := vp.Camera()
	cam.FlipVertical = !cam.FlipVertical
	vp.SetCamera(cam)
	vp.Render()
	return nil, nil
}

// invertViewport toggles inversion on the surface given as "element" (a
// *services.Surface or a grid index), or on the active viewport.
func (m *Module) invertViewport(ctx context.Context, opts Options) (any, error) {
	surface, ok := m.elementOption(opts)
	if !ok {
		return nil, nil
	}
	vp, ok := services.AsStack(surface.Viewport)
	if !ok {
		return nil, nil
	}

	props := vp.Properties()
	props.Invert = !props.Invert
	vp.SetProperties(props)
	vp.Render()
	return nil, nil
}

func (m *Module) elementOption(opts Options) (*services.Surface, bool) {
	switch el := opts["element"].(type) {
	case nil:
		return m.activeSurface()
	case *services.Surface:
		return el, el != nil
	default:
		index, err := toFloat(el)
		if err != nil || m.svc.Viewports == nil {
			return nil, false
		}
		return m.svc.Viewports.EnabledSurface(int(index))
	}
}

func (m *Module) resetViewport(ctx context.Context, opts Options) (any, error) {
	vp, ok := m.activeStack()
	if !ok {
		return nil, nil
	}
	vp.ResetProperties()
	vp.ResetCamera()
	vp.Render()
	return nil, nil
}

// scaleViewport zooms in for a positive direction, out for a negative one
// and resets the camera for zero.
func (m *Module) scaleViewport(ctx context.Context, opts Options) (any, error) {
	direction, _, err := opts.Number("direction")
	if err != nil {
		return nil, &OptionError{Command: "scaleViewport", Option: "direction", Message: err.Error()}
	}

	vp, ok := m.activeStack()
	if !ok {
		return nil, nil
	}

	if direction == 0 {
		vp.ResetCamera()
		vp.Render()
		return nil, nil
	}

	factor := m.cfg.Viewer.ZoomOutFactor
	if direction > 0 {
		factor = m.cfg.Viewer.ZoomInFactor
	}
	cam := vp.Camera()
	cam.ParallelScale *= factor
	vp.SetCamera(cam)
	vp.Render()
	return nil, nil
}

// scroll moves the active stack by direction images, clamped to the stack.
func (m *Module) scroll(ctx context.Context, opts Options) (any, error) {
	direction, _, err := opts.Number("direction")
	if err != nil {
		return nil, &OptionError{Command: "scroll", Option: "direction", Message: err.Error()}
	}

	vp, ok := m.activeStack()
	if !ok {
		return nil, nil
	}
	if viewport.ScrollThroughStack(vp, int(direction)) {
		vp.Render()
	}
	return nil, nil
}
