package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"

	"viewercore/pkg/commands"
	"viewercore/pkg/services"
	"viewercore/pkg/viewport"
)

// ScriptedDialogs answers text prompts from a fixed list. Once the list is
// exhausted every prompt is cancelled.
type ScriptedDialogs struct {
	mu      sync.Mutex
	answers []string
}

func NewScriptedDialogs(answers []string) *ScriptedDialogs {
	return &ScriptedDialogs{answers: append([]string(nil), answers...)}
}

func (d *ScriptedDialogs) PromptText(ctx context.Context, title, initial string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.answers) == 0 {
		return "", false, nil
	}
	answer := d.answers[0]
	d.answers = d.answers[1:]
	return answer, true, nil
}

// CaptureModals implements the download modal by writing the frame of the
// stack viewport at the modal's grid position as a JPEG file.
type CaptureModals struct {
	mu sync.Mutex

	viewports services.ViewportRegistry
	outputDir string
	saved     []string

	log logr.Logger
}

// NewCaptureModals writes captures under outputDir. The registry can be
// attached later with Attach when it is built after the modal service.
func NewCaptureModals(viewports services.ViewportRegistry, outputDir string, log logr.Logger) *CaptureModals {
	return &CaptureModals{viewports: viewports, outputDir: outputDir, log: log}
}

// Attach sets the viewport registry captures read from.
func (c *CaptureModals) Attach(viewports services.ViewportRegistry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewports = viewports
}

// Show handles the download modal; other modals are logged and ignored.
func (c *CaptureModals) Show(modal services.Modal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if modal.Title != commands.DownloadModalTitle {
		c.log.Info("modal ignored", "title", modal.Title)
		return nil
	}
	if c.viewports == nil {
		return fmt.Errorf("download modal: no viewport registry attached")
	}

	index, _ := modal.Props["activeViewportIndex"].(int)
	surface, ok := c.viewports.EnabledSurface(index)
	if !ok {
		return fmt.Errorf("download modal: no viewport at index %d", index)
	}
	vp, ok := services.AsStack(surface.Viewport)
	if !ok {
		return fmt.Errorf("download modal: viewport %s is not a stack viewport", surface.ViewportID)
	}
	if vp.Frame() == nil {
		vp.Render()
	}

	filename := filepath.Join(c.outputDir, fmt.Sprintf("%s_%03d.jpg", surface.ViewportID, vp.ImageIndex()))
	if err := viewport.SaveFrame(vp.Frame(), filename); err != nil {
		return err
	}
	c.saved = append(c.saved, filename)
	c.log.Info("viewport image saved", "viewportId", surface.ViewportID, "file", filename)
	return nil
}

// Saved returns the files written so far.
func (c *CaptureModals) Saved() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.saved...)
}
