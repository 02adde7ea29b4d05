// Package mode implements the Total Metabolic Tumor Volume mode: the study
// validity check, the tool groups it creates on entry and the cleanup on exit.
package mode

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"viewercore/pkg/commands"
	"viewercore/pkg/config"
	"viewercore/pkg/session"
	"viewercore/pkg/toolgroup"
)

// ID is the route name of the mode.
const ID = "tmtv"

// DisplayName is the human readable mode name.
const DisplayName = "Total Metabolic Tumor Volume"

// Dispatcher runs commands by name.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, opts commands.Options) (any, error)
}

// TMTV is the mode lifecycle over a tool-group store and session.
type TMTV struct {
	mu sync.Mutex

	cfg        *config.Config
	tools      *toolgroup.Manager
	session    *session.State
	dispatcher Dispatcher

	subscription string
	pending      map[string]bool
	entered      bool

	log logr.Logger
}

// NewTMTV creates the mode. A nil cfg means defaults.
func NewTMTV(cfg *config.Config, tools *toolgroup.Manager, st *session.State, dispatcher Dispatcher, log logr.Logger) *TMTV {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &TMTV{
		cfg:        cfg,
		tools:      tools,
		session:    st,
		dispatcher: dispatcher,
		log:        log.WithValues("mode", ID),
	}
}

// IsValidMode reports whether a study with the given backslash-separated
// modalities can be shown: every required modality is present and no
// excluded one is.
func IsValidMode(modalities string, required, excluded []string) bool {
	present := make(map[string]bool)
	for _, m := range strings.Split(modalities, `\`) {
		present[strings.TrimSpace(m)] = true
	}
	for _, m := range required {
		if !present[m] {
			return false
		}
	}
	for _, m := range excluded {
		if present[m] {
			return false
		}
	}
	return true
}

// IsValid applies IsValidMode with the configured modality lists.
func (t *TMTV) IsValid(modalities string) bool {
	return IsValidMode(modalities, t.cfg.Mode.RequiredModalities, t.cfg.Mode.ExcludedModalities)
}

// Enter creates the configured tool groups and records the primary tool.
// The first time each group holding the primary tool gains a viewport,
// the primary tool is activated there through setToolActive.
func (t *TMTV) Enter(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.entered {
		return fmt.Errorf("mode %s already entered", ID)
	}

	primary := t.cfg.Tools.PrimaryTool
	t.pending = make(map[string]bool)
	for _, preset := range t.cfg.ToolGroups {
		if _, err := t.tools.CreateFromPreset(preset); err != nil {
			return err
		}
		for _, tool := range preset.Tools {
			if tool.Name == primary {
				t.pending[preset.ID] = true
			}
		}
	}

	t.session.SetPrimaryToolID(primary)

	if len(t.pending) > 0 {
		t.subscription = t.tools.Subscribe(toolgroup.ViewportAdded, func(evt toolgroup.Event) {
			t.onViewportAdded(ctx, evt)
		})
	}

	t.entered = true
	t.log.Info("mode entered", "toolGroups", len(t.cfg.ToolGroups))
	return nil
}

func (t *TMTV) onViewportAdded(ctx context.Context, evt toolgroup.Event) {
	t.mu.Lock()
	if !t.pending[evt.ToolGroupID] {
		t.mu.Unlock()
		return
	}
	delete(t.pending, evt.ToolGroupID)
	if len(t.pending) == 0 && t.subscription != "" {
		t.tools.Unsubscribe(t.subscription)
		t.subscription = ""
	}
	t.mu.Unlock()

	opts := commands.Options{"toolName": t.cfg.Tools.PrimaryTool, "toolGroupId": evt.ToolGroupID}
	if _, err := t.dispatcher.Dispatch(ctx, "setToolActive", opts); err != nil {
		t.log.Error(err, "activating primary tool failed", "toolGroupId", evt.ToolGroupID)
	}
}

// Exit drops the subscription, resets the session and destroys every tool group.
func (t *TMTV) Exit() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.subscription != "" {
		t.tools.Unsubscribe(t.subscription)
		t.subscription = ""
	}
	t.pending = nil
	t.session.Reset()
	t.tools.Destroy()
	t.entered = false
	t.log.Info("mode exited")
}
