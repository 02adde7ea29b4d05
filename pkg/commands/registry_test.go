package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"viewercore/pkg/metrics"
)

func counterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	m := &dto.Metric{}
	if err := cv.WithLabelValues(labels...).Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestDispatchUnknownCommand(t *testing.T) {
	h := newHarness(t)
	before := counterValue(metrics.CommandsTotal, "setToolActiv", metrics.OutcomeNotFound)

	v, err := h.reg.Dispatch(context.Background(), "setToolActiv", nil)
	if v != nil {
		t.Errorf("Expected no value, got %v", v)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected *NotFoundError, got %v", err)
	}
	if nf.Suggestion != "setToolActive" {
		t.Errorf("Expected suggestion setToolActive, got %q", nf.Suggestion)
	}
	if !errors.Is(err, ErrCommandNotFound) || !IsNotFound(err) {
		t.Errorf("Expected error to match ErrCommandNotFound")
	}
	if got := counterValue(metrics.CommandsTotal, "setToolActiv", metrics.OutcomeNotFound); got != before+1 {
		t.Errorf("Expected not_found counter %f, got %f", before+1, got)
	}

	_, err = h.reg.Dispatch(context.Background(), "zzzzzzzzzzzzzzzzzzzzzz", nil)
	if !errors.As(err, &nf) || nf.Suggestion != "" {
		t.Errorf("Expected no suggestion for an unrelated name, got %v", err)
	}
}

func TestNamesAreCaseSensitive(t *testing.T) {
	h := newHarness(t)
	if _, err := h.reg.Dispatch(context.Background(), "ToggleCine", nil); !IsNotFound(err) {
		t.Errorf("Expected ToggleCine to be unknown, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry(logr.Discard())
	noop := func(ctx context.Context, opts Options) (any, error) { return nil, nil }

	if err := r.Register(Definition{Name: "a", Fn: noop}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if err := r.Register(Definition{Name: "a", Fn: noop}); !errors.Is(err, ErrDuplicateCommand) {
		t.Errorf("Expected ErrDuplicateCommand, got %v", err)
	}
	if err := r.Register(Definition{Name: "b"}); err == nil {
		t.Errorf("Expected an error for a definition without a handler")
	}
}

func TestDefinitionDefaults(t *testing.T) {
	h := newHarness(t)

	want := map[string]map[string]any{
		"rotateViewportCW":    {"rotation": 90},
		"rotateViewportCCW":   {"rotation": -90},
		"scaleUpViewport":     {"direction": 1},
		"scaleDownViewport":   {"direction": -1},
		"fitViewportToWindow": {"direction": 0},
		"nextImage":           {"direction": 1},
		"previousImage":       {"direction": -1},
		"setToolActive":       {},
	}
	for name, defaults := range want {
		def, ok := h.reg.Definition(name)
		if !ok {
			t.Errorf("Expected definition %s", name)
			continue
		}
		if len(def.Options) != len(defaults) {
			t.Errorf("%s: expected %d defaults, got %v", name, len(defaults), def.Options)
		}
		for k, v := range defaults {
			if def.Options[k] != v {
				t.Errorf("%s: expected %s=%v, got %v", name, k, v, def.Options[k])
			}
		}
	}

	if got := len(h.reg.Names()); got != 24 {
		t.Errorf("Expected 24 commands, got %d", got)
	}
}

func TestDefaultsAreNotMutatedByCallers(t *testing.T) {
	r := NewRegistry(logr.Discard())
	r.Register(Definition{
		Name:    "echo",
		Options: Options{"n": 1},
		Fn: func(ctx context.Context, opts Options) (any, error) {
			opts["n"] = 99
			return opts["n"], nil
		},
	})

	r.Dispatch(context.Background(), "echo", nil)

	def, _ := r.Definition("echo")
	if def.Options["n"] != 1 {
		t.Errorf("Expected default n=1 to survive, got %v", def.Options["n"])
	}
}

func TestDispatchCallerOptionsWin(t *testing.T) {
	h := newHarness(t)

	h.dispatch(t, "rotateViewportCW", Options{"rotation": 45})

	if got := h.ct.Properties().Rotation; got != 45 {
		t.Errorf("Expected rotation 45, got %f", got)
	}
}

func TestDispatchCancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.reg.Dispatch(ctx, "rotateViewportCW", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if got := h.ct.Properties().Rotation; got != 0 {
		t.Errorf("Expected no rotation after a cancelled dispatch, got %f", got)
	}
}

func TestDispatchAsync(t *testing.T) {
	h := newHarness(t)

	results := []<-chan Result{
		h.reg.DispatchAsync(context.Background(), "rotateViewportCW", nil),
		h.reg.DispatchAsync(context.Background(), "rotateViewportCW", nil),
		h.reg.DispatchAsync(context.Background(), "toggleCine", nil),
	}
	for _, ch := range results {
		res := <-ch
		if res.Err != nil {
			t.Errorf("Expected no error, got %v", res.Err)
		}
		if _, open := <-ch; open {
			t.Errorf("Expected channel to be closed after the result")
		}
	}

	if got := h.ct.Properties().Rotation; got != 180 {
		t.Errorf("Expected two serialized rotations to give 180, got %f", got)
	}
}

func TestDispatchRecordsOutcome(t *testing.T) {
	h := newHarness(t)
	okBefore := counterValue(metrics.CommandsTotal, "toggleCine", metrics.OutcomeOK)
	errBefore := counterValue(metrics.CommandsTotal, "setWindowLevel", metrics.OutcomeError)

	h.dispatch(t, "toggleCine", nil)
	h.reg.Dispatch(context.Background(), "setWindowLevel", Options{"windowLevel": map[string]any{"window": "wide", "level": 1}})

	if got := counterValue(metrics.CommandsTotal, "toggleCine", metrics.OutcomeOK); got != okBefore+1 {
		t.Errorf("Expected ok counter %f, got %f", okBefore+1, got)
	}
	if got := counterValue(metrics.CommandsTotal, "setWindowLevel", metrics.OutcomeError); got != errBefore+1 {
		t.Errorf("Expected error counter %f, got %f", errBefore+1, got)
	}
}
