package workspace

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"viewercore/internal/models"
	"viewercore/pkg/commands"
)

// Step is one command of a script.
type Step struct {
	Command string         `yaml:"command"`
	Options map[string]any `yaml:"options,omitempty"`
}

// Script is an ordered list of commands plus the answers to any text
// prompts they raise.
type Script struct {
	Steps   []Step   `yaml:"steps"`
	Prompts []string `yaml:"prompts,omitempty"`
}

// StepResult records the outcome of one step.
type StepResult struct {
	Command string `yaml:"command"`
	Result  any    `yaml:"result,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

// LoadScript reads a script from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error parsing script: %w", err)
	}
	return &s, nil
}

// Run dispatches every step in order. A failing step is recorded and the
// script continues. Options may reference earlier results as "$<step index>".
func (w *Workspace) Run(ctx context.Context, script *Script) []StepResult {
	results := make([]StepResult, 0, len(script.Steps))
	raw := make([]any, 0, len(script.Steps))

	for _, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			results = append(results, StepResult{Command: step.Command, Error: err.Error()})
			raw = append(raw, nil)
			continue
		}

		opts, _ := substitute(step.Options, raw).(map[string]any)
		value, err := w.Registry.Dispatch(ctx, step.Command, commands.Options(opts))

		res := StepResult{Command: step.Command, Result: summarize(value)}
		if err != nil {
			res.Error = err.Error()
			w.log.Info("step failed", "command", step.Command, "error", err.Error())
		}
		results = append(results, res)
		raw = append(raw, value)
	}
	return results
}

// substitute replaces "$N" strings with the result of step N.
func substitute(v any, raw []any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = substitute(item, raw)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = substitute(item, raw)
		}
		return out
	case string:
		var idx int
		if n, err := fmt.Sscanf(t, "$%d", &idx); err == nil && n == 1 && fmt.Sprintf("$%d", idx) == t {
			if idx >= 0 && idx < len(raw) {
				return raw[idx]
			}
		}
		return t
	}
	return v
}

// VolumeSummary is the printable form of a volume.
type VolumeSummary struct {
	ID                 string `yaml:"id"`
	ReferencedVolumeID string `yaml:"referencedVolumeId,omitempty"`
	Dims               [3]int `yaml:"dims,flow"`
	Images             int    `yaml:"images"`
}

// summarize replaces voxel buffers with summaries so results print compactly.
func summarize(v any) any {
	switch t := v.(type) {
	case *models.Volume:
		return summarizeVolume(t)
	case []*models.Volume:
		out := make([]VolumeSummary, 0, len(t))
		for _, vol := range t {
			out = append(out, summarizeVolume(vol))
		}
		return out
	}
	return v
}

func summarizeVolume(vol *models.Volume) VolumeSummary {
	return VolumeSummary{
		ID:                 vol.ID,
		ReferencedVolumeID: vol.ReferencedVolumeID,
		Dims:               [3]int{vol.Width, vol.Height, vol.Depth},
		Images:             len(vol.ImageIDs),
	}
}
