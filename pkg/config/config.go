// Package config provides configuration loading and management for viewercore.
// It handles loading configuration from YAML files, environment overrides and
// provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. VIEWERCORE_LOGGING_LEVEL.
const EnvPrefix = "VIEWERCORE"

// ToolPreset configures one tool inside a tool group preset.
type ToolPreset struct {
	// Name is the registered tool name, e.g. "WindowLevel"
	Name string `yaml:"name" mapstructure:"name"`

	// Mode is one of Active, Passive, Enabled, Disabled
	Mode string `yaml:"mode" mapstructure:"mode"`

	// MouseButtons lists the mouse bindings for an Active tool (1 primary, 2 secondary, 4 auxiliary)
	MouseButtons []int `yaml:"mouseButtons,omitempty" mapstructure:"mouseButtons"`
}

// ToolGroupPreset configures a tool group created on mode entry.
type ToolGroupPreset struct {
	ID    string       `yaml:"id" mapstructure:"id"`
	Tools []ToolPreset `yaml:"tools" mapstructure:"tools"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Viewer parameters
	Viewer struct {
		// RenderingEngineID names the rendering engine every viewport is attached to
		RenderingEngineID string `yaml:"renderingEngineId" mapstructure:"renderingEngineId"`

		// ZoomInFactor multiplies the parallel scale on scale-up
		ZoomInFactor float64 `yaml:"zoomInFactor" mapstructure:"zoomInFactor"`

		// ZoomOutFactor multiplies the parallel scale on scale-down
		ZoomOutFactor float64 `yaml:"zoomOutFactor" mapstructure:"zoomOutFactor"`

		// VOILowerPercentile and VOIUpperPercentile pick the default window from volume intensities
		VOILowerPercentile float64 `yaml:"voiLowerPercentile" mapstructure:"voiLowerPercentile"`
		VOIUpperPercentile float64 `yaml:"voiUpperPercentile" mapstructure:"voiUpperPercentile"`
	} `yaml:"viewer" mapstructure:"viewer"`

	// Tool parameters
	Tools struct {
		// PrimaryTool is recorded as the toolbar's primary tool on mode entry
		PrimaryTool string `yaml:"primaryTool" mapstructure:"primaryTool"`

		// CrosshairsTool is the tool toggled by toggleCrosshairs
		CrosshairsTool string `yaml:"crosshairsTool" mapstructure:"crosshairsTool"`
	} `yaml:"tools" mapstructure:"tools"`

	// Mode parameters
	Mode struct {
		// RequiredModalities must all be present in a study for the mode to be valid
		RequiredModalities []string `yaml:"requiredModalities" mapstructure:"requiredModalities"`

		// ExcludedModalities must all be absent
		ExcludedModalities []string `yaml:"excludedModalities" mapstructure:"excludedModalities"`
	} `yaml:"mode" mapstructure:"mode"`

	// ToolGroups are created when the mode is entered
	ToolGroups []ToolGroupPreset `yaml:"toolGroups" mapstructure:"toolGroups"`

	// Logging parameters
	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level" mapstructure:"level"`

		// Format is json or console
		Format string `yaml:"format" mapstructure:"format"`
	} `yaml:"logging" mapstructure:"logging"`

	// Metrics parameters
	Metrics struct {
		// Enabled prints gathered metrics after a CLI run
		Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	} `yaml:"metrics" mapstructure:"metrics"`
}

// Tool group ids of the TMTV hanging protocol.
const (
	ToolGroupCT     = "ctToolGroup"
	ToolGroupPT     = "ptToolGroup"
	ToolGroupFusion = "fusionToolGroup"
	ToolGroupMIP    = "mipToolGroup"
)

// DefaultToolGroups returns the CT, PT, fusion and MIP tool group presets.
func DefaultToolGroups() []ToolGroupPreset {
	viewTools := func() []ToolPreset {
		return []ToolPreset{
			{Name: "WindowLevel", Mode: "Active", MouseButtons: []int{1}},
			{Name: "Pan", Mode: "Active", MouseButtons: []int{4}},
			{Name: "Zoom", Mode: "Active", MouseButtons: []int{2}},
			{Name: "StackScrollMouseWheel", Mode: "Active"},
			{Name: "Crosshairs", Mode: "Passive"},
			{Name: "Length", Mode: "Passive"},
			{Name: "Bidirectional", Mode: "Passive"},
			{Name: "EllipticalROI", Mode: "Passive"},
		}
	}

	return []ToolGroupPreset{
		{ID: ToolGroupCT, Tools: viewTools()},
		{ID: ToolGroupPT, Tools: viewTools()},
		{ID: ToolGroupFusion, Tools: viewTools()},
		{ID: ToolGroupMIP, Tools: []ToolPreset{
			{Name: "VolumeRotateMouseWheel", Mode: "Active"},
			{Name: "MIPJumpToClick", Mode: "Active", MouseButtons: []int{1}},
		}},
	}
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Viewer.RenderingEngineID = "OHIFCornerstoneRenderingEngine"
	cfg.Viewer.ZoomInFactor = 0.9
	cfg.Viewer.ZoomOutFactor = 1.1
	cfg.Viewer.VOILowerPercentile = 0.01
	cfg.Viewer.VOIUpperPercentile = 0.99

	cfg.Tools.PrimaryTool = "WindowLevel"
	cfg.Tools.CrosshairsTool = "Crosshairs"

	cfg.Mode.RequiredModalities = []string{"CT", "PT"}
	cfg.Mode.ExcludedModalities = []string{"SM"}

	cfg.ToolGroups = DefaultToolGroups()

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"

	cfg.Metrics.Enabled = false

	return cfg
}

// Validate checks value ranges that would make commands misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Viewer.ZoomInFactor <= 0 || c.Viewer.ZoomOutFactor <= 0 {
		errs = append(errs, fmt.Errorf("viewer zoom factors must be positive"))
	}
	if c.Viewer.VOILowerPercentile < 0 || c.Viewer.VOIUpperPercentile > 1 ||
		c.Viewer.VOILowerPercentile >= c.Viewer.VOIUpperPercentile {
		errs = append(errs, fmt.Errorf("viewer VOI percentiles must satisfy 0 <= lower < upper <= 1"))
	}
	if c.Tools.PrimaryTool == "" {
		errs = append(errs, fmt.Errorf("tools.primaryTool must be set"))
	}
	seen := map[string]bool{}
	for _, tg := range c.ToolGroups {
		if tg.ID == "" {
			errs = append(errs, fmt.Errorf("tool group preset without id"))
			continue
		}
		if seen[tg.ID] {
			errs = append(errs, fmt.Errorf("duplicate tool group preset %q", tg.ID))
		}
		seen[tg.ID] = true
	}
	return errors.Join(errs...)
}

// LoadConfig loads configuration from a YAML file and VIEWERCORE_* environment
// variables. If the file doesn't exist, the defaults (plus environment) are used.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// lists from the file replace the defaults rather than merging element-wise
	if v.IsSet("toolGroups") {
		cfg.ToolGroups = nil
	}
	if v.IsSet("mode.requiredModalities") {
		cfg.Mode.RequiredModalities = nil
	}
	if v.IsSet("mode.excludedModalities") {
		cfg.Mode.ExcludedModalities = nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers the scalar keys so AutomaticEnv can override them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("viewer.renderingEngineId", cfg.Viewer.RenderingEngineID)
	v.SetDefault("viewer.zoomInFactor", cfg.Viewer.ZoomInFactor)
	v.SetDefault("viewer.zoomOutFactor", cfg.Viewer.ZoomOutFactor)
	v.SetDefault("viewer.voiLowerPercentile", cfg.Viewer.VOILowerPercentile)
	v.SetDefault("viewer.voiUpperPercentile", cfg.Viewer.VOIUpperPercentile)
	v.SetDefault("tools.primaryTool", cfg.Tools.PrimaryTool)
	v.SetDefault("tools.crosshairsTool", cfg.Tools.CrosshairsTool)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
