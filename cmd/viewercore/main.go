package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"viewercore/pkg/commands"
	"viewercore/pkg/config"
	"viewercore/pkg/metrics"
	"viewercore/pkg/services"
	"viewercore/pkg/viewport"
	"viewercore/pkg/workspace"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `help:"Configuration file" type:"path" default:"viewercore.yaml"`
	LogFormat string `help:"Log format (json, console); overrides the config" enum:"json,console," default:""`
	Metrics   bool   `help:"Print gathered metrics after the command"`
}

type cli struct {
	Globals

	Commands CommandsCmd `cmd:"" help:"List registered commands and their default options"`
	Run      RunCmd      `cmd:"" help:"Run a scripted session against a study fixture"`
	Export   ExportCmd   `cmd:"" help:"Render every stack viewport of a study to JPEG files"`
	Cfg      ConfigGroup `cmd:"" name:"config" help:"Configuration file operations"`
}

var CLI cli

// ConfigGroup holds the configuration subcommands.
type ConfigGroup struct {
	Init ConfigInitCmd `cmd:"" help:"Write the default configuration"`
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration"`
}

// setup loads the configuration and builds the logger.
func (g *Globals) setup() (*config.Config, logr.Logger, func(), error) {
	cfg, err := config.LoadConfig(g.Config)
	if err != nil {
		return nil, logr.Discard(), func() {}, err
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Logging.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, logr.Discard(), func() {}, fmt.Errorf("invalid log level: %w", err)
	}
	zcfg.Level = level

	zl, err := zcfg.Build()
	if err != nil {
		return nil, logr.Discard(), func() {}, fmt.Errorf("failed to build logger: %w", err)
	}
	log := zapr.NewLogger(zl).WithName("viewercore")
	return cfg, log, func() { _ = zl.Sync() }, nil
}

// finish prints metrics when requested.
func (g *Globals) finish(cfg *config.Config) error {
	if !g.Metrics && !cfg.Metrics.Enabled {
		return nil
	}
	families, err := metrics.Registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	fmt.Println()
	printMetrics(families)
	return nil
}

func printMetrics(families []*dto.MetricFamily) {
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Printf("%s %g\n", name, m.GetCounter().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Printf("%s count=%d sum=%gs\n", name, h.GetSampleCount(), h.GetSampleSum())
			case dto.MetricType_GAUGE:
				fmt.Printf("%s %g\n", name, m.GetGauge().GetValue())
			}
		}
	}
}

// CommandsCmd lists the command table.
type CommandsCmd struct{}

func (c *CommandsCmd) Run(g *Globals) error {
	cfg, log, sync, err := g.setup()
	if err != nil {
		return err
	}
	defer sync()

	reg := commands.NewRegistry(log)
	if _, err := commands.Register(reg, commands.Services{Config: cfg, Log: log}); err != nil {
		return err
	}

	for _, name := range reg.Names() {
		def, _ := reg.Definition(name)
		if len(def.Options) == 0 {
			fmt.Println(name)
			continue
		}
		keys := make([]string, 0, len(def.Options))
		for k := range def.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, def.Options[k]))
		}
		fmt.Printf("%-42s %s\n", name, strings.Join(parts, " "))
	}
	return g.finish(cfg)
}

// RunCmd executes a script against a study.
type RunCmd struct {
	Study  string `help:"Study fixture (YAML)" type:"existingfile" required:""`
	Script string `help:"Session script (YAML)" type:"existingfile" required:""`
	Output string `help:"Directory for downloaded viewport images" type:"path" default:"captures"`
}

func (c *RunCmd) Run(g *Globals) error {
	cfg, log, sync, err := g.setup()
	if err != nil {
		return err
	}
	defer sync()

	fx, err := workspace.LoadFixture(c.Study)
	if err != nil {
		return err
	}
	script, err := workspace.LoadScript(c.Script)
	if err != nil {
		return err
	}

	ctx := context.Background()
	modals := workspace.NewCaptureModals(nil, c.Output, log.WithName("modals"))
	w, err := workspace.Build(ctx, fx, workspace.Options{
		Config:  cfg,
		Dialogs: workspace.NewScriptedDialogs(script.Prompts),
		Modals:  modals,
		Log:     log,
	})
	if err != nil {
		return fmt.Errorf("failed to build workspace: %w", err)
	}
	defer w.Close()
	modals.Attach(w.Grid)

	results := w.Run(ctx, script)

	out, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("error marshaling results: %w", err)
	}
	fmt.Print(string(out))

	for _, f := range modals.Saved() {
		fmt.Printf("# saved %s\n", f)
	}
	return g.finish(cfg)
}

// ExportCmd renders stack viewports to image sequences.
type ExportCmd struct {
	Study  string `help:"Study fixture (YAML)" type:"existingfile" required:""`
	Output string `help:"Output directory" type:"path" default:"export"`
}

func (c *ExportCmd) Run(g *Globals) error {
	cfg, log, sync, err := g.setup()
	if err != nil {
		return err
	}
	defer sync()

	fx, err := workspace.LoadFixture(c.Study)
	if err != nil {
		return err
	}
	w, err := workspace.Build(context.Background(), fx, workspace.Options{Config: cfg, Log: log})
	if err != nil {
		return fmt.Errorf("failed to build workspace: %w", err)
	}
	defer w.Close()

	for _, s := range w.Grid.Surfaces() {
		vp, ok := services.AsStack(s.Viewport)
		if !ok {
			continue
		}
		files, err := viewport.SaveStack(vp, filepath.Join(c.Output, s.ViewportID))
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", s.ViewportID, err)
		}
		fmt.Printf("%s: %d images\n", s.ViewportID, len(files))
	}
	return g.finish(cfg)
}

// ConfigInitCmd writes the default configuration.
type ConfigInitCmd struct {
	Path string `arg:"" help:"Destination file" type:"path"`
}

func (c *ConfigInitCmd) Run(g *Globals) error {
	if err := config.CreateDefaultConfigFile(c.Path); err != nil {
		return err
	}
	fmt.Printf("Default configuration written to %s\n", c.Path)
	return nil
}

// ConfigShowCmd prints the effective configuration.
type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(g *Globals) error {
	cfg, err := config.LoadConfig(g.Config)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func newParser(c *cli, options ...kong.Option) (*kong.Kong, error) {
	return kong.New(c, append([]kong.Option{
		kong.Name("viewercore"),
		kong.Description("Command core of a medical image viewer: scripted sessions over study fixtures"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}, options...)...)
}

func main() {
	parser, err := newParser(&CLI)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
