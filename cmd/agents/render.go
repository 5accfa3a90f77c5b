package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/install"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/presenter"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/render"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
)

// RenderConfig holds configuration for the render command
type RenderConfig struct {
	AgentID   string
	OutputDir string
	Install   bool
	Check     bool
	Preview   bool
}

// NewRenderConfig creates a new RenderConfig with default values
func NewRenderConfig() *RenderConfig {
	return &RenderConfig{}
}

// Validate rejects flag combinations that cannot work for target.
func (c *RenderConfig) Validate(target render.Target) error {
	if (c.Install || c.Preview) && target != render.TargetClaude {
		return errors.Errorf("--install and --preview only apply to the %s target", render.TargetClaude)
	}
	if c.Check && (c.Install || c.Preview) {
		return errors.New("--check cannot be combined with --install or --preview")
	}
	return nil
}

var renderCmd = &cobra.Command{
	Use:   "render <target> [paths...]",
	Short: "Render specifications for a runtime target",
	Long: `Render agent specifications for a runtime target:

  claude      Claude Code subagent documents (<id>.md)
  agentmesh   Go programs built on agentmesh, with go.mod and main.go
  assistants  OpenAI assistant configurations (<id>_assistant.json)

Without paths the configured agents directory is rendered; the agentmesh
target also renders the recipes directory. Files are written to
<output_dir>/<target> unless --output-dir is given.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		target := render.Target(args[0])
		config := getRenderConfigFromFlags(cmd, target)

		if err := config.Validate(target); err != nil {
			presenter.Error(err, "Invalid flags")
			os.Exit(1)
		}

		if err := runRender(ctx, target, args[1:], config); err != nil {
			presenter.Error(err, "Render failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewRenderConfig()
	renderCmd.Flags().String("agent-id", defaults.AgentID, "Render only the agent with this id or file name")
	renderCmd.Flags().StringP("output-dir", "o", defaults.OutputDir, "Directory to write generated files into")
	renderCmd.Flags().Bool("install", defaults.Install, "Install generated subagent documents into the Claude Code agents directory")
	renderCmd.Flags().Bool("check", defaults.Check, "Report differences against the files in the output directory instead of writing")
	renderCmd.Flags().Bool("preview", defaults.Preview, "Print the generated documents to the terminal instead of writing them")
}

// getRenderConfigFromFlags extracts render configuration from command flags
func getRenderConfigFromFlags(cmd *cobra.Command, target render.Target) *RenderConfig {
	config := NewRenderConfig()

	if agentID, err := cmd.Flags().GetString("agent-id"); err == nil {
		config.AgentID = agentID
	}
	if outputDir, err := cmd.Flags().GetString("output-dir"); err == nil {
		config.OutputDir = outputDir
	}
	if install, err := cmd.Flags().GetBool("install"); err == nil {
		config.Install = install
	}
	if check, err := cmd.Flags().GetBool("check"); err == nil {
		config.Check = check
	}
	if preview, err := cmd.Flags().GetBool("preview"); err == nil {
		config.Preview = preview
	}

	if config.OutputDir == "" {
		config.OutputDir = filepath.Join(cfg.OutputDir, string(target))
	}

	return config
}

func runRender(ctx context.Context, target render.Target, roots []string, config *RenderConfig) error {
	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	if len(roots) == 0 {
		roots = defaultRoots(cfg.AgentsDir)
		if target == render.TargetAgentMesh {
			roots = defaultRoots(cfg.AgentsDir, cfg.RecipesDir)
		}
	}
	if len(roots) == 0 {
		return errors.Errorf("nothing to render: %s does not exist", cfg.AgentsDir)
	}

	paths, err := spec.Discover(roots, cfg.DiscoverOptions())
	if err != nil {
		return err
	}
	if config.AgentID != "" {
		paths, err = selectAgent(paths, config.AgentID)
		if err != nil {
			return err
		}
	}

	switch {
	case config.Preview:
		return previewRender(ctx, renderer, paths, target)
	case config.Check:
		return checkRender(ctx, renderer, paths, target, config.OutputDir)
	}

	res, renderErr := renderer.RenderFiles(ctx, paths, target, config.OutputDir)
	if res == nil {
		return renderErr
	}
	for _, p := range res.Written {
		presenter.Success(p)
	}
	if res.Manifest != "" {
		presenter.Info(fmt.Sprintf("Module manifest: %s", res.Manifest))
	}

	if config.Install && len(res.Written) > 0 {
		installed, err := install.New(cfg.InstallDir).InstallFiles(ctx, res.Written)
		for _, p := range installed {
			presenter.Success("Installed " + p)
		}
		if err != nil {
			renderErr = appendError(renderErr, err)
		}
	}

	return renderErr
}

// selectAgent keeps the path whose file name or id is id.
func selectAgent(paths []string, id string) ([]string, error) {
	for _, p := range paths {
		if strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)) == id {
			return []string{p}, nil
		}
	}
	for _, p := range paths {
		if s, err := spec.Load(p); err == nil && s.ID() == id {
			return []string{p}, nil
		}
	}
	return nil, errors.Errorf("agent %q not found", id)
}

func previewRender(ctx context.Context, renderer *render.Renderer, paths []string, target render.Target) error {
	outputs, renderErr := renderer.RenderPaths(ctx, paths, target)

	term, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return errors.Wrap(err, "failed to create terminal renderer")
	}

	for _, o := range outputs {
		out, err := term.Render(string(o.Content))
		if err != nil {
			logger.G(ctx).WithError(err).Warn("failed to style preview, printing raw document")
			out = string(o.Content)
		}
		presenter.Section(o.Name)
		fmt.Print(out)
	}
	return renderErr
}

func checkRender(ctx context.Context, renderer *render.Renderer, paths []string, target render.Target, outDir string) error {
	outputs, renderErr := renderer.RenderPaths(ctx, paths, target)
	if errors.Is(renderErr, render.ErrUnknownTarget) {
		return renderErr
	}

	diffs, err := render.Drift(outDir, outputs)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(diffs))
	for name := range diffs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		presenter.Warning(name + " is out of date")
		fmt.Print(diffs[name])
	}

	if len(diffs) > 0 {
		renderErr = appendError(renderErr, errors.Errorf("%d generated files are out of date in %s", len(diffs), outDir))
	} else {
		presenter.Success(fmt.Sprintf("%d generated files are up to date", len(outputs)))
	}
	return renderErr
}

func appendError(existing, err error) error {
	return multierror.Append(existing, err).ErrorOrNil()
}
