package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/config"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/presenter"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/render"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/schemas"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/telemetry"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/validation"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/version"
)

var (
	cfg             = config.NewConfig()
	shutdownTracing = func(context.Context) error { return nil }
	configInitErr   error

	// persistentFlagKeys maps root flags to their configuration keys.
	persistentFlagKeys = map[string]string{
		"agents-dir":    "agents_dir",
		"recipes-dir":   "recipes_dir",
		"schemas-dir":   "schemas_dir",
		"templates-dir": "templates_dir",
		"log-level":     "log_level",
		"log-format":    "log_format",
	}
)

func init() {
	configInitErr = config.Init(viper.GetViper())
}

var rootCmd = &cobra.Command{
	Use:   "agents",
	Short: "Validate and render provider-neutral AI agent specifications",
	Long: `agents validates YAML agent and recipe specifications against their schemas
and renders them for Claude Code subagents, agentmesh Go programs and
OpenAI assistants.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return shutdownTracing(cmd.Context())
	},
}

func setup(cmd *cobra.Command, _ []string) error {
	if configInitErr != nil {
		return configInitErr
	}

	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = loaded

	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	ctx := logger.WithFields(cmd.Context(), logrus.Fields{
		"run_id":  uuid.NewString(),
		"command": cmd.Name(),
	})

	tracing := cfg.Tracing
	tracing.ServiceVersion = version.Version
	shutdown, err := telemetry.InitTracer(ctx, tracing)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("tracing disabled")
	} else {
		shutdownTracing = shutdown
	}

	cmd.SetContext(ctx)
	logger.G(ctx).WithField("agents_dir", cfg.AgentsDir).Debug("configuration loaded")
	return nil
}

// newSuite compiles the validators, adding the agent reference check when
// checkRefs is set.
func newSuite(ctx context.Context, checkRefs bool) (*validation.Suite, error) {
	store := schemas.NewStore(schemas.WithDir(cfg.SchemasDir))
	if !checkRefs {
		return validation.NewSuite(store)
	}

	known, err := knownAgents(ctx)
	if err != nil {
		return nil, err
	}
	return validation.NewSuite(store, validation.AgentReferences(known))
}

// knownAgents collects the ids and file stems of every agent document.
func knownAgents(ctx context.Context) (map[string]bool, error) {
	paths, err := spec.Discover([]string{cfg.AgentsDir}, cfg.DiscoverOptions())
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover agents for reference checks")
	}

	known := map[string]bool{}
	for _, p := range paths {
		known[strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))] = true
		s, err := spec.Load(p)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("path", p).Debug("skipping unreadable agent")
			continue
		}
		if id := s.ID(); id != "" {
			known[id] = true
		}
	}
	return known, nil
}

func newRenderer() (*render.Renderer, error) {
	var opts []render.Option
	if cfg.TemplatesDir != "" {
		opts = append(opts, render.WithTemplateDir(cfg.TemplatesDir))
	}
	return render.New(opts...)
}

// defaultRoots returns the configured directories that exist.
func defaultRoots(dirs ...string) []string {
	var roots []string
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			roots = append(roots, d)
		}
	}
	return roots
}

// bindFlags binds each flag of fs to its configuration key so that flags
// take precedence over the environment and the config file.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			return errors.Errorf("flag --%s is not defined", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "failed to bind --%s", flag)
		}
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().String("agents-dir", cfg.AgentsDir, "Directory holding agent specifications")
	rootCmd.PersistentFlags().String("recipes-dir", cfg.RecipesDir, "Directory holding recipe specifications")
	rootCmd.PersistentFlags().String("schemas-dir", cfg.SchemasDir, "Directory whose schema files override the built-in ones")
	rootCmd.PersistentFlags().String("templates-dir", cfg.TemplatesDir, "Directory whose <target>/ templates override the built-in ones")
	rootCmd.PersistentFlags().String("log-level", cfg.LogLevel, "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", cfg.LogFormat, "Log format (text, json)")

	if err := bindFlags(rootCmd.PersistentFlags(), persistentFlagKeys); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
	if err := bindFlags(installCmd.Flags(), map[string]string{"install-dir": "install_dir"}); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
