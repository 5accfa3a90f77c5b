package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/presenter"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/spec"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/validation"
)

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	Verbose   bool
	CheckRefs bool
	Watch     bool
	JSON      bool
	Debounce  int
}

// NewValidateConfig creates a new ValidateConfig with default values
func NewValidateConfig() *ValidateConfig {
	return &ValidateConfig{
		Debounce: 300,
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate [paths...]",
	Short: "Validate agent and recipe specifications",
	Long: `Validate agent and recipe specifications against their schemas and the
semantic rules of recipe graphs.

Paths may be files or directories. Without paths the configured agents and
recipes directories are validated. The command exits with status 1 when any
document is invalid.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getValidateConfigFromFlags(cmd)

		roots := args
		if len(roots) == 0 {
			roots = defaultRoots(cfg.AgentsDir, cfg.RecipesDir)
		}
		if len(roots) == 0 {
			presenter.Error(errors.Errorf("neither %s nor %s exists", cfg.AgentsDir, cfg.RecipesDir), "Nothing to validate")
			os.Exit(1)
		}

		suite, err := newSuite(ctx, config.CheckRefs)
		if err != nil {
			presenter.Error(err, "Failed to load schemas")
			os.Exit(1)
		}

		if config.Watch {
			if config.JSON {
				presenter.Warning("--json is ignored in watch mode")
			}
			runValidateWatch(ctx, suite, roots, config)
			return
		}

		report, err := runValidate(ctx, suite, roots, config)
		if err != nil {
			presenter.Error(err, "Validation failed")
			os.Exit(1)
		}
		if report.Failed() {
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewValidateConfig()
	validateCmd.Flags().BoolP("verbose", "v", defaults.Verbose, "Show valid documents as well as invalid ones")
	validateCmd.Flags().Bool("check-refs", defaults.CheckRefs, "Check that recipes only reference existing agents")
	validateCmd.Flags().BoolP("watch", "w", defaults.Watch, "Re-validate documents when they change")
	validateCmd.Flags().Bool("json", defaults.JSON, "Output the report in JSON format")
	validateCmd.Flags().Int("debounce", defaults.Debounce, "Debounce time in milliseconds for file change events")
}

// getValidateConfigFromFlags extracts validate configuration from command flags
func getValidateConfigFromFlags(cmd *cobra.Command) *ValidateConfig {
	config := NewValidateConfig()

	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil {
		config.Verbose = verbose
	}
	if checkRefs, err := cmd.Flags().GetBool("check-refs"); err == nil {
		config.CheckRefs = checkRefs
	}
	if watch, err := cmd.Flags().GetBool("watch"); err == nil {
		config.Watch = watch
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSON = jsonOutput
	}
	if debounce, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.Debounce = debounce
	}

	return config
}

func runValidate(ctx context.Context, suite *validation.Suite, roots []string, config *ValidateConfig) (*validation.Report, error) {
	paths, err := spec.Discover(roots, cfg.DiscoverOptions())
	if err != nil {
		return nil, err
	}

	report := suite.ValidatePaths(ctx, paths)
	logger.G(ctx).WithField("total", report.Total).
		WithField("invalid", report.Invalid).
		Info("validation finished")

	if config.JSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "error generating JSON output")
		}
		fmt.Println(string(data))
		return report, nil
	}

	printReport(report, config.Verbose)
	return report, nil
}

func printReport(report *validation.Report, verbose bool) {
	for _, res := range report.Results {
		if res.Verdict.Valid {
			if verbose {
				presenter.Success(fmt.Sprintf("%s (%s)", res.Path, res.Kind))
			}
			continue
		}
		presenter.Failure(fmt.Sprintf("%s (%s)", res.Path, res.Kind), res.Verdict.Errors)
	}
	presenter.Separator()
	presenter.Summary(report.Total, report.Valid, report.Invalid)
}

func runValidateWatch(ctx context.Context, suite *validation.Suite, roots []string, config *ValidateConfig) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := runValidate(ctx, suite, roots, config); err != nil {
		presenter.Error(err, "Validation failed")
	}
	presenter.Info("Watching for changes, press Ctrl+C to stop")

	onChange := func(path string) {
		res := suite.ValidatePath(ctx, path)
		if res.Verdict.Valid {
			presenter.Success(fmt.Sprintf("%s (%s)", res.Path, res.Kind))
			return
		}
		presenter.Failure(fmt.Sprintf("%s (%s)", res.Path, res.Kind), res.Verdict.Errors)
	}

	if err := watchDocuments(ctx, roots, config.Debounce, onChange); err != nil {
		presenter.Error(err, "File watcher failed")
		os.Exit(1)
	}
}
