package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/catalog"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/presenter"
)

// ListConfig holds configuration for the list command
type ListConfig struct {
	Domain     string
	Tag        string
	JSONOutput bool
}

// NewListConfig creates a new ListConfig with default values
func NewListConfig() *ListConfig {
	return &ListConfig{}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available agents",
	Long:  `List the agents of the configured agents directory with their domain, version and tags.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getListConfigFromFlags(cmd)
		if err := runList(cmd.Context(), config); err != nil {
			presenter.Error(err, "Failed to list agents")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewListConfig()
	listCmd.Flags().String("domain", defaults.Domain, "Filter by domain (the agent's parent directory)")
	listCmd.Flags().String("tag", defaults.Tag, "Filter by tag")
	listCmd.Flags().Bool("json", defaults.JSONOutput, "Output in JSON format")
}

// getListConfigFromFlags extracts list configuration from command flags
func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()

	if domain, err := cmd.Flags().GetString("domain"); err == nil {
		config.Domain = domain
	}
	if tag, err := cmd.Flags().GetString("tag"); err == nil {
		config.Tag = tag
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}

	return config
}

func runList(ctx context.Context, config *ListConfig) error {
	entries, err := catalog.List(ctx, []string{cfg.AgentsDir}, cfg.DiscoverOptions(), catalog.Filter{
		Domain: config.Domain,
		Tag:    config.Tag,
	})
	if err != nil {
		if entries == nil {
			return err
		}
		presenter.Warning(err.Error())
	}

	format := catalog.TableFormat
	if config.JSONOutput {
		format = catalog.JSONFormat
	}
	return catalog.NewListOutput(entries, format).Render(os.Stdout)
}
