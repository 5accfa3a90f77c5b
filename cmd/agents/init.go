package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/catalog"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/presenter"
)

var initCmd = &cobra.Command{
	Use:   "init <agent-id>",
	Short: "Create a new agent specification from the built-in template",
	Long: `Create <agents_dir>/<domain>/<agent-id>.yaml from the built-in agent template.
Existing files are never overwritten.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := getInitOptionsFromFlags(cmd)

		path, err := catalog.Init(cfg.AgentsDir, args[0], opts)
		if err != nil {
			presenter.Error(err, "Failed to create agent")
			os.Exit(1)
		}

		presenter.Success(fmt.Sprintf("Created agent %s at %s", args[0], path))
		presenter.Info(fmt.Sprintf("Edit %s to customize the agent, then run `agents validate %s`", path, path))
	},
}

func init() {
	defaults := catalog.NewInitOptions()
	initCmd.Flags().String("domain", defaults.Domain, "Domain directory (engineering, data, ops, product, custom)")
	initCmd.Flags().String("name", defaults.Name, "Agent name (derived from the id when empty)")
	initCmd.Flags().String("owner", defaults.Owner, "Owner email")
}

func getInitOptionsFromFlags(cmd *cobra.Command) catalog.InitOptions {
	opts := catalog.NewInitOptions()

	if domain, err := cmd.Flags().GetString("domain"); err == nil {
		opts.Domain = domain
	}
	if name, err := cmd.Flags().GetString("name"); err == nil {
		opts.Name = name
	}
	if owner, err := cmd.Flags().GetString("owner"); err == nil {
		opts.Owner = owner
	}

	return opts
}
