package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/install"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/presenter"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/render"
)

var installCmd = &cobra.Command{
	Use:   "install [documents...]",
	Short: "Install rendered subagent documents into Claude Code",
	Long: `Copy rendered subagent documents into the Claude Code agents directory
(install_dir, ~/.claude/agents by default). Without arguments every document in
<output_dir>/claude is installed. Documents whose frontmatter does not parse
are rejected.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		paths := args
		if len(paths) == 0 {
			matches, err := filepath.Glob(filepath.Join(cfg.OutputDir, string(render.TargetClaude), "*.md"))
			if err != nil {
				presenter.Error(err, "Failed to find rendered documents")
				os.Exit(1)
			}
			paths = matches
		}
		if len(paths) == 0 {
			presenter.Error(errors.New("no rendered documents found"), "Run `agents render claude` first")
			os.Exit(1)
		}

		installed, err := install.New(cfg.InstallDir).InstallFiles(ctx, paths)
		for _, p := range installed {
			presenter.Success("Installed " + p)
		}
		if err != nil {
			presenter.Error(err, "Some documents were not installed")
			os.Exit(1)
		}
	},
}

func init() {
	installCmd.Flags().String("install-dir", cfg.InstallDir, "Claude Code agents directory")
}
