/*
PURPOSE:
  Defines the 'prompts' subcommand group.
  Lists, prints and exports the embedded rubric templates.

REQUIREMENTS:
  Implementation-discovered:
  - Scoring policy changes should not need a rebuild: templates are exported,
    edited, then passed back with 'run --prompt-file'.

ARCHITECTURE INTEGRATION:
  - Uses: internal/prompt (List, Builtin), internal/output.Logger

ERROR HANDLING:
  - A template that fails to write is logged and counted; install fails if any were skipped.

USAGE:
  judge-runner prompts list
  judge-runner prompts show ja
  judge-runner prompts install ./prompts

RELATED FILES:
  - internal/assets/prompts/
  - internal/prompt/prompt.go
*/

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daryltucker/judge-runner/internal/output"
	"github.com/daryltucker/judge-runner/internal/prompt"
)

var promptVersion string

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect and export the embedded rubric templates",
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List embedded rubric templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := prompt.List()
		if err != nil {
			return fmt.Errorf("failed to read embedded templates: %w", err)
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show [locale]",
	Short: "Print an embedded rubric template",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		locale := "ja"
		if len(args) == 1 {
			locale = args[0]
		}
		tmpl, err := prompt.Builtin(locale, promptVersion)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tmpl.Text())
		return nil
	},
}

var promptsInstallCmd = &cobra.Command{
	Use:   "install <dir>",
	Short: "Copy the embedded rubric templates to a directory for editing",
	Long: `Writes every embedded template to <dir>/<locale>/<version>.tmpl.
Edit a copy and pass it to 'run --prompt-file' to change the scoring policy
without rebuilding.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetDir := args[0]
		output.Logger.Info("Installing rubric templates...", "target", targetDir)

		ids, err := prompt.List()
		if err != nil {
			return fmt.Errorf("failed to read embedded templates: %w", err)
		}

		count := 0
		for _, id := range ids {
			locale, version, _ := strings.Cut(id, "/")
			tmpl, err := prompt.Builtin(locale, version)
			if err != nil {
				output.Logger.Error("Failed to read embedded template", "template", id, "error", err)
				continue
			}

			targetPath := filepath.Join(targetDir, locale, version+".tmpl")
			if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
				return fmt.Errorf("failed to create target directory %s: %w", filepath.Dir(targetPath), err)
			}
			if err := os.WriteFile(targetPath, []byte(tmpl.Text()+"\n"), 0o644); err != nil {
				output.Logger.Error("Failed to write to target", "path", targetPath, "error", err)
				continue
			}

			output.Logger.Info("Installed template", "name", id, "sha256", tmpl.SHA256())
			count++
		}

		output.Logger.Info("Installation Complete", "total_files", count)
		if count != len(ids) {
			return fmt.Errorf("installed %d of %d templates", count, len(ids))
		}
		return nil
	},
}

func init() {
	promptsShowCmd.Flags().StringVar(&promptVersion, "version", "v1", "Template version")
	promptsCmd.AddCommand(promptsListCmd, promptsShowCmd, promptsInstallCmd)
	rootCmd.AddCommand(promptsCmd)
}
