/*
PURPOSE:
  Defines the 'list-models' subcommand.
  Helps debug connectivity and model names before a full run.

REQUIREMENTS:
  Implementation-discovered:
  - Useful validation step before full run (wrong model names only show up
    as 404s halfway through generation otherwise).

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.ModelClient.ListModels()

ERROR HANDLING:
  - Reports the failing role and keeps going with the next one.

USAGE:
  judge-runner list-models --role target

RELATED FILES:
  - internal/engine/client.go
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/judge-runner/internal/config"
	"github.com/daryltucker/judge-runner/internal/engine"
)

var (
	roleFilter    string
	listTargetURL string
)

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List models served by the target and evaluator endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listTargetURL != "" {
			cfg.Target.APIEndpoint = listTargetURL
		}

		roles := []struct {
			name string
			ep   config.Endpoint
		}{
			{"target", cfg.Target},
			{"evaluator", cfg.Evaluator},
		}

		var failed int
		out := cmd.OutOrStdout()
		for _, role := range roles {
			if roleFilter != "" && roleFilter != role.name {
				continue
			}
			if role.ep.APIEndpoint == "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: no endpoint configured\n", role.name)
				failed++
				continue
			}

			fmt.Fprintf(out, "Querying %s (%s, key %s)...\n", role.name, role.ep.APIEndpoint, config.Mask(role.ep.APIKey))
			models, err := engine.NewModelClient(role.ep, cfg).ListModels(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				failed++
				continue
			}
			for _, m := range models {
				marker := " "
				if m == role.ep.ModelName {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, m)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d endpoint(s) could not be queried", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listModelsCmd)
	listModelsCmd.Flags().StringVar(&roleFilter, "role", "", "Only query one role: target or evaluator")
	listModelsCmd.Flags().StringVar(&listTargetURL, "target-url", "", "Target model API endpoint")
}
