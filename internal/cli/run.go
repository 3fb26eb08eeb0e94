/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes the full benchmark: generate answers, score them, write the report.

REQUIREMENTS:
  User-specified:
  - Run the benchmark.
  - Specific flags for overrides.

  Implementation-discovered:
  - Need to load config first (file, then environment).
  - Apply flag overrides to config last.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Run()
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load fails or engine run fails.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Env -> Override -> Engine.Run.

USAGE:
  judge-runner run --dataset test.csv --target-model my-model

RELATED FILES:
  - internal/cli/root.go
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/daryltucker/judge-runner/internal/engine"
)

var (
	datasetOverride     string
	outputOverride      string
	outputFileOverride  string
	resultsCSVOverride  string
	limitOverride       int
	concurrencyOverride int
	targetURLOverride   string
	targetModelOverride string
	promptFileOverride  string
	localeOverride      string
	policyOverride      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark",
	Long: `Runs the benchmark in two phases:
1. Generation: every dataset input is sent verbatim to the target model.
2. Evaluation: every answer is scored 1-5 by the evaluator model using the rubric template.

Both phases keep at most --concurrency calls in flight. Any remote error that
survives the retry policy aborts the run and no report is written.

Endpoints are read from the config file and from TARGET_API_ENDPOINT,
TARGET_API_KEY, TARGET_MODEL_NAME, EVALUATOR_API_ENDPOINT, EVALUATOR_API_KEY
and EVALUATOR_MODEL_NAME.`,
	Example: `  # Run with defaults (uses judge_runner.yaml and test.csv)
  judge-runner run

  # Benchmark a local OpenAI-compatible server on the first 10 rows
  TARGET_API_ENDPOINT=http://localhost:8000/v1 judge-runner run --target-model qwen2.5-7b --limit 10

  # Score with the English rubric and fail on unparseable judge replies
  judge-runner run --locale en --on-parse-failure fail

  # Also write a CSV next to the JSON report
  judge-runner run -o ./reports --results-csv results.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if datasetOverride != "" {
			cfg.Dataset = datasetOverride
		}
		if outputOverride != "" {
			cfg.OutputDir = outputOverride
		}
		if outputFileOverride != "" {
			cfg.OutputFile = outputFileOverride
		}
		if resultsCSVOverride != "" {
			cfg.ResultsCSV = resultsCSVOverride
		}
		if cmd.Flags().Changed("limit") {
			cfg.Limit = limitOverride
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Concurrency = concurrencyOverride
		}
		if targetURLOverride != "" {
			cfg.Target.APIEndpoint = targetURLOverride
		}
		if targetModelOverride != "" {
			cfg.Target.ModelName = targetModelOverride
		}
		if promptFileOverride != "" {
			cfg.Prompt.File = promptFileOverride
		}
		if localeOverride != "" {
			cfg.Prompt.Locale = localeOverride
		}
		if policyOverride != "" {
			cfg.OnParseFailure = policyOverride
		}

		return engine.Run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&datasetOverride, "dataset", "d", "", "Path to the dataset CSV (columns: input, output, eval_aspect)")
	runCmd.Flags().StringVarP(&outputOverride, "output-dir", "o", "", "Output directory for the report")
	runCmd.Flags().StringVar(&outputFileOverride, "output-file", "", "Report file name (default results.json)")
	runCmd.Flags().StringVar(&resultsCSVOverride, "results-csv", "", "Also write per-item results to this CSV file name")
	runCmd.Flags().IntVar(&limitOverride, "limit", 0, "Only use the first N dataset rows (0 = all)")
	runCmd.Flags().IntVarP(&concurrencyOverride, "concurrency", "c", 0, "Maximum concurrent model calls per phase")
	runCmd.Flags().StringVar(&targetURLOverride, "target-url", "", "Target model API endpoint")
	runCmd.Flags().StringVar(&targetModelOverride, "target-model", "", "Target model name")
	runCmd.Flags().StringVarP(&promptFileOverride, "prompt-file", "p", "", "Rubric template file (overrides the embedded template)")
	runCmd.Flags().StringVar(&localeOverride, "locale", "", "Embedded rubric locale (ja, en)")
	runCmd.Flags().StringVar(&policyOverride, "on-parse-failure", "", "What to do with non-numeric judge replies: exclude or fail")
}
