/*
PURPOSE:
  Defines the root Cobra command for the Judge Runner CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Ctrl-C must cancel in-flight model calls, not kill the process mid-write.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/judge-runner/main.go
  - Calls: Child commands (run, list-models, prompts)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

RELATED FILES:
  - cmd/judge-runner/main.go
*/

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daryltucker/judge-runner/internal/config"
	"github.com/daryltucker/judge-runner/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string
	// logLevel overrides log_level from the config file
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "judge-runner",
		Short: "Benchmark a language model with another model as judge",
		Long: `Generates answers from a target model for every row of a dataset, scores
each answer with an evaluator model using a rubric prompt, and writes the mean
score and per-item detail to a JSON report. Use 'run --help' for options.`,
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./judge_runner.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig loads the config file, applies environment overrides and the
// global log level. Subcommands apply their own flag overrides afterwards.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	output.SetLevel(cfg.LogLevel)
	return cfg, nil
}
