/*
PURPOSE:
  Defines the configuration structure and loading logic for Judge Runner.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Configure the target and evaluator endpoints (URL, key, model name).
  - Each role independently overridable from the environment.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Environment lookups are injected so tests never mutate the process env.
  - Remote calls need a timeout and a bounded retry policy.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine
  - Dependencies: gopkg.in/yaml.v3, github.com/go-playground/validator/v10

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default config file is not an error (falls back to defaults).
  - Validate() reports every failing field at once.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (e.g., 5 concurrent calls, 2m timeout).

USAGE:
  cfg, err := config.Load("judge_runner.yaml")
  cfg.ApplyEnv(os.LookupEnv)
  err = cfg.Validate()

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/cli/run.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Parse failure policies.
const (
	PolicyExclude = "exclude"
	PolicyFail    = "fail"
)

// DefaultEvaluatorEndpoint is used when no evaluator endpoint is configured.
const DefaultEvaluatorEndpoint = "https://api.openai.com/v1"

// DefaultEvaluatorModel is used when no evaluator model is configured.
const DefaultEvaluatorModel = "gpt-4o"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Endpoint identifies one callable model.
type Endpoint struct {
	APIEndpoint string `yaml:"api_endpoint" validate:"required,url"`
	APIKey      string `yaml:"api_key"`
	ModelName   string `yaml:"model_name" validate:"required"`
	// RequestsPerMinute enables a client-side rate limit when > 0.
	RequestsPerMinute float64 `yaml:"requests_per_minute" validate:"gte=0"`
}

// RetryConfig controls retries of failed remote calls.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" validate:"gte=1"`
	InitialInterval time.Duration `yaml:"initial_interval" validate:"gte=0"`
	MaxInterval     time.Duration `yaml:"max_interval" validate:"gtefield=InitialInterval"`
	Multiplier      float64       `yaml:"multiplier" validate:"gte=1"`
	UseJitter       bool          `yaml:"use_jitter"`
}

// PromptConfig selects the rubric template.
type PromptConfig struct {
	Locale  string `yaml:"locale"`
	Version string `yaml:"version"`
	// File overrides the embedded template when set.
	File string `yaml:"file"`
}

// Config represents the full configuration for Judge Runner.
type Config struct {
	Target    Endpoint `yaml:"target"`
	Evaluator Endpoint `yaml:"evaluator"`

	Dataset string `yaml:"dataset" validate:"required"`
	// Limit keeps only the first N dataset rows when > 0.
	Limit       int `yaml:"limit" validate:"gte=0"`
	Concurrency int `yaml:"concurrency" validate:"gte=1"`

	OutputDir  string `yaml:"output_dir"`
	OutputFile string `yaml:"output_file" validate:"required"`
	ResultsCSV string `yaml:"results_csv"`

	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	Retry          RetryConfig   `yaml:"retry"`
	Prompt         PromptConfig  `yaml:"prompt"`

	OnParseFailure string `yaml:"on_parse_failure" validate:"oneof=exclude fail"`
	LogLevel       string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Evaluator: Endpoint{
			APIEndpoint: DefaultEvaluatorEndpoint,
			ModelName:   DefaultEvaluatorModel,
		},
		Dataset:        "test.csv",
		Concurrency:    5,
		OutputDir:      ".",
		OutputFile:     "results.json",
		RequestTimeout: 2 * time.Minute,
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 2 * time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
			UseJitter:       true,
		},
		Prompt: PromptConfig{
			Locale:  "ja",
			Version: "v1",
		},
		OnParseFailure: PolicyExclude,
		LogLevel:       "info",
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		found := false
		for _, name := range []string{"judge_runner.yaml", "runner.yaml"} {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				found = true
				break
			}
		}
		if !found {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides endpoint settings from <ROLE>_API_ENDPOINT,
// <ROLE>_API_KEY and <ROLE>_MODEL_NAME where ROLE is TARGET or EVALUATOR.
// A variable that is set but empty clears the setting.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if lookup == nil {
		return
	}
	applyEndpointEnv(&c.Target, "TARGET", lookup)
	applyEndpointEnv(&c.Evaluator, "EVALUATOR", lookup)
}

func applyEndpointEnv(ep *Endpoint, role string, lookup LookupFunc) {
	if v, ok := lookup(role + "_API_ENDPOINT"); ok {
		ep.APIEndpoint = v
	}
	if v, ok := lookup(role + "_API_KEY"); ok {
		ep.APIKey = v
	}
	if v, ok := lookup(role + "_MODEL_NAME"); ok {
		ep.ModelName = v
	}
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fieldPath(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// ReportPath is where the JSON report is written.
func (c *Config) ReportPath() string {
	return filepath.Join(c.OutputDir, c.OutputFile)
}

// ResultsCSVPath is where the per-item CSV is written, or "" when disabled.
func (c *Config) ResultsCSVPath() string {
	if c.ResultsCSV == "" {
		return ""
	}
	return filepath.Join(c.OutputDir, c.ResultsCSV)
}

// Mask returns a short preview of a secret that is safe to print.
// At most 10 characters and never more than half of the secret are shown.
func Mask(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	n := min(10, len(secret)/2)
	return secret[:n] + "..."
}
