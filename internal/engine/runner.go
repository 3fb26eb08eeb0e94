/*
PURPOSE:
  High-level runner that orchestrates the benchmark.
  Dataset -> answer generation -> judge scoring -> aggregate -> report.

REQUIREMENTS:
  User-specified:
  - Generate every answer with the target model, then score every answer
    with the evaluator model, both with a capped number of concurrent calls.
  - Results keep dataset order; one result per dataset row.
  - Write the report once, at the end.

  Implementation-discovered:
  - Phases never overlap: scoring starts after the last answer is in.
  - Needs to report progress to the console.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/engine (client, pool, generator, evaluator, aggregate),
    internal/dataset, internal/prompt, internal/output

ERROR HANDLING:
  - Any remote failure that survives the retry policy aborts the run.
    No partial report is written.

IMPLEMENTATION RULES:
  - Runner holds no config; Run wires a Runner from config.

USAGE:
  err := engine.Run(ctx, cfg)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/pool.go
  - internal/engine/evaluator.go

MAINTENANCE:
  - Update when adding phases.
*/

package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/daryltucker/judge-runner/internal/config"
	"github.com/daryltucker/judge-runner/internal/dataset"
	"github.com/daryltucker/judge-runner/internal/model"
	"github.com/daryltucker/judge-runner/internal/output"
	"github.com/daryltucker/judge-runner/internal/prompt"
)

// Runner executes both phases of a benchmark over a dataset.
type Runner struct {
	Target         Completer
	Evaluator      Completer
	Template       *prompt.Template
	TargetModel    string
	EvaluatorModel string
	Concurrency    int
	OnParseFailure string

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Execute generates, scores and aggregates items.
func (r *Runner) Execute(ctx context.Context, items []model.DatasetItem) (*model.Report, error) {
	now, newID := r.Now, r.NewID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}

	meta := model.Report{
		RunID:          newID(),
		ModelName:      r.TargetModel,
		EvaluatorModel: r.EvaluatorModel,
		PromptTemplate: model.PromptInfo{ID: r.Template.ID(), SHA256: r.Template.SHA256()},
		StartedAt:      now(),
	}
	total := len(items)

	output.Logger.Info("Generating answers...", "model", r.TargetModel, "items", total, "concurrency", r.Concurrency)
	gen := NewGenerator(r.Target)
	var generated atomic.Int64
	records, err := RunPhase(ctx, items, r.Concurrency, func(ctx context.Context, i int, item model.DatasetItem) (model.ResultRecord, error) {
		rec, err := gen.Generate(ctx, i, item)
		if err != nil {
			return rec, err
		}
		output.Logger.Info("Answer generated", "item", i+1, "done", generated.Add(1), "total", total)
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}
	output.Logger.Info("Answer generation complete", "items", total)

	output.Logger.Info("Evaluating answers...", "model", r.EvaluatorModel, "template", r.Template.ID())
	ev := NewEvaluator(r.Evaluator, r.Template)
	var evaluated atomic.Int64
	verdicts, err := RunPhase(ctx, records, r.Concurrency, func(ctx context.Context, i int, rec model.ResultRecord) (model.Verdict, error) {
		v, err := ev.Evaluate(ctx, i, rec)
		if err != nil {
			return v, err
		}
		done := evaluated.Add(1)
		if !v.Valid {
			output.Logger.Warn("Answer evaluated", "item", i+1, "status", model.ScoreUnparseable, "reply", v.Reply, "done", done, "total", total)
			return v, nil
		}
		output.Logger.Info("Answer evaluated", "item", i+1, "score", v.Score, "done", done, "total", total)
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("answer evaluation failed: %w", err)
	}
	for i := range records {
		records[i].Apply(verdicts[i])
	}
	output.Logger.Info("Answer evaluation complete", "items", total)

	meta.FinishedAt = now()
	report, err := Aggregate(meta, records, r.OnParseFailure)
	if err != nil {
		return nil, err
	}

	if report.AverageScore == nil {
		output.Logger.Warn("No scored results; average score is undefined", "items", total, "unscored", report.UnscoredCount)
	} else {
		output.Logger.Info("Average score", "score", *report.AverageScore, "scored", report.ScoredCount, "unscored", report.UnscoredCount)
	}
	return report, nil
}

// Run executes the full benchmark described by cfg and writes its outputs.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	tmpl, err := prompt.Load(cfg.Prompt.Locale, cfg.Prompt.Version, cfg.Prompt.File)
	if err != nil {
		return err
	}

	items, err := dataset.Load(cfg.Dataset)
	if err != nil {
		return err
	}
	items = dataset.Limit(items, cfg.Limit)
	output.Logger.Info("Dataset loaded", "path", cfg.Dataset, "items", len(items))

	output.Logger.Info("Evaluator endpoint",
		"url", cfg.Evaluator.APIEndpoint,
		"model", cfg.Evaluator.ModelName,
		"api_key", config.Mask(cfg.Evaluator.APIKey),
	)
	output.Logger.Info("Target endpoint", "url", cfg.Target.APIEndpoint, "model", cfg.Target.ModelName)

	r := &Runner{
		Target:         NewModelClient(cfg.Target, cfg),
		Evaluator:      NewModelClient(cfg.Evaluator, cfg),
		Template:       tmpl,
		TargetModel:    cfg.Target.ModelName,
		EvaluatorModel: cfg.Evaluator.ModelName,
		Concurrency:    cfg.Concurrency,
		OnParseFailure: cfg.OnParseFailure,
	}

	report, err := r.Execute(ctx, items)
	if err != nil {
		return err
	}

	reportPath := cfg.ReportPath()
	if err := output.WriteReport(reportPath, report); err != nil {
		return fmt.Errorf("failed to write report %s: %w", reportPath, err)
	}
	output.Logger.Info("Report written", "path", reportPath)

	if csvPath := cfg.ResultsCSVPath(); csvPath != "" {
		if err := output.WriteResultsCSV(csvPath, report.Results); err != nil {
			return fmt.Errorf("failed to write results CSV %s: %w", csvPath, err)
		}
		output.Logger.Info("Results CSV written", "path", csvPath)
	}

	return nil
}
