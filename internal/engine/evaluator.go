/*
PURPOSE:
  Scores a generated answer with the evaluator (judge) model.

REQUIREMENTS:
  User-specified:
  - Render the rubric with the question, reference answer, grading criteria
    and the generated answer, then ask the judge for a single 1-5 number.
  - A blank answer is still sent; the rubric itself instructs a score of 1.

  Implementation-discovered:
  - Judges sometimes wrap the number in whitespace or answer "4.0".
  - Anything that is not an integer in [1,5] is an unparseable verdict,
    never an error and never a NaN.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Runner, phase two)
  - Uses: internal/prompt, internal/model

ERROR HANDLING:
  - Transport errors from the judge are returned (fatal for the run).
  - Parse failures produce Verdict{Valid: false} with the raw reply.

USAGE:
  ev := engine.NewEvaluator(judge, tmpl)
  v, err := ev.Evaluate(ctx, i, record)

RELATED FILES:
  - internal/prompt/prompt.go
  - internal/engine/aggregate.go
*/

package engine

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/daryltucker/judge-runner/internal/model"
	"github.com/daryltucker/judge-runner/internal/prompt"
)

// Evaluator grades generated answers against the rubric.
type Evaluator struct {
	judge    Completer
	template *prompt.Template
}

// NewEvaluator creates an Evaluator backed by the judge model.
func NewEvaluator(judge Completer, tmpl *prompt.Template) *Evaluator {
	return &Evaluator{judge: judge, template: tmpl}
}

// Prompt renders the judge prompt for a record.
func (e *Evaluator) Prompt(r model.ResultRecord) string {
	return e.template.Render(prompt.Fields{
		Input:     r.Input,
		Reference: r.ReferenceOutput,
		Aspect:    r.EvalAspect,
		Answer:    r.GeneratedOutput,
	})
}

// Evaluate asks the judge to score record r.
func (e *Evaluator) Evaluate(ctx context.Context, _ int, r model.ResultRecord) (model.Verdict, error) {
	reply, err := e.judge.Complete(ctx, e.Prompt(r))
	if err != nil {
		return model.Verdict{}, err
	}
	return ParseVerdict(reply), nil
}

// ParseVerdict reads a judge reply as a score.
func ParseVerdict(reply string) model.Verdict {
	v := model.Verdict{Reply: reply}

	f, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return v
	}
	if f < model.MinScore || f > model.MaxScore {
		return v
	}

	v.Score = int(f)
	v.Valid = true
	return v
}
