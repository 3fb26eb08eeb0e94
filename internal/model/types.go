/*
PURPOSE:
  Defines the core data structures used throughout Judge Runner.
  These models represent dataset cases, per-item results and the final report.

REQUIREMENTS:
  User-specified:
  - One result per dataset item, in dataset order.
  - Track target model name, average score and per-item detail.

  Implementation-discovered:
  - A judge reply may not be a number; the score needs an explicit status
    rather than a NaN that JSON cannot carry.
  - Need JSON tags matching the report file layout.

ARCHITECTURE INTEGRATION:
  - Used by: internal/dataset, internal/engine, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Score is a pointer so "not scored" serializes as null.

USAGE:
  rec := model.NewPendingRecord(i, item, answer)
  rec.Apply(verdict)

SELF-HEALING INSTRUCTIONS:
  - If new report fields are needed, add them here and update output/csv.go.

RELATED FILES:
  - internal/output/json.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when the report layout changes.
*/

package model

import (
	"time"
)

// DatasetItem is one benchmark case.
type DatasetItem struct {
	Input           string `json:"input"`
	ReferenceOutput string `json:"reference_output"`
	EvalAspect      string `json:"eval_aspect"`
}

// ScoreStatus tells whether a record carries a usable score.
type ScoreStatus string

const (
	ScorePending     ScoreStatus = "pending"
	ScoreScored      ScoreStatus = "scored"
	ScoreUnparseable ScoreStatus = "unparseable"
)

// MinScore and MaxScore bound a valid rubric score.
const (
	MinScore = 1
	MaxScore = 5
)

// Verdict is the parsed outcome of one judge reply.
type Verdict struct {
	Score int
	Valid bool
	Reply string
}

// ResultRecord is the outcome for a single dataset item.
type ResultRecord struct {
	Index           int         `json:"index"`
	Input           string      `json:"input"`
	GeneratedOutput string      `json:"generated_output"`
	ReferenceOutput string      `json:"reference_output"`
	EvalAspect      string      `json:"eval_aspect"`
	Score           *int        `json:"score"`
	ScoreStatus     ScoreStatus `json:"score_status"`
	JudgeReply      string      `json:"judge_reply,omitempty"` // only kept when unparseable
}

// NewPendingRecord builds the phase one record for item i.
func NewPendingRecord(i int, item DatasetItem, generated string) ResultRecord {
	return ResultRecord{
		Index:           i,
		Input:           item.Input,
		GeneratedOutput: generated,
		ReferenceOutput: item.ReferenceOutput,
		EvalAspect:      item.EvalAspect,
		ScoreStatus:     ScorePending,
	}
}

// Apply stores the judge verdict on the record.
func (r *ResultRecord) Apply(v Verdict) {
	if v.Valid {
		score := v.Score
		r.Score = &score
		r.ScoreStatus = ScoreScored
		r.JudgeReply = ""
		return
	}
	r.Score = nil
	r.ScoreStatus = ScoreUnparseable
	r.JudgeReply = v.Reply
}

// PromptInfo identifies the rubric template a run was scored with.
type PromptInfo struct {
	ID     string `json:"id"`
	SHA256 string `json:"sha256"`
}

// Report is the single artifact written at the end of a run.
type Report struct {
	RunID          string         `json:"run_id"`
	ModelName      string         `json:"model_name"`
	EvaluatorModel string         `json:"evaluator_model"`
	PromptTemplate PromptInfo     `json:"prompt_template"`
	AverageScore   *float64       `json:"average_score"` // null when nothing was scored
	ScoredCount    int            `json:"scored_count"`
	UnscoredCount  int            `json:"unscored_count"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Results        []ResultRecord `json:"results"`
}
