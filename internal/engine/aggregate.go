package engine

import (
	"errors"
	"fmt"

	"github.com/daryltucker/judge-runner/internal/config"
	"github.com/daryltucker/judge-runner/internal/model"
)

// ErrUnscoredResults is returned by Aggregate under the "fail" policy when a
// judge reply could not be parsed.
var ErrUnscoredResults = errors.New("some results have no valid score")

// Aggregate computes the mean score over scored records and builds the
// report. Unparseable records are excluded from the mean and counted, or
// rejected when policy is config.PolicyFail. AverageScore is nil when no
// record was scored.
func Aggregate(meta model.Report, results []model.ResultRecord, policy string) (*model.Report, error) {
	var (
		sum      int
		scored   int
		unscored []int
	)
	for _, r := range results {
		if r.ScoreStatus == model.ScoreScored && r.Score != nil {
			sum += *r.Score
			scored++
			continue
		}
		unscored = append(unscored, r.Index)
	}

	if len(unscored) > 0 && policy == config.PolicyFail {
		return nil, fmt.Errorf("%w: items %v", ErrUnscoredResults, unscored)
	}

	report := meta
	if results == nil {
		results = []model.ResultRecord{}
	}
	report.Results = results
	report.ScoredCount = scored
	report.UnscoredCount = len(unscored)
	if scored > 0 {
		avg := float64(sum) / float64(scored)
		report.AverageScore = &avg
	}
	return &report, nil
}
