package engine

import (
	"context"

	"github.com/daryltucker/judge-runner/internal/model"
)

// Generator asks the target model to answer dataset items.
type Generator struct {
	target Completer
}

// NewGenerator creates a Generator backed by the target model.
func NewGenerator(target Completer) *Generator {
	return &Generator{target: target}
}

// Generate sends the item input verbatim and returns an unscored record.
func (g *Generator) Generate(ctx context.Context, i int, item model.DatasetItem) (model.ResultRecord, error) {
	answer, err := g.target.Complete(ctx, item.Input)
	if err != nil {
		return model.ResultRecord{}, err
	}
	return model.NewPendingRecord(i, item, answer), nil
}
