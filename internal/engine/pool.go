package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// ErrInvalidWindow is returned when a phase is started with no workers.
var ErrInvalidWindow = errors.New("concurrency window must be greater than 0")

// WorkerFunc handles item i of a phase.
type WorkerFunc[T, U any] func(ctx context.Context, i int, item T) (U, error)

// RunPhase runs worker over items with at most window calls in flight and
// returns the results in input order. The first failure cancels the phase:
// no further items are started and that error is returned.
func RunPhase[T, U any](ctx context.Context, items []T, window int, worker WorkerFunc[T, U]) ([]U, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	results := make([]U, len(items))
	if len(items) == 0 {
		return results, nil
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	pool, err := ants.NewPool(window)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer func() {
				if p := recover(); p != nil {
					cancel(fmt.Errorf("item %d: worker panic: %v", i, p))
				}
				wg.Done()
			}()
			if ctx.Err() != nil {
				return
			}
			out, err := worker(ctx, i, item)
			if err != nil {
				cancel(fmt.Errorf("item %d: %w", i, err))
				return
			}
			results[i] = out
		})
		if err != nil {
			wg.Done()
			cancel(fmt.Errorf("submit item %d: %w", i, err))
			break
		}
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return results, nil
}
