package worker

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
)

type Options struct {
	// Workers bounds how many items are processed at once. Values <= 0 mean 1.
	Workers int
}

// Result holds the output for one input item.
type Result[In any, Out any] struct {
	Index  int
	Input  In
	Output Out
	Err    error
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// ProcessAll runs the processor over all input items.
//
// The returned slice is in input order: out[i] belongs to items[i]. A processor
// error is recorded on its own Result and does not stop the other items.
func ProcessAll[In any, Out any](
	ctx context.Context,
	items []In,
	processor func(context.Context, In) (Out, error),
	opts Options,
) ([]Result[In, Out], error) {
	return ProcessAllWithCallback(ctx, items, processor, nil, opts)
}

// ProcessAllWithCallback runs the processor over all input items and invokes onResult
// as each item completes. The callback receives completion-order results; a
// callback error stops submitting new items and is returned.
func ProcessAllWithCallback[In any, Out any](
	ctx context.Context,
	items []In,
	processor func(context.Context, In) (Out, error),
	onResult func(Result[In, Out]) error,
	opts Options,
) ([]Result[In, Out], error) {
	opts = opts.withDefaults()
	if len(items) == 0 {
		return []Result[In, Out]{}, nil
	}

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]Result[In, Out], len(items))
	done := make(chan Result[In, Out], len(items))

	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(done)
		}()
		for i, item := range items {
			if runCtx.Err() != nil {
				return
			}
			wg.Add(1)
			task := func() {
				defer wg.Done()
				res, err := processor(runCtx, item)
				done <- Result[In, Out]{Index: i, Input: item, Output: res, Err: err}
			}
			if err := pool.Submit(task); err != nil {
				wg.Done()
				done <- Result[In, Out]{Index: i, Input: item, Err: err}
			}
		}
	}()

	var firstErr error
	for res := range done {
		out[res.Index] = res
		if onResult == nil || firstErr != nil {
			continue
		}
		if err := onResult(res); err != nil {
			firstErr = err
			cancel()
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
