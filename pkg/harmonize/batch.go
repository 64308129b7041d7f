package harmonize

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mpspline/internal/profile"
	"mpspline/internal/syscache"
)

// HarmonizeMany harmonizes a collection of profiles. In lenient mode
// (default) rejected profiles and failed properties are recorded in
// BatchResult.Failures and the rest of the batch completes; in strict mode
// the first failure aborts the whole call. With opts.Parallel the batch is
// partitioned into opts.BatchSize chunks across opts.Workers workers, each
// owning a private system cache; assembled results are in input order
// regardless of scheduling.
func HarmonizeMany(ctx context.Context, raws []map[string]any, opts Options) (*BatchResult, error) {
	o, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return &BatchResult{}, nil
	}

	o.Logger.Info("starting harmonization",
		zap.Int("profiles", len(raws)),
		zap.Bool("parallel", o.Parallel),
		zap.Int("batch_size", o.BatchSize))

	var out *BatchResult
	if o.Parallel && o.Workers > 1 && len(raws) > 1 {
		out, err = manyParallel(ctx, raws, o)
	} else {
		out, err = manySequential(ctx, raws, o)
	}
	if err != nil {
		return nil, err
	}

	o.Logger.Info("harmonization complete",
		zap.Int("harmonized", len(out.Results)),
		zap.Int("failures", len(out.Failures)))
	return out, nil
}

func manySequential(ctx context.Context, raws []map[string]any, o Options) (*BatchResult, error) {
	cache := syscache.New(o.CacheSize)
	out := &BatchResult{}

	for i, raw := range raws {
		res, fails, err := harmonizeProfile(ctx, raw, o, cache)
		if err != nil {
			if o.Strict || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			out.Failures = append(out.Failures, failureFromError(err))
			continue
		}
		out.Failures = append(out.Failures, fails...)
		out.Results = append(out.Results, res)

		if (i+1)%100 == 0 {
			o.Logger.Debug("batch progress", zap.Int("processed", i+1))
		}
	}
	return out, nil
}

// chunk is one unit of parallel work: a contiguous slice of the input with
// its starting index, so workers can write into index-stable slots.
type chunk struct {
	id    int
	start int
	raws  []map[string]any
}

func manyParallel(ctx context.Context, raws []map[string]any, o Options) (*BatchResult, error) {
	var chunks []chunk
	for start := 0; start < len(raws); start += o.BatchSize {
		end := start + o.BatchSize
		if end > len(raws) {
			end = len(raws)
		}
		chunks = append(chunks, chunk{id: len(chunks), start: start, raws: raws[start:end]})
	}

	results := make([]*Result, len(raws))
	failures := make([][]Failure, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan chunk)

	workers := o.Workers
	if workers > len(chunks) {
		workers = len(chunks)
	}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			// Each worker owns its cache: duplicate matrix work across
			// workers is accepted in exchange for zero shared numeric state.
			cache := syscache.New(o.CacheSize)
			for ch := range jobs {
				for i, raw := range ch.raws {
					res, fails, err := harmonizeProfile(gctx, raw, o, cache)
					if err != nil {
						if o.Strict || gctx.Err() != nil {
							return err
						}
						failures[ch.id] = append(failures[ch.id], failureFromError(err))
						continue
					}
					failures[ch.id] = append(failures[ch.id], fails...)
					results[ch.start+i] = res
				}
			}
			return nil
		})
	}

	go func() {
		defer close(jobs)
		for _, ch := range chunks {
			select {
			case jobs <- ch:
			case <-gctx.Done():
				return
			}
		}
	}()

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BatchResult{}
	for _, res := range results {
		if res != nil {
			out.Results = append(out.Results, res)
		}
	}
	for _, fl := range failures {
		out.Failures = append(out.Failures, fl...)
	}
	return out, nil
}

func failureFromError(err error) Failure {
	var vErr *profile.ValidationError
	if errors.As(err, &vErr) {
		return Failure{ProfileID: vErr.ProfileID, Stage: StageValidation, Err: err}
	}
	return Failure{Stage: StageNumeric, Err: err}
}
