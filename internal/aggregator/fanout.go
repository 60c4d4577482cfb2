package aggregator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the settled outcome of one fan-out item
type Result[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// FanOut calls fn for every key with at most limit calls in flight and
// returns one Result per key, in key order, once all calls have settled.
// Item errors are recorded, never propagated to siblings; the only error
// FanOut itself returns is the cancellation of ctx.
func FanOut[K comparable, V any](ctx context.Context, limit int, keys []K, fn func(context.Context, K) (V, error)) ([]Result[K, V], error) {
	results := make([]Result[K, V], len(keys))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			results[i].Key = key
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = fn(ctx, key)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
