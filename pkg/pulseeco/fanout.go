package pulseeco

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Filters narrow a data query. Empty fields are left off the wire.
type Filters struct {
	SensorID string
	Type     DataValueType
}

// SpanQuery describes one logical spanned request.
type SpanQuery struct {
	City    string
	Filters Filters
	From    time.Time
	To      time.Time
	MaxSpan time.Duration

	// Concurrency bounds in-flight requests. Values below 2 dispatch the
	// intervals one after another.
	Concurrency int
}

// RequestFunc fetches the records of a single interval.
type RequestFunc[T any] func(ctx context.Context, city string, iv Interval, f Filters) ([]T, error)

// FetchSpanned splits the query range into intervals no wider than MaxSpan,
// calls fn once per interval and concatenates the results in interval order.
// The first failure aborts the whole call and nothing is returned.
func FetchSpanned[T any](ctx context.Context, q SpanQuery, fn RequestFunc[T]) ([]T, error) {
	intervals, err := SplitSpan(q.From, q.To, q.MaxSpan)
	if err != nil {
		return nil, err
	}

	if q.Concurrency < 2 || len(intervals) == 1 {
		return fetchSequential(ctx, q, intervals, fn)
	}
	return fetchConcurrent(ctx, q, intervals, fn)
}

func fetchSequential[T any](ctx context.Context, q SpanQuery, intervals []Interval, fn RequestFunc[T]) ([]T, error) {
	var out []T
	for _, iv := range intervals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := fn(ctx, q.City, iv, q.Filters)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func fetchConcurrent[T any](ctx context.Context, q SpanQuery, intervals []Interval, fn RequestFunc[T]) ([]T, error) {
	// One slot per interval, so completion order never leaks into the result.
	parts := make([][]T, len(intervals))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.Concurrency)
	for i, iv := range intervals {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := fn(gctx, q.City, iv, q.Filters)
			if err != nil {
				return err
			}
			parts[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}
