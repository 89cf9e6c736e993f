package pulseeco

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexedStub answers the i-th interval (by start time) with [i].
type indexedStub struct {
	starts  map[time.Time]int
	failAt  int
	delay   func(i int) time.Duration
	mu      sync.Mutex
	filters []Filters
	calls   atomic.Int32
}

func newIndexedStub(t *testing.T, q SpanQuery) *indexedStub {
	t.Helper()
	intervals, err := SplitSpan(q.From, q.To, q.MaxSpan)
	require.NoError(t, err)
	starts := make(map[time.Time]int, len(intervals))
	for i, iv := range intervals {
		starts[iv.Start] = i
	}
	return &indexedStub{starts: starts, failAt: -1}
}

func (s *indexedStub) fetch(ctx context.Context, city string, iv Interval, f Filters) ([]int, error) {
	s.calls.Add(1)
	i := s.starts[iv.Start]
	s.mu.Lock()
	s.filters = append(s.filters, f)
	s.mu.Unlock()

	if s.delay != nil {
		select {
		case <-time.After(s.delay(i)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i == s.failAt {
		return nil, errStub
	}
	return []int{i}, nil
}

var errStub = errors.New("stub transport failure")

func threeIntervalQuery() SpanQuery {
	from := time.Date(2019, 3, 17, 12, 0, 0, 0, time.UTC)
	return SpanQuery{
		City:    "skopje",
		Filters: Filters{SensorID: "1001", Type: TypePM10},
		From:    from,
		To:      from.Add(20 * 24 * time.Hour),
		MaxSpan: 7 * 24 * time.Hour,
	}
}

func TestFetchSpannedSequentialOrder(t *testing.T) {
	q := threeIntervalQuery()
	stub := newIndexedStub(t, q)

	got, err := FetchSpanned(context.Background(), q, stub.fetch)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)

	for _, f := range stub.filters {
		assert.Equal(t, q.Filters, f)
	}
}

func TestFetchSpannedConcurrentKeepsIntervalOrder(t *testing.T) {
	q := threeIntervalQuery()
	q.To = q.From.Add(60 * 24 * time.Hour)
	q.Concurrency = 4
	stub := newIndexedStub(t, q)
	// Later intervals finish first.
	stub.delay = func(i int) time.Duration { return time.Duration(10-i) * 5 * time.Millisecond }

	got, err := FetchSpanned(context.Background(), q, stub.fetch)
	require.NoError(t, err)

	want := make([]int, len(stub.starts))
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestFetchSpannedFailurePropagates(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		q := threeIntervalQuery()
		q.Concurrency = concurrency
		stub := newIndexedStub(t, q)
		stub.failAt = 1

		got, err := FetchSpanned(context.Background(), q, stub.fetch)
		require.ErrorIs(t, err, errStub, "concurrency=%d", concurrency)
		assert.Nil(t, got)
	}
}

func TestFetchSpannedSequentialStopsAtFirstFailure(t *testing.T) {
	q := threeIntervalQuery()
	stub := newIndexedStub(t, q)
	stub.failAt = 1

	_, err := FetchSpanned(context.Background(), q, stub.fetch)
	require.Error(t, err)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestFetchSpannedCancelled(t *testing.T) {
	q := threeIntervalQuery()
	q.Concurrency = 3
	stub := newIndexedStub(t, q)
	stub.delay = func(int) time.Duration { return time.Second }

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	got, err := FetchSpanned(ctx, q, stub.fetch)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestFetchSpannedRejectsBadSpanBeforeCalling(t *testing.T) {
	q := threeIntervalQuery()
	q.MaxSpan = 0
	called := false

	_, err := FetchSpanned(context.Background(), q, func(context.Context, string, Interval, Filters) ([]int, error) {
		called = true
		return nil, nil
	})
	require.ErrorIs(t, err, ErrNonPositiveSpan)
	assert.False(t, called)
}
