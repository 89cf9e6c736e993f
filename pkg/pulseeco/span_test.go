package pulseeco

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
}

func TestSplitSpanISOWorkedExample(t *testing.T) {
	got, err := SplitSpanISO("2019-03-17T12:00:00", "2019-04-03T14:57:03", 7*24*time.Hour)
	require.NoError(t, err)

	want := []Interval{
		{Start: utc(2019, 3, 17, 12, 0, 0), End: utc(2019, 3, 24, 12, 0, 0)},
		{Start: utc(2019, 3, 24, 12, 0, 1), End: utc(2019, 3, 31, 12, 0, 0)},
		{Start: utc(2019, 3, 31, 12, 0, 1), End: utc(2019, 4, 3, 14, 57, 3)},
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Start.Equal(got[i].Start), "interval %d start: want %s got %s", i, want[i].Start, got[i].Start)
		assert.True(t, want[i].End.Equal(got[i].End), "interval %d end: want %s got %s", i, want[i].End, got[i].End)
	}
}

func TestSplitSpanExactBoundaryPlusOneStep(t *testing.T) {
	got, err := SplitSpanISO("2019-03-17T12:00:00", "2019-03-24T12:00:01", 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(utc(2019, 3, 17, 12, 0, 0)))
	assert.True(t, got[0].End.Equal(utc(2019, 3, 24, 12, 0, 1)))
}

func TestSplitSpanBoundaryPlusTwoSteps(t *testing.T) {
	got, err := SplitSpanISO("2019-03-17T12:00:00", "2019-03-24T12:00:02", 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].End.Equal(utc(2019, 3, 24, 12, 0, 0)))
	assert.True(t, got[1].Start.Equal(utc(2019, 3, 24, 12, 0, 1)))
	assert.True(t, got[1].End.Equal(utc(2019, 3, 24, 12, 0, 2)))
}

func TestSplitSpanSingleInterval(t *testing.T) {
	from := utc(2020, 1, 1, 0, 0, 0)
	for _, to := range []time.Time{from, from.Add(time.Hour), from.Add(7 * 24 * time.Hour)} {
		got, err := SplitSpan(from, to, 7*24*time.Hour)
		require.NoError(t, err)
		require.Len(t, got, 1, "to=%s", to)
		assert.Equal(t, Interval{Start: from, End: to}, got[0])
	}
}

func TestSplitSpanCoverage(t *testing.T) {
	from := utc(2021, 2, 3, 4, 5, 6)
	maxSpans := []time.Duration{time.Hour, 90 * time.Minute, 24 * time.Hour, 7 * 24 * time.Hour}
	lengths := []time.Duration{0, time.Second, time.Hour, 36*time.Hour + 17*time.Second, 30 * 24 * time.Hour}

	for _, maxSpan := range maxSpans {
		for _, length := range lengths {
			to := from.Add(length)
			got, err := SplitSpan(from, to, maxSpan)
			require.NoError(t, err)
			require.NotEmpty(t, got)

			assert.True(t, got[0].Start.Equal(from))
			assert.True(t, got[len(got)-1].End.Equal(to))

			var covered time.Duration
			for i, iv := range got {
				assert.False(t, iv.End.Before(iv.Start), "interval %d inverted", i)
				assert.LessOrEqual(t, iv.Duration(), maxSpan+BoundaryStep)
				covered += iv.Duration()
				if i > 0 {
					assert.Equal(t, BoundaryStep, iv.Start.Sub(got[i-1].End), "gap before interval %d", i)
				}
			}
			gaps := time.Duration(len(got)-1) * BoundaryStep
			assert.Equal(t, length, covered+gaps, "maxSpan=%s length=%s", maxSpan, length)
		}
	}
}

func TestSplitSpanRejectsDegenerateInput(t *testing.T) {
	from := utc(2020, 1, 2, 0, 0, 0)

	_, err := SplitSpan(from, from.Add(time.Hour), 0)
	require.ErrorIs(t, err, ErrNonPositiveSpan)

	_, err = SplitSpan(from, from.Add(time.Hour), -time.Hour)
	require.ErrorIs(t, err, ErrNonPositiveSpan)

	_, err = SplitSpan(from, from.Add(-time.Second), time.Hour)
	require.ErrorIs(t, err, ErrInvertedSpan)
}

func TestSplitSpanISOMalformed(t *testing.T) {
	_, err := SplitSpanISO("17/03/2019", "2019-04-03T14:57:03", time.Hour)
	var tsErr *TimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, "17/03/2019", tsErr.Value)
}

func TestSpansIsRestartableAndStoppable(t *testing.T) {
	from := utc(2020, 1, 1, 0, 0, 0)
	seq := Spans(from, from.Add(10*time.Hour), time.Hour)

	var first, second []Interval
	for iv := range seq {
		first = append(first, iv)
	}
	for iv := range seq {
		second = append(second, iv)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 10)

	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestSpansDegenerateTerminates(t *testing.T) {
	from := utc(2020, 1, 1, 0, 0, 0)
	var got []Interval
	for iv := range Spans(from, from.Add(time.Hour), 0) {
		got = append(got, iv)
	}
	assert.Equal(t, []Interval{{Start: from, End: from.Add(time.Hour)}}, got)
}

func TestIntervalMarshalUsesWireTimestamps(t *testing.T) {
	iv := Interval{
		Start: utc(2019, 3, 17, 12, 0, 0),
		End:   time.Date(2019, 3, 24, 13, 0, 0, 0, time.FixedZone("CET", 3600)),
	}
	out, err := json.Marshal(iv)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"2019-03-17T12:00:00+00:00","to":"2019-03-24T13:00:00+01:00"}`, string(out))
}
