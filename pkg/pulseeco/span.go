package pulseeco

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"
)

const (
	// DataRawMaxSpan is the widest window the dataRaw endpoint accepts.
	DataRawMaxSpan = 7 * 24 * time.Hour
	// AvgDataMaxSpan is the widest window the avgData endpoints accept.
	AvgDataMaxSpan = 365 * 24 * time.Hour

	// BoundaryStep separates consecutive intervals so that no instant is
	// requested twice. It costs one second of data at every join.
	BoundaryStep = time.Second
)

var (
	// ErrNonPositiveSpan is returned when the max span would never advance.
	ErrNonPositiveSpan = errors.New("max span must be positive")
	// ErrInvertedSpan is returned when from is after to.
	ErrInvertedSpan = errors.New("span start is after span end")
)

// Interval is a closed time window [Start, End].
type Interval struct {
	Start time.Time `json:"from"`
	End   time.Time `json:"to"`
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// MarshalJSON writes both bounds in the API's timestamp form.
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		From string `json:"from"`
		To   string `json:"to"`
	}{FormatTimestamp(iv.Start), FormatTimestamp(iv.End)})
}

func (iv Interval) String() string {
	return FormatTimestamp(iv.Start) + "/" + FormatTimestamp(iv.End)
}

// Spans lazily yields the intervals covering [from, to], each at most maxSpan
// long. A trailing remainder of one BoundaryStep or less is folded into the
// last window instead of being emitted on its own.
//
// Spans does not validate its input; callers wanting errors use SplitSpan.
// With a non-positive maxSpan or from after to it yields the single interval
// (from, to).
func Spans(from, to time.Time, maxSpan time.Duration) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		current, windowStart := from, from
		if maxSpan > 0 {
			for current.Add(maxSpan + BoundaryStep).Before(to) {
				current = current.Add(maxSpan)
				if !yield(Interval{Start: windowStart, End: current}) {
					return
				}
				windowStart = current.Add(BoundaryStep)
			}
		}
		yield(Interval{Start: windowStart, End: to})
	}
}

// SplitSpan validates the range and returns every interval Spans produces.
func SplitSpan(from, to time.Time, maxSpan time.Duration) ([]Interval, error) {
	if maxSpan <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrNonPositiveSpan, maxSpan)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvertedSpan, FormatTimestamp(from), FormatTimestamp(to))
	}

	var out []Interval
	for iv := range Spans(from, to, maxSpan) {
		out = append(out, iv)
	}
	return out, nil
}

// SplitSpanISO is SplitSpan for ISO-8601 string bounds.
func SplitSpanISO(from, to string, maxSpan time.Duration) ([]Interval, error) {
	f, err := ParseTimestamp(from)
	if err != nil {
		return nil, err
	}
	t, err := ParseTimestamp(to)
	if err != nil {
		return nil, err
	}
	return SplitSpan(f, t, maxSpan)
}
