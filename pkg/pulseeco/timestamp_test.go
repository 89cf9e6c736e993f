package pulseeco

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTimestamp(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2018-03-15T02:00:00+01:00", "2018-03-15T02:00:00+01:00"},
		{"2018-03-15T02:00:00", "2018-03-15T02:00:00+00:00"},
		{"2018-03-15T02:00:00Z", "2018-03-15T02:00:00+00:00"},
		{"2018-03-15 02:00:00", "2018-03-15T02:00:00+00:00"},
		{"2018-03-15T02:00", "2018-03-15T02:00:00+00:00"},
		{"2018-03-15", "2018-03-15T00:00:00+00:00"},
		{"2018-03-15T02:00:00.250000-05:30", "2018-03-15T02:00:00.250000-05:30"},
	}
	for _, tc := range cases {
		got, err := NormalizeTimestamp(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseTimestampNaiveIsUTC(t *testing.T) {
	got, err := ParseTimestamp("2019-03-17T12:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(time.Date(2019, 3, 17, 12, 0, 0, 0, time.UTC)))
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2019-13-01T00:00:00", "1552824000"} {
		_, err := ParseTimestamp(in)
		var tsErr *TimestampError
		require.ErrorAs(t, err, &tsErr, in)
		assert.Contains(t, err.Error(), "ISO-8601")
	}
}

func TestFormatTimestampKeepsOffset(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2017, 3, 15, 2, 0, 0, 0, loc)
	assert.Equal(t, "2017-03-15T02:00:00+01:00", FormatTimestamp(ts))
	assert.Equal(t, "2017-03-15T01:00:00+00:00", FormatTimestamp(ts.UTC()))
}
