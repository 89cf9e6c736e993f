package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/pulse-eco/internal/store"
	"github.com/i474232898/pulse-eco/pkg/pulseeco"
	"github.com/i474232898/pulse-eco/pkg/pulseeco/pulseecotest"
)

func intp(v int) *int { return &v }

func TestRunOnceStoresEveryCity(t *testing.T) {
	stubs := map[string]*pulseecotest.Stub{
		"skopje": {CityName: "skopje", OverallVal: pulseeco.Overall{CityName: "skopje", Values: map[pulseeco.DataValueType]*int{pulseeco.TypePM10: intp(40)}}},
		"bitola": {CityName: "bitola", OverallVal: pulseeco.Overall{CityName: "bitola", Values: map[pulseeco.DataValueType]*int{pulseeco.TypePM10: nil}}},
	}
	st := store.NewMemoryStore(10, 0)
	s := New([]string{"skopje", "bitola"}, time.Minute, func(city string) pulseeco.API { return stubs[city] }, st, nil)

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.RunOnce(context.Background()))

	sk, err := st.Latest("skopje")
	require.NoError(t, err)
	assert.Equal(t, fixed, sk.FetchedAt)
	assert.NotEmpty(t, sk.RunID)
	v, ok := sk.Overall.Value(pulseeco.TypePM10)
	assert.True(t, ok)
	assert.Equal(t, 40, v)

	bt, err := st.Latest("bitola")
	require.NoError(t, err)
	assert.Equal(t, sk.RunID, bt.RunID)
}

func TestRunOnceKeepsGoingOnFailure(t *testing.T) {
	boom := errors.New("upstream down")
	stubs := map[string]*pulseecotest.Stub{
		"skopje": {CityName: "skopje", Err: boom},
		"bitola": {CityName: "bitola", OverallVal: pulseeco.Overall{CityName: "bitola"}},
	}
	st := store.NewMemoryStore(10, 0)
	s := New([]string{"skopje", "bitola"}, time.Minute, func(city string) pulseeco.API { return stubs[city] }, st, nil)

	err := s.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "skopje")

	_, err = st.Latest("bitola")
	assert.NoError(t, err)
	_, err = st.Latest("skopje")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStartWithoutCitiesIsNoop(t *testing.T) {
	s := New(nil, 0, nil, store.NewMemoryStore(1, 0), nil)
	require.NoError(t, s.Start())
	assert.Equal(t, defaultInterval, s.interval)
	s.Stop()
}

func TestStartPollsImmediately(t *testing.T) {
	stub := &pulseecotest.Stub{CityName: "skopje", OverallVal: pulseeco.Overall{CityName: "skopje"}}
	st := store.NewMemoryStore(10, 0)
	s := New([]string{"skopje"}, time.Hour, func(string) pulseeco.API { return stub }, st, nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		_, err := st.Latest("skopje")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}
