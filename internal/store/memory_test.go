package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/pulse-eco/pkg/pulseeco"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func snap(city string, offset time.Duration, pm10 int) Snapshot {
	v := pm10
	return Snapshot{
		City:      city,
		FetchedAt: base.Add(offset),
		Overall:   pulseeco.Overall{CityName: city, Values: map[pulseeco.DataValueType]*int{pulseeco.TypePM10: &v}},
	}
}

func newTestStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	s := NewMemoryStore(maxHistory, maxAge)
	s.now = func() time.Time { return base.Add(time.Hour) }
	return s
}

func TestLatestAndNotFound(t *testing.T) {
	s := newTestStore(0, 0)

	_, err := s.Latest("skopje")
	require.ErrorIs(t, err, ErrNotFound)

	s.Save(snap("skopje", 0, 10))
	s.Save(snap("Skopje", 15*time.Minute, 20))

	got, err := s.Latest("SKOPJE")
	require.NoError(t, err)
	v, ok := got.Overall.Value(pulseeco.TypePM10)
	require.True(t, ok)
	assert.Equal(t, 20, v)
	assert.Equal(t, []string{"skopje"}, s.Cities())
}

func TestSaveKeepsOrderForLatePolls(t *testing.T) {
	s := newTestStore(0, 0)
	s.Save(snap("skopje", 30*time.Minute, 3))
	s.Save(snap("skopje", 0, 1))
	s.Save(snap("skopje", 15*time.Minute, 2))

	all, err := s.Range("skopje", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].FetchedAt.Before(all[i].FetchedAt))
	}

	latest, err := s.Latest("skopje")
	require.NoError(t, err)
	assert.Equal(t, base.Add(30*time.Minute), latest.FetchedAt)
}

func TestRetentionByCount(t *testing.T) {
	s := newTestStore(2, 0)
	for i := 0; i < 5; i++ {
		s.Save(snap("bitola", time.Duration(i)*time.Minute, i))
	}

	all, err := s.Range("bitola", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, base.Add(3*time.Minute), all[0].FetchedAt)
	assert.Equal(t, base.Add(4*time.Minute), all[1].FetchedAt)
}

func TestRetentionByAge(t *testing.T) {
	s := newTestStore(0, 30*time.Minute)
	s.Save(snap("bitola", 0, 1))
	s.Save(snap("bitola", 45*time.Minute, 2))

	all, err := s.Range("bitola", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, base.Add(45*time.Minute), all[0].FetchedAt)
}

func TestRangeInclusive(t *testing.T) {
	s := newTestStore(0, 0)
	for i := 0; i < 4; i++ {
		s.Save(snap("skopje", time.Duration(i)*15*time.Minute, i))
	}

	got, err := s.Range("skopje", base.Add(15*time.Minute), base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)

	_, err = s.Range("skopje", base.Add(2*time.Hour), base.Add(3*time.Hour))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentSave(t *testing.T) {
	s := newTestStore(50, 0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Save(snap("skopje", time.Duration(i)*time.Second, i))
			_, _ = s.Latest("skopje")
		}(i)
	}
	wg.Wait()

	all, err := s.Range("skopje", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
