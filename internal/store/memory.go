package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/pulse-eco/pkg/pulseeco"
)

var (
	// ErrNotFound is returned when no snapshot is available for a city.
	ErrNotFound = errors.New("no overall data for city")
)

// Snapshot is one polled overall reading of a city.
type Snapshot struct {
	City      string           `json:"city"`
	FetchedAt time.Time        `json:"fetchedAt"`
	RunID     string           `json:"runId,omitempty"`
	Overall   pulseeco.Overall `json:"overall"`
}

// MemoryStore is a concurrency-safe in-memory history of overall snapshots.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalised city name, value: snapshots ordered by FetchedAt
	data map[string][]Snapshot

	maxHistory int           // max number of snapshots per city
	maxAge     time.Duration // optional max age for snapshots
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]Snapshot),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

func key(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Save appends a snapshot for its city and enforces retention.
func (s *MemoryStore) Save(snap Snapshot) {
	k := key(snap.City)

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.data[k]

	// Polls may finish out of order; keep the history sorted.
	i := sort.Search(len(history), func(i int) bool { return history[i].FetchedAt.After(snap.FetchedAt) })
	history = append(history, Snapshot{})
	copy(history[i+1:], history[i:])
	history[i] = snap

	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		j := sort.Search(len(history), func(i int) bool { return !history[i].FetchedAt.Before(cutoff) })
		history = history[j:]
	}

	s.data[k] = history
}

// Latest returns the most recent snapshot for a city.
func (s *MemoryStore) Latest(city string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[key(city)]
	if len(history) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// Range returns all snapshots for a city fetched between from and to
// (inclusive). A zero from or to leaves that side open.
func (s *MemoryStore) Range(city string, from, to time.Time) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[key(city)]
	if len(history) == 0 {
		return nil, ErrNotFound
	}

	var result []Snapshot
	for _, snap := range history {
		if !from.IsZero() && snap.FetchedAt.Before(from) {
			continue
		}
		if !to.IsZero() && snap.FetchedAt.After(to) {
			continue
		}
		result = append(result, snap)
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Cities returns the cities that have at least one snapshot, sorted.
func (s *MemoryStore) Cities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.data))
	for k, h := range s.data {
		if len(h) > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
