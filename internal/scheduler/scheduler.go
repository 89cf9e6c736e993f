package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/i474232898/pulse-eco/internal/store"
	"github.com/i474232898/pulse-eco/pkg/pulseeco"
)

const (
	defaultInterval = 15 * time.Minute
	pollTimeout     = 30 * time.Second
)

// ClientFunc returns the API client for a city.
type ClientFunc func(city string) pulseeco.API

// Saver persists polled snapshots.
type Saver interface {
	Save(snap store.Snapshot)
}

// Scheduler periodically fetches overall values for configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	clients   ClientFunc
	store     Saver
	cities    []string
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, clients ClientFunc, st Saver, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		clients:   clients,
		store:     st,
		cities:    cities,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first poll runs immediately.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.logger.Info("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
		defer cancel()
		_ = s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule overall poll: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce polls every city in parallel and stores the results. Failures are
// logged and returned joined; a failing city does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	runID := uuid.NewString()
	logger := s.logger.With(slog.String("run_id", runID))
	logger.Debug("scheduler: running overall poll", slog.Int("cities", len(s.cities)))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, city := range s.cities {
		wg.Add(1)
		go func() {
			defer wg.Done()

			overall, err := s.clients(city).Overall(ctx)
			if err != nil {
				logger.Warn("scheduler: poll failed", slog.String("city", city), slog.Any("error", err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", city, err))
				mu.Unlock()
				return
			}

			s.store.Save(store.Snapshot{
				City:      city,
				FetchedAt: s.now().UTC(),
				RunID:     runID,
				Overall:   overall,
			})
		}()
	}
	wg.Wait()

	logger.Debug("scheduler: completed overall poll", slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
