// Package scheduler keeps the default report fresh. It loads the default document
// at startup, refreshes it at the configured times of day, and warns when the
// loaded data goes stale.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/pgx-report-api/ingest"
	"github.com/giygas/pgx-report-api/interfaces"
	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/metrics"
	"github.com/giygas/pgx-report-api/reportparser"
	"github.com/giygas/pgx-report-api/reportparser/entities"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	staleAfter    = 25 * time.Hour
	monitorPeriod = time.Hour
)

// Scheduler runs the default report refresh job
type Scheduler struct {
	dataStore    interfaces.DataStore
	loader       interfaces.Loader
	ingester     interfaces.Ingester
	refreshTimes string
	fetchTimeout time.Duration

	cron     *gocron.Scheduler
	job      *gocron.Job
	stop     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler refreshing at refreshTimes ("HH:MM;HH:MM").
// Each fetch is bounded by fetchTimeout.
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.Loader, ingester interfaces.Ingester, refreshTimes string, fetchTimeout time.Duration) *Scheduler {
	return &Scheduler{
		dataStore:    dataStore,
		loader:       loader,
		ingester:     ingester,
		refreshTimes: refreshTimes,
		fetchTimeout: fetchTimeout,
		cron:         gocron.NewScheduler(time.Local),
		stop:         make(chan struct{}),
	}
}

// Start performs the initial load and schedules the refreshes.
// A missing default report is not an error: the service starts empty and waits for an upload.
func (s *Scheduler) Start() error {
	s.refresh("initial")

	if s.loader.Source() == "" {
		logging.Info("No default report source configured, scheduled refresh disabled")
		return nil
	}

	job, err := s.cron.Every(1).Days().At(s.refreshTimes).Do(func() {
		s.refresh("scheduled")
	})
	if err != nil {
		logging.Error("Failed to schedule report refresh", "error", err)
		return fmt.Errorf("failed to schedule report refresh: %w", err)
	}
	s.job = job

	s.cron.StartAsync()
	logging.Info("Report refresh scheduled", "times", s.refreshTimes, "next_run", s.NextRun().Format(time.RFC3339))

	s.startHealthMonitoring()

	return nil
}

// Stop stops the refresh job and the staleness monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.cron.Stop()
	})
}

// NextRun returns the next scheduled refresh, zero when nothing is scheduled
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// Reload fetches the default report and makes it current
func (s *Scheduler) Reload(ctx context.Context) (*entities.Report, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	body, err := s.loader.FetchDefault(ctx)
	if err != nil {
		metrics.RecordLoad(string(entities.OriginDefault), metrics.ResultUnavailable)
		return nil, err
	}

	return s.ingester.Ingest(entities.OriginDefault, body)
}

// refresh runs one load and only logs failures
func (s *Scheduler) refresh(trigger string) {
	logging.Info("Starting default report load", "trigger", trigger, "source", s.loader.Source())

	_, err := s.Reload(context.Background())
	switch {
	case err == nil:
	case errors.Is(err, reportparser.ErrFetchUnavailable):
		logging.Warn(reportparser.UserMessage(err), "trigger", trigger, "error", err)
	case errors.Is(err, ingest.ErrUpdateInProgress):
		logging.Info("Report load already in progress, skipping...", "trigger", trigger)
	default:
		logging.Error("Failed to load default report", "trigger", trigger, "error", err)
	}
}

// startHealthMonitoring warns while the default report is stale
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(monitorPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case now := <-ticker.C:
				s.checkStaleness(now)
			}
		}
	}()
}

// checkStaleness reports whether the store has not changed for longer than staleAfter.
// Stores that never loaded are measured from the server start.
func (s *Scheduler) checkStaleness(now time.Time) bool {
	if s.loader.Source() == "" {
		return false
	}

	last := s.dataStore.GetLastUpdated()
	if last.IsZero() {
		last = s.dataStore.GetServerStartTime()
	}
	if last.IsZero() || now.Sub(last) <= staleAfter {
		return false
	}

	logging.Warn("Report data hasn't been updated in over 25 hours", "last_update", last.Format(time.RFC3339))
	return true
}
