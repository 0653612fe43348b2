// Package dashboard serves pollutant selections over an in-memory dataset
// and forwards each built report to an optional publisher.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/emissions-dashboard/internal/domain"
	"github.com/couchcryptid/emissions-dashboard/internal/observability"
)

const (
	queueSize          = 64
	maxPublishAttempts = 5
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
)

// ReportPublisher delivers report events to a downstream sink.
type ReportPublisher interface {
	Publish(ctx context.Context, event domain.ReportEvent) error
}

// Service answers listPollutants and selectPollutant requests.
type Service struct {
	dataset   *domain.PollutantDataset
	publisher ReportPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	queue     chan domain.ReportEvent
	running   atomic.Bool
	retryBase time.Duration
}

// New creates a Service over ds. publisher may be nil, in which case
// reports are built but never published.
func New(ds *domain.PollutantDataset, publisher ReportPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	s := &Service{
		dataset:   ds,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		retryBase: initialBackoff,
	}
	if publisher != nil {
		s.queue = make(chan domain.ReportEvent, queueSize)
		metrics.ReportPublishEnabled.Set(1)
	}
	metrics.RecordsLoaded.Set(float64(ds.Len()))
	metrics.PollutantsLoaded.Set(float64(len(ds.Pollutants())))
	return s
}

// ListPollutants returns the distinct pollutant names in ascending order.
func (s *Service) ListPollutants() []string {
	return s.dataset.Pollutants()
}

// Has reports whether name is a known pollutant.
func (s *Service) Has(name string) bool {
	return s.dataset.Has(name)
}

// Dataset returns the underlying dataset.
func (s *Service) Dataset() *domain.PollutantDataset {
	return s.dataset
}

// SelectPollutant builds the report for name. Unknown names yield an empty
// report. When publishing is enabled, the report is queued for delivery
// without blocking the caller.
func (s *Service) SelectPollutant(_ context.Context, name string) domain.Report {
	start := time.Now()
	report := domain.SelectPollutant(s.dataset, name)
	s.metrics.ReportBuildDuration.Observe(time.Since(start).Seconds())

	label := name
	if !s.dataset.Has(name) {
		label = "unknown"
	}
	s.metrics.Selections.WithLabelValues(label).Inc()

	s.logger.Debug("pollutant selected",
		"pollutant", name,
		"markers", len(report.Markers),
		"categories", len(report.Summary.Slices),
	)

	if s.queue != nil && len(report.Markers) > 0 {
		s.enqueue(domain.NewReportEvent(report))
	}
	return report
}

func (s *Service) enqueue(event domain.ReportEvent) {
	select {
	case s.queue <- event:
	default:
		s.logger.Warn("report queue full, dropping event", "id", event.ID, "pollutant", event.Pollutant)
		s.metrics.ReportPublishErrors.Inc()
	}
}

// CheckReadiness returns nil once the dataset is loaded and, when
// publishing is enabled, the publish loop is running.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.dataset == nil {
		return errors.New("dataset not loaded")
	}
	if s.queue != nil && !s.running.Load() {
		return errors.New("report publisher is not running")
	}
	return nil
}

// Run delivers queued report events until the context is cancelled. It
// returns immediately when publishing is disabled.
func (s *Service) Run(ctx context.Context) error {
	if s.queue == nil {
		return nil
	}
	s.logger.Info("report publisher started")
	s.running.Store(true)
	defer s.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("report publisher stopping", "reason", ctx.Err())
			return nil
		case event := <-s.queue:
			s.publish(ctx, event)
		}
	}
}

// publish retries with exponential backoff, dropping the event after
// maxPublishAttempts failures.
func (s *Service) publish(ctx context.Context, event domain.ReportEvent) {
	backoff := s.retryBase
	for attempt := 1; ; attempt++ {
		err := s.publisher.Publish(ctx, event)
		if err == nil {
			s.metrics.ReportsPublished.Inc()
			return
		}
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("publish report failed",
			"error", err,
			"id", event.ID,
			"pollutant", event.Pollutant,
			"attempt", attempt,
		)
		if attempt >= maxPublishAttempts {
			s.metrics.ReportPublishErrors.Inc()
			return
		}
		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
