package service

import (
	"context"
	"fmt"
	"time"

	"solar_follower/internal/logger"
	"solar_follower/internal/metrics"
	"solar_follower/internal/models"
	"solar_follower/internal/repository"
)

const (
	// DefaultForwardQueue is the number of samples waiting for the sinks before new ones are dropped.
	DefaultForwardQueue = 256

	// sinkTimeout bounds one Record call made by the forwarder.
	sinkTimeout = 10 * time.Second
)

// TelemetrySink receives a copy of every accepted sample (MQTT, InfluxDB, ...).
type TelemetrySink interface {
	Name() string
	Record(ctx context.Context, s models.TelemetrySample) error
}

type TelemetryService struct {
	repo    repository.TelemetryRepo
	sinks   []TelemetrySink
	queue   chan models.TelemetrySample
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// NewTelemetryService builds the service. Samples for the sinks go through a queue
// of queueSize entries (DefaultForwardQueue when not positive) drained by Forward.
func NewTelemetryService(repo repository.TelemetryRepo, sinks []TelemetrySink, queueSize int, m *metrics.Metrics, log *logger.Logger) *TelemetryService {
	if queueSize <= 0 {
		queueSize = DefaultForwardQueue
	}
	s := &TelemetryService{repo: repo, sinks: sinks, metrics: m, log: log, now: time.Now}
	if len(sinks) > 0 {
		s.queue = make(chan models.TelemetrySample, queueSize)
	}
	return s
}

// Ingest stamps the arrival time, stores the sample and queues it for the sinks.
// It never waits on a sink: a full queue drops the forward, not the sample.
func (s *TelemetryService) Ingest(ctx context.Context, sample models.TelemetrySample) error {
	sample.ReceivedAt = s.now().UTC()

	stored, err := s.repo.Append(ctx, sample)
	if err != nil {
		return fmt.Errorf("append telemetry: %w", err)
	}
	s.metrics.TelemetryIngested(stored)

	if s.queue == nil {
		return nil
	}
	select {
	case s.queue <- sample:
	default:
		s.metrics.SinkDropped()
		if s.log != nil {
			s.log.Warnw("telemetry_forward_queue_full", "capacity", cap(s.queue))
		}
	}
	return nil
}

// List returns the stored samples, oldest first.
func (s *TelemetryService) List(ctx context.Context) ([]models.TelemetrySample, error) {
	return s.repo.List(ctx)
}

// Forward hands queued samples to the sinks one at a time until ctx is cancelled,
// then flushes what is still queued. Without sinks it returns at once.
func (s *TelemetryService) Forward(ctx context.Context) {
	if s.queue == nil {
		return
	}
	for {
		select {
		case sample := <-s.queue:
			s.forward(sample)
		case <-ctx.Done():
			for {
				select {
				case sample := <-s.queue:
					s.forward(sample)
				default:
					return
				}
			}
		}
	}
}

// forward offers one sample to every sink. Failures are logged and counted.
func (s *TelemetryService) forward(sample models.TelemetrySample) {
	for _, sink := range s.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err := sink.Record(ctx, sample)
		cancel()
		if err != nil {
			s.metrics.SinkFailed(sink.Name())
			if s.log != nil {
				s.log.Warnw("telemetry_sink_failed", "sink", sink.Name(), "err", err)
			}
		}
	}
}
