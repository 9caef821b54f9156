package service

import (
	"context"
	"time"

	"solar_follower/internal/logger"
	"solar_follower/internal/metrics"
	"solar_follower/internal/models"
	"solar_follower/internal/repository"
)

// Settings is the shared settings/state store used by device and controller.
type Settings interface {
	ApplyUpdate(ctx context.Context, fields map[string]any) (models.Settings, error)
	SetModes(ctx context.Context, manual, snow *bool) (models.Settings, error)
	SetMotorTargets(ctx context.Context, motor1, motor2 *int) (models.Settings, error)
	ReadSnapshot(ctx context.Context) models.Settings
	Current(ctx context.Context) models.Settings
	TriggerCalibration(ctx context.Context)
	Heartbeat(ctx context.Context) time.Time
}

// Telemetry accepts device samples and serves the bounded log.
type Telemetry interface {
	Ingest(ctx context.Context, s models.TelemetrySample) error
	List(ctx context.Context) ([]models.TelemetrySample, error)
}

// EventLog exposes the recent control-event history.
type EventLog interface {
	List(ctx context.Context, q models.EventQuery) ([]models.ControlEvent, error)
}

// Watchdog runs the background liveness sweep.
// Stop via context cancellation in main() for graceful shutdown.
type Watchdog interface {
	Run(ctx context.Context, tick time.Duration)
}

// Forwarder drains accepted telemetry to the sinks in the background.
// Stop via context cancellation; it flushes the queue before returning.
type Forwarder interface {
	Forward(ctx context.Context)
}

// Service aggregates all sub-services.
type Service struct {
	Settings
	Telemetry
	EventLog
	Watchdog

	Forwarder Forwarder
}

// Options carries the non-repository dependencies of NewService.
type Options struct {
	LivenessTimeout time.Duration
	Sinks           []TelemetrySink
	ForwardQueue    int
	Metrics         *metrics.Metrics
	Log             *logger.Logger
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, opts Options) *Service {
	settings := NewSettingsService(repos.Events, NewLiveness(opts.LivenessTimeout), opts.Metrics, opts.Log)
	telemetry := NewTelemetryService(repos.Telemetry, opts.Sinks, opts.ForwardQueue, opts.Metrics, opts.Log)
	return &Service{
		Settings:  settings,
		Telemetry: telemetry,
		EventLog:  NewEventLogService(repos.Events),
		Watchdog:  NewWatchdogService(settings),
		Forwarder: telemetry,
	}
}
