package repository

import (
	"context"
	"database/sql"

	"solar_follower/internal/models"
)

// TelemetryRepo is the bounded telemetry log.
type TelemetryRepo interface {
	// Append stores a sample and returns how many samples are held afterwards.
	Append(ctx context.Context, s models.TelemetrySample) (int, error)
	List(ctx context.Context) ([]models.TelemetrySample, error)
}

// EventRepo is the append-only control-event log.
type EventRepo interface {
	Append(ctx context.Context, e models.ControlEvent) error
	// Recent returns the events matching q, newest first.
	Recent(ctx context.Context, q models.EventQuery) ([]models.ControlEvent, error)
}

type Repository struct {
	Telemetry TelemetryRepo
	Events    EventRepo
}

// NewRepository wires the in-memory telemetry log and the SQLite event log.
func NewRepository(db *sql.DB, telemetryCapacity int) *Repository {
	return &Repository{
		Telemetry: NewTelemetryRing(telemetryCapacity),
		Events:    NewEventSQLite(db),
	}
}
