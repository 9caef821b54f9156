package repository

import (
	"context"
	"sync"

	"solar_follower/internal/models"
)

// DefaultTelemetryCapacity bounds the telemetry log.
const DefaultTelemetryCapacity = 1000

// TelemetryRing is a fixed-size FIFO of samples. When full, Append evicts the oldest sample.
type TelemetryRing struct {
	mu   sync.Mutex
	buf  []models.TelemetrySample
	head int // index of the oldest sample
	size int
}

// NewTelemetryRing allocates a ring; non-positive capacities use DefaultTelemetryCapacity.
func NewTelemetryRing(capacity int) *TelemetryRing {
	if capacity <= 0 {
		capacity = DefaultTelemetryCapacity
	}
	return &TelemetryRing{buf: make([]models.TelemetrySample, capacity)}
}

var _ TelemetryRepo = (*TelemetryRing)(nil)

// Append adds s at the tail.
func (r *TelemetryRing) Append(_ context.Context, s models.TelemetrySample) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capacity := len(r.buf)
	if r.size < capacity {
		r.buf[(r.head+r.size)%capacity] = s
		r.size++
		return r.size, nil
	}
	r.buf[r.head] = s
	r.head = (r.head + 1) % capacity
	return r.size, nil
}

// List returns a copy of the stored samples, oldest first.
func (r *TelemetryRing) List(_ context.Context) ([]models.TelemetrySample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.TelemetrySample, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out, nil
}

// Len returns the number of stored samples.
func (r *TelemetryRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap returns the ring capacity.
func (r *TelemetryRing) Cap() int {
	return len(r.buf)
}
