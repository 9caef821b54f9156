package sink

import (
	"context"
	"time"

	"solar_follower/internal/config"
	"solar_follower/internal/logger"
	"solar_follower/internal/models"

	"github.com/sony/gobreaker"
)

// Recorder is one telemetry destination.
type Recorder interface {
	Name() string
	Record(ctx context.Context, s models.TelemetrySample) error
}

// Breaker stops calling a failing sink for a while so a dead broker
// does not slow down every ingest.
type Breaker struct {
	next Recorder
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next Recorder, cfg config.BreakerConfig, log *logger.Logger) *Breaker {
	fails := cfg.MaxFailures
	if fails == 0 {
		fails = 1
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    next.Name(),
			Timeout: timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= fails
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if log != nil {
					log.Warnw("sink_breaker_state", "sink", name, "from", from.String(), "to", to.String())
				}
			},
		}),
	}
}

func (b *Breaker) Name() string { return b.next.Name() }

// Record forwards to the wrapped sink, or fails fast with
// gobreaker.ErrOpenState while the breaker is open.
func (b *Breaker) Record(ctx context.Context, s models.TelemetrySample) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Record(ctx, s)
	})
	return err
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }
