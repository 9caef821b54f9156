package service

import (
	"context"
	"time"
)

// livenessEnforcer is the part of the settings store the watchdog drives.
type livenessEnforcer interface {
	EnforceLiveness(ctx context.Context) bool
}

// WatchdogService reverts stale overrides even while the device is not polling,
// so the controller view catches up without waiting for the next device read.
type WatchdogService struct {
	settings livenessEnforcer
}

func NewWatchdogService(settings livenessEnforcer) *WatchdogService {
	return &WatchdogService{settings: settings}
}

// Run ticks at the given interval until ctx is canceled. A non-positive tick disables the sweep.
func (w *WatchdogService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		return
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.settings.EnforceLiveness(ctx)
		}
	}
}
