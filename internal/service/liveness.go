package service

import "time"

// DefaultLivenessTimeout is how long overrides survive without a controller heartbeat.
const DefaultLivenessTimeout = 60 * time.Second

// Liveness derives controller presence from the last heartbeat.
type Liveness struct {
	Timeout time.Duration
}

// NewLiveness returns a monitor; non-positive timeouts fall back to the default.
func NewLiveness(timeout time.Duration) Liveness {
	if timeout <= 0 {
		timeout = DefaultLivenessTimeout
	}
	return Liveness{Timeout: timeout}
}

// Expired reports whether the controller counts as gone at now.
// A zero heartbeat means the controller was never seen.
func (l Liveness) Expired(now, lastHeartbeat time.Time) bool {
	if lastHeartbeat.IsZero() {
		return true
	}
	return now.Sub(lastHeartbeat) > l.Timeout
}

// Revert forces manual and snow mode back to automatic when the controller is gone.
// It returns the modes it cleared. AUTO never becomes ACTIVE here.
func (l Liveness) Revert(st *settingsState, now time.Time) (manual, snow bool) {
	if !st.manualMode && !st.snowMode {
		return false, false
	}
	if !l.Expired(now, st.lastHeartbeat) {
		return false, false
	}
	manual, snow = st.manualMode, st.snowMode
	st.manualMode = false
	st.snowMode = false
	return manual, snow
}
