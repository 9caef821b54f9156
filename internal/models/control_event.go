package models

import "time"

// Control event types.
const (
	EventSettingsUpdate       = "SETTINGS_UPDATE"
	EventModeChange           = "MODE_CHANGE"
	EventMotorTargets         = "MOTOR_TARGETS"
	EventCalibrationTrigger   = "CALIBRATION_TRIGGER"
	EventCalibrationDelivered = "CALIBRATION_DELIVERED"
	EventAutoRevert           = "AUTO_REVERT"
)

// EventTypes lists every control event type.
var EventTypes = []string{
	EventSettingsUpdate,
	EventModeChange,
	EventMotorTargets,
	EventCalibrationTrigger,
	EventCalibrationDelivered,
	EventAutoRevert,
}

// IsEventType reports whether s is one of EventTypes (exact match).
func IsEventType(s string) bool {
	for _, t := range EventTypes {
		if s == t {
			return true
		}
	}
	return false
}

// ControlEvent is a single audit entry of a state change.
type ControlEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

// EventQuery selects recent control events. Zero values filter nothing.
type EventQuery struct {
	Since time.Time // exclusive: only events after this instant
	Types []string  // any of these types
	Limit int       // at most this many, newest first
}
