package models

import "time"

// TelemetrySample is one measurement record reported by the device.
// Values are passed through untouched; absent fields stay nil.
type TelemetrySample struct {
	Wind        any       `json:"wind"`
	Sunrise     any       `json:"sunrise"`
	Sunset      any       `json:"sunset"`
	SunHours    any       `json:"sunhours"`
	Motor1      any       `json:"motor1"`
	Motor2      any       `json:"motor2"`
	Manual      any       `json:"manuell"`
	Voltage     any       `json:"voltage"`
	Current     any       `json:"current"`
	CoordsCheck any       `json:"coordscheck"`
	DeviceTime  any       `json:"zeit"` // device clock only, never server time
	ReceivedAt  time.Time `json:"received_at"`
}
