package models

// Coordinates is the tracker location. Latitude and longitude only exist as a pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Settings is one view of the shared settings/state slots.
type Settings struct {
	Coordinates      *Coordinates `json:"-"`
	WLANOutletIP     *string      `json:"wlan_outlet_ip"`
	OutletIP         *string      `json:"outlet_ip"`
	OutletRuntime    *int         `json:"outlet_runtime"`
	UTCOffset        *string      `json:"utc_offset"`
	Motor1Target     *int         `json:"motor1_target"`
	Motor2Target     *int         `json:"motor2_target"`
	FactoryReset     bool         `json:"factory_reset"`
	ManualMode       bool         `json:"manual_mode"`
	SnowMode         bool         `json:"snow_mode"`
	Calibration      bool         `json:"calibration"`
	LastHeartbeat    int64        `json:"last_heartbeat"` // unix seconds, 0 = never
	ControllerOnline bool         `json:"controller_online"`
}

// Latitude returns the stored latitude or nil.
func (s Settings) Latitude() *float64 {
	if s.Coordinates == nil {
		return nil
	}
	v := s.Coordinates.Latitude
	return &v
}

// Longitude returns the stored longitude or nil.
func (s Settings) Longitude() *float64 {
	if s.Coordinates == nil {
		return nil
	}
	v := s.Coordinates.Longitude
	return &v
}

// SettingsPatch is a validated partial update. Nil fields are left untouched.
type SettingsPatch struct {
	Coordinates   *Coordinates
	WLANOutletIP  *string
	OutletIP      *string
	OutletRuntime *int
	UTCOffset     *string
	FactoryReset  *bool
	Motor1Target  *int
	Motor2Target  *int
	ManualMode    *bool
	SnowMode      *bool
}

// Empty reports whether the patch carries no field at all.
func (p SettingsPatch) Empty() bool {
	return p.Coordinates == nil &&
		p.WLANOutletIP == nil &&
		p.OutletIP == nil &&
		p.OutletRuntime == nil &&
		p.UTCOffset == nil &&
		p.FactoryReset == nil &&
		p.Motor1Target == nil &&
		p.Motor2Target == nil &&
		p.ManualMode == nil &&
		p.SnowMode == nil
}

// Fields lists the canonical names of the fields present in the patch.
func (p SettingsPatch) Fields() []string {
	var out []string
	if p.Coordinates != nil {
		out = append(out, "latitude", "longitude")
	}
	if p.WLANOutletIP != nil {
		out = append(out, "wlan_outlet_ip")
	}
	if p.OutletIP != nil {
		out = append(out, "outlet_ip")
	}
	if p.OutletRuntime != nil {
		out = append(out, "outlet_runtime")
	}
	if p.UTCOffset != nil {
		out = append(out, "utc_offset")
	}
	if p.FactoryReset != nil {
		out = append(out, "factory_reset")
	}
	if p.Motor1Target != nil {
		out = append(out, "motor1_target")
	}
	if p.Motor2Target != nil {
		out = append(out, "motor2_target")
	}
	if p.ManualMode != nil {
		out = append(out, "manual_mode")
	}
	if p.SnowMode != nil {
		out = append(out, "snow_mode")
	}
	return out
}
