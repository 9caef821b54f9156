package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"solar_follower/internal/models"
	"solar_follower/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	schemaLegacy    = "legacy"
	schemaCanonical = "canonical"

	// schemaKey carries a route's default response key set in the gin context.
	schemaKey = "settings_schema"
)

var (
	errBodyNotObject = errors.New("body must be a JSON object")
	errBodyMissing   = errors.New("request body is required")
	errTrailingData  = errors.New("unexpected data after JSON object")
)

// legacyAliases maps older firmware/UI key names onto canonical field names.
// Order matters when two aliases name the same field: the first one present wins.
var legacyAliases = []struct {
	alias     string
	canonical string
}{
	{"powertracker", service.FieldWLANOutletIP},
	{"werkseinstellungbool", service.FieldFactoryReset},
	{"motor1_Zielwert", service.FieldMotor1Target},
	{"motor2_Zielwert", service.FieldMotor2Target},
	{"manuell", service.FieldManualMode},
	{"aktiv", service.FieldManualMode},
	{"schneemodus", service.FieldSnowMode},
	{"laufzeit", service.FieldOutletRuntime},
	{"utc", service.FieldUTCOffset},
}

// canonicalFields rewrites alias keys to canonical ones. A canonical key
// sent alongside its alias wins. Unknown keys are passed through.
func canonicalFields(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	isAlias := make(map[string]bool, len(legacyAliases))
	for _, a := range legacyAliases {
		isAlias[a.alias] = true
	}
	for k, v := range raw {
		if !isAlias[k] {
			out[k] = v
		}
	}
	for _, a := range legacyAliases {
		v, ok := raw[a.alias]
		if !ok {
			continue
		}
		if _, taken := out[a.canonical]; taken {
			continue
		}
		out[a.canonical] = v
	}
	return out
}

// decodeObject reads the body as a JSON object with numbers kept as json.Number.
// With allowEmpty an empty body yields an empty map.
func decodeObject(c *gin.Context, allowEmpty bool) (map[string]any, error) {
	if c.Request.Body == nil {
		if allowEmpty {
			return map[string]any{}, nil
		}
		return nil, errBodyMissing
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return map[string]any{}, nil
			}
			return nil, errBodyMissing
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errTrailingData
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errBodyNotObject
	}
	return obj, nil
}

// legacySchema marks firmware routes: they answer with the legacy key set
// unless ?schema= asks for something else.
func legacySchema(c *gin.Context) {
	c.Set(schemaKey, schemaLegacy)
	c.Next()
}

// responseSchema picks the key set: ?schema= first, then the route default.
func responseSchema(c *gin.Context) string {
	if q := c.Query("schema"); q != "" {
		return q
	}
	return c.GetString(schemaKey)
}

// renderSettings builds the response body for a settings view in the key
// set chosen by responseSchema. The legacy set also carries motor1_target and
// motor2_target, which firmware reads under those names.
func renderSettings(c *gin.Context, s models.Settings) gin.H {
	if responseSchema(c) == schemaLegacy {
		return gin.H{
			"latitude":             s.Latitude(),
			"longitude":            s.Longitude(),
			"powertracker":         s.WLANOutletIP,
			"outlet_ip":            s.OutletIP,
			"laufzeit":             s.OutletRuntime,
			"utc":                  s.UTCOffset,
			"werkseinstellungbool": s.FactoryReset,
			"motor1_Zielwert":      s.Motor1Target,
			"motor2_Zielwert":      s.Motor2Target,
			"motor1_target":        s.Motor1Target,
			"motor2_target":        s.Motor2Target,
			"manuell":              s.ManualMode,
			"schneemodus":          s.SnowMode,
			"calibration":          s.Calibration,
			"last_heartbeat":       s.LastHeartbeat,
		}
	}
	return gin.H{
		"latitude":          s.Latitude(),
		"longitude":         s.Longitude(),
		"wlan_outlet_ip":    s.WLANOutletIP,
		"outlet_ip":         s.OutletIP,
		"outlet_runtime":    s.OutletRuntime,
		"utc_offset":        s.UTCOffset,
		"factory_reset":     s.FactoryReset,
		"motor1_target":     s.Motor1Target,
		"motor2_target":     s.Motor2Target,
		"manual_mode":       s.ManualMode,
		"snow_mode":         s.SnowMode,
		"calibration":       s.Calibration,
		"last_heartbeat":    s.LastHeartbeat,
		"controller_online": s.ControllerOnline,
	}
}

// sampleFromFields maps a decoded telemetry object onto a sample.
// Absent keys stay nil.
func sampleFromFields(m map[string]any) models.TelemetrySample {
	s := models.TelemetrySample{
		Wind:        m["wind"],
		Sunrise:     m["sunrise"],
		Sunset:      m["sunset"],
		SunHours:    m["sunhours"],
		Motor1:      m["motor1"],
		Motor2:      m["motor2"],
		Manual:      m["manuell"],
		Voltage:     m["voltage"],
		Current:     m["current"],
		CoordsCheck: m["coordscheck"],
		DeviceTime:  m["zeit"],
	}
	if v, ok := m["manual"]; ok {
		s.Manual = v
	}
	return s
}
