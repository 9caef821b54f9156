package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"solar_follower/internal/models"
)

// Canonical field keys accepted by the settings store.
const (
	FieldLatitude      = "latitude"
	FieldLongitude     = "longitude"
	FieldWLANOutletIP  = "wlan_outlet_ip"
	FieldOutletIP      = "outlet_ip"
	FieldOutletRuntime = "outlet_runtime"
	FieldUTCOffset     = "utc_offset"
	FieldFactoryReset  = "factory_reset"
	FieldMotor1Target  = "motor1_target"
	FieldMotor2Target  = "motor2_target"
	FieldManualMode    = "manual_mode"
	FieldSnowMode      = "snow_mode"
)

// UTC offset bounds in minutes.
const (
	minUTCOffsetMinutes = -12 * 60
	maxUTCOffsetMinutes = 14 * 60
)

// ValidationError is a client-facing rejection of one input value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// ErrNoValidFields is returned when an update names none of the known fields.
var ErrNoValidFields = &ValidationError{Reason: "no valid fields supplied"}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

var utcOffsetPattern = regexp.MustCompile(`^[+-]\d{2}:\d{2}$`)

// ParseCoordinates validates a latitude/longitude pair.
// latOK and lonOK tell whether each key was present at all.
func ParseCoordinates(lat, lon any, latOK, lonOK bool) (models.Coordinates, error) {
	if latOK != lonOK {
		return models.Coordinates{}, invalid("latitude/longitude", "must be sent together")
	}
	la, err := toFloat(lat)
	if err != nil {
		return models.Coordinates{}, invalid(FieldLatitude, "must be numeric")
	}
	lo, err := toFloat(lon)
	if err != nil {
		return models.Coordinates{}, invalid(FieldLongitude, "must be numeric")
	}
	return models.Coordinates{Latitude: la, Longitude: lo}, nil
}

// ParseIPv4 accepts a dotted quad with every octet in [0,255].
func ParseIPv4(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid(FieldOutletIP, "must be a string")
	}
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return "", invalid(FieldOutletIP, "must have exactly 4 octets")
	}
	for _, p := range parts {
		if p == "" || !allDigits(p) {
			return "", invalid(FieldOutletIP, "octets must be decimal numbers")
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return "", invalid(FieldOutletIP, "octets must be between 0 and 255")
		}
	}
	return s, nil
}

// ParseUTCOffset accepts "±HH:MM" between -12:00 and +14:00.
// Any minute value 0-59 is allowed.
func ParseUTCOffset(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid(FieldUTCOffset, "must be a string")
	}
	if !utcOffsetPattern.MatchString(s) {
		return "", invalid(FieldUTCOffset, "must look like +HH:MM or -HH:MM")
	}
	hours, _ := strconv.Atoi(s[1:3])
	minutes, _ := strconv.Atoi(s[4:6])
	if minutes > 59 {
		return "", invalid(FieldUTCOffset, "minutes must be between 00 and 59")
	}
	total := hours*60 + minutes
	if s[0] == '-' {
		total = -total
	}
	if total < minUTCOffsetMinutes || total > maxUTCOffsetMinutes {
		return "", invalid(FieldUTCOffset, "must be between -12:00 and +14:00")
	}
	return s, nil
}

// ParseInt coerces v to an int without losing information.
func ParseInt(field string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return intFromInt64(field, n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intFromInt64(field, i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, invalid(field, "must be an integer")
		}
		return intFromFloat(field, f)
	case float64:
		return intFromFloat(field, n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, invalid(field, "must be an integer")
		}
		return intFromInt64(field, i)
	default:
		return 0, invalid(field, "must be an integer")
	}
}

// ParseBool accepts only a real boolean, no truthy coercion.
func ParseBool(field string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, invalid(field, "must be true or false")
	}
	return b, nil
}

// ParseNonEmpty trims a string and rejects it when nothing is left.
func ParseNonEmpty(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid(field, "must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(field, "must not be empty")
	}
	return s, nil
}

// ParsePatch validates every known field present in fields and builds a patch.
// The first failure aborts the whole patch; unknown keys are ignored.
func ParsePatch(fields map[string]any) (models.SettingsPatch, error) {
	var p models.SettingsPatch

	lat, latOK := fields[FieldLatitude]
	lon, lonOK := fields[FieldLongitude]
	if latOK || lonOK {
		c, err := ParseCoordinates(lat, lon, latOK, lonOK)
		if err != nil {
			return models.SettingsPatch{}, err
		}
		p.Coordinates = &c
	}

	if v, ok := fields[FieldWLANOutletIP]; ok {
		s, err := ParseNonEmpty(FieldWLANOutletIP, v)
		if err != nil {
			return models.SettingsPatch{}, err
		}
		p.WLANOutletIP = &s
	}
	if v, ok := fields[FieldOutletIP]; ok {
		s, err := ParseIPv4(v)
		if err != nil {
			return models.SettingsPatch{}, err
		}
		p.OutletIP = &s
	}
	if v, ok := fields[FieldOutletRuntime]; ok {
		n, err := ParseInt(FieldOutletRuntime, v)
		if err != nil {
			return models.SettingsPatch{}, err
		}
		p.OutletRuntime = &n
	}
	if v, ok := fields[FieldUTCOffset]; ok {
		s, err := ParseUTCOffset(v)
		if err != nil {
			return models.SettingsPatch{}, err
		}
		p.UTCOffset = &s
	}

	var err error
	if p.FactoryReset, err = optionalBool(fields, FieldFactoryReset); err != nil {
		return models.SettingsPatch{}, err
	}
	if p.Motor1Target, err = optionalInt(fields, FieldMotor1Target); err != nil {
		return models.SettingsPatch{}, err
	}
	if p.Motor2Target, err = optionalInt(fields, FieldMotor2Target); err != nil {
		return models.SettingsPatch{}, err
	}
	if p.ManualMode, err = optionalBool(fields, FieldManualMode); err != nil {
		return models.SettingsPatch{}, err
	}
	if p.SnowMode, err = optionalBool(fields, FieldSnowMode); err != nil {
		return models.SettingsPatch{}, err
	}

	if p.Empty() {
		return models.SettingsPatch{}, ErrNoValidFields
	}
	return p, nil
}

func optionalBool(fields map[string]any, key string) (*bool, error) {
	v, ok := fields[key]
	if !ok {
		return nil, nil
	}
	b, err := ParseBool(key, v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func optionalInt(fields map[string]any, key string) (*int, error) {
	v, ok := fields[key]
	if !ok {
		return nil, nil
	}
	n, err := ParseInt(key, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// toFloat accepts JSON numbers and numeric strings; NaN and Inf are rejected.
func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a finite number")
	}
	return f, nil
}

func intFromInt64(field string, i int64) (int, error) {
	if int64(int(i)) != i {
		return 0, invalid(field, "is out of range")
	}
	return int(i), nil
}

func intFromFloat(field string, f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalid(field, "must be an integer")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, invalid(field, "is out of range")
	}
	return intFromInt64(field, int64(f))
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
