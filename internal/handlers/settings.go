package handlers

import (
	"net/http"

	"solar_follower/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errInvalidBodyPref    = "invalid body: "
	errUpdateSettings     = "failed to update settings"
	errSetMode            = "failed to set mode"
	errSetMotorTargets    = "failed to set motor targets"
	errCalibrationNotTrue = "calibration must be exactly true"
	errModeMissing        = "manual_mode or snow_mode is required"
	errMotorMissing       = "motor1_target or motor2_target is required"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// badRequest answers 400 with the reason and counts the rejection.
func (h *Handler) badRequest(c *gin.Context, endpoint, reason string) {
	h.metrics.ValidationFailed(endpoint)
	c.JSON(http.StatusBadRequest, gin.H{"error": reason})
}

// respondServiceError maps *service.ValidationError to 400 and anything else to 500.
func (h *Handler) respondServiceError(c *gin.Context, endpoint, userMsg, logKey string, err error) {
	if service.IsValidation(err) {
		h.badRequest(c, endpoint, err.Error())
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err, "endpoint", endpoint)
}

// SettingsRequest documents the accepted settings keys for Swagger.
// Every key is optional; legacy aliases are accepted as well.
type SettingsRequest struct {
	Latitude      *float64 `json:"latitude,omitempty" example:"48.137"`
	Longitude     *float64 `json:"longitude,omitempty" example:"11.575"`
	WLANOutletIP  *string  `json:"wlan_outlet_ip,omitempty" example:"outlet.local"`
	OutletIP      *string  `json:"outlet_ip,omitempty" example:"192.168.1.40"`
	OutletRuntime *int     `json:"outlet_runtime,omitempty" example:"30"`
	UTCOffset     *string  `json:"utc_offset,omitempty" example:"+02:00"`
	FactoryReset  *bool    `json:"factory_reset,omitempty" example:"false"`
}

// ModeRequest documents the mode payload for Swagger.
type ModeRequest struct {
	ManualMode *bool `json:"manual_mode,omitempty" example:"true"`
	SnowMode   *bool `json:"snow_mode,omitempty" example:"false"`
}

// MotorTargetsRequest documents the motor targets payload for Swagger.
type MotorTargetsRequest struct {
	Motor1Target *int `json:"motor1_target,omitempty" example:"120"`
	Motor2Target *int `json:"motor2_target,omitempty" example:"45"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Update settings
// @Description  Validates every supplied field and commits all of them or none. Latitude and longitude must be sent together.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body    body   SettingsRequest  true   "Any subset of settings"
// @Param        schema  query  string           false  "Response key set"  Enums(legacy, canonical)
// @Success      200  {object}  map[string]interface{}  "status and current values"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/settings [post]
func (h *Handler) updateSettings(c *gin.Context) {
	const endpoint = "settings"
	raw, err := decodeObject(c, true)
	if err != nil {
		h.badRequest(c, endpoint, errInvalidBodyPref+err.Error())
		return
	}
	view, err := h.services.ApplyUpdate(c.Request.Context(), canonicalFields(raw))
	if err != nil {
		h.respondServiceError(c, endpoint, errUpdateSettings, "settings_update_failed", err)
		return
	}
	resp := renderSettings(c, view)
	resp["status"] = statusOK
	c.JSON(http.StatusOK, resp)
}

// @Summary      Read settings (device)
// @Description  Device poll. Reverts overrides after a lost heartbeat and delivers a pending calibration request exactly once.
// @Tags         settings
// @Produce      json
// @Param        schema  query  string  false  "Response key set"  Enums(legacy, canonical)
// @Success      200  {object}  map[string]interface{}
// @Router       /api/settings [get]
func (h *Handler) readSettings(c *gin.Context) {
	c.JSON(http.StatusOK, renderSettings(c, h.services.ReadSnapshot(c.Request.Context())))
}

// @Summary      Read settings (controller)
// @Description  Current values without side effects; calibration reports a request still waiting for the device.
// @Tags         settings
// @Produce      json
// @Param        schema  query  string  false  "Response key set"  Enums(legacy, canonical)
// @Success      200  {object}  map[string]interface{}
// @Router       /api/settings/current [get]
func (h *Handler) currentSettings(c *gin.Context) {
	c.JSON(http.StatusOK, renderSettings(c, h.services.Current(c.Request.Context())))
}

// @Summary      Set override modes
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body   ModeRequest  true  "manual_mode and/or snow_mode"
// @Success      200  {object}  map[string]bool  "manual, snow_mode"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/mode [post]
func (h *Handler) setMode(c *gin.Context) {
	const endpoint = "mode"
	raw, err := decodeObject(c, true)
	if err != nil {
		h.badRequest(c, endpoint, errInvalidBodyPref+err.Error())
		return
	}
	fields := canonicalFields(raw)

	var manual, snow *bool
	if v, ok := fields[service.FieldManualMode]; ok {
		b, err := service.ParseBool(service.FieldManualMode, v)
		if err != nil {
			h.badRequest(c, endpoint, err.Error())
			return
		}
		manual = &b
	}
	if v, ok := fields[service.FieldSnowMode]; ok {
		b, err := service.ParseBool(service.FieldSnowMode, v)
		if err != nil {
			h.badRequest(c, endpoint, err.Error())
			return
		}
		snow = &b
	}
	if manual == nil && snow == nil {
		h.badRequest(c, endpoint, errModeMissing)
		return
	}

	view, err := h.services.SetModes(c.Request.Context(), manual, snow)
	if err != nil {
		h.respondServiceError(c, endpoint, errSetMode, "mode_set_failed", err)
		return
	}
	resp := gin.H{
		"manual":    view.ManualMode,
		"snow_mode": view.SnowMode,
	}
	if responseSchema(c) == schemaLegacy {
		resp["manuell"] = view.ManualMode
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Set motor targets
// @Description  Either target may be sent alone; the other keeps its value.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body   MotorTargetsRequest  true  "motor1_target and/or motor2_target"
// @Success      200  {object}  map[string]interface{}  "status, motor1_target, motor2_target"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/motor_targets [post]
func (h *Handler) setMotorTargets(c *gin.Context) {
	const endpoint = "motor_targets"
	raw, err := decodeObject(c, true)
	if err != nil {
		h.badRequest(c, endpoint, errInvalidBodyPref+err.Error())
		return
	}
	fields := canonicalFields(raw)

	var m1, m2 *int
	if v, ok := fields[service.FieldMotor1Target]; ok {
		n, err := service.ParseInt(service.FieldMotor1Target, v)
		if err != nil {
			h.badRequest(c, endpoint, err.Error())
			return
		}
		m1 = &n
	}
	if v, ok := fields[service.FieldMotor2Target]; ok {
		n, err := service.ParseInt(service.FieldMotor2Target, v)
		if err != nil {
			h.badRequest(c, endpoint, err.Error())
			return
		}
		m2 = &n
	}
	if m1 == nil && m2 == nil {
		h.badRequest(c, endpoint, errMotorMissing)
		return
	}

	view, err := h.services.SetMotorTargets(c.Request.Context(), m1, m2)
	if err != nil {
		h.respondServiceError(c, endpoint, errSetMotorTargets, "motor_targets_set_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        statusOK,
		"motor1_target": view.Motor1Target,
		"motor2_target": view.Motor2Target,
	})
}

// @Summary      Trigger calibration
// @Description  The next device read of /api/settings sees calibration=true once.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  map[string]bool  true  "{\"calibration\": true}"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /api/calibration [post]
func (h *Handler) triggerCalibration(c *gin.Context) {
	const endpoint = "calibration"
	raw, err := decodeObject(c, true)
	if err != nil {
		h.badRequest(c, endpoint, errInvalidBodyPref+err.Error())
		return
	}
	if v, ok := raw["calibration"].(bool); !ok || !v {
		h.badRequest(c, endpoint, errCalibrationNotTrue)
		return
	}
	h.services.TriggerCalibration(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Controller heartbeat
// @Description  Keeps manual and snow mode alive. Without a heartbeat for 60s they revert to automatic.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, last_heartbeat"
// @Router       /api/heartbeat [post]
func (h *Handler) heartbeat(c *gin.Context) {
	last := h.services.Heartbeat(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":         statusOK,
		"last_heartbeat": last.Unix(),
	})
}
