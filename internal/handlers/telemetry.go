package handlers

import (
	"net/http"

	"solar_follower/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errIngestTelemetry = "failed to store telemetry"
	errListTelemetry   = "failed to load telemetry"
)

// @Summary      Ingest telemetry
// @Description  Device measurements are stored as sent; absent keys become null.
// @Tags         telemetry
// @Accept       json
// @Produce      json
// @Param        body  body  models.TelemetrySample  true  "Device sample"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/telemetry [post]
func (h *Handler) ingestTelemetry(c *gin.Context) {
	raw, err := decodeObject(c, false)
	if err != nil {
		h.badRequest(c, "telemetry", errInvalidBodyPref+err.Error())
		return
	}
	if err := h.services.Ingest(c.Request.Context(), sampleFromFields(raw)); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errIngestTelemetry, "telemetry_ingest_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      List telemetry
// @Description  Up to the last 1000 samples, oldest first.
// @Tags         telemetry
// @Produce      json
// @Success      200  {array}   models.TelemetrySample
// @Failure      500  {object}  map[string]string
// @Router       /api/telemetry [get]
func (h *Handler) listTelemetry(c *gin.Context) {
	samples, err := h.services.Telemetry.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListTelemetry, "telemetry_list_failed", err)
		return
	}
	if samples == nil {
		samples = []models.TelemetrySample{}
	}
	c.JSON(http.StatusOK, samples)
}
