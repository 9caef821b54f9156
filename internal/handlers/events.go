package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"solar_follower/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errSinceInvalid = "invalid 'since'; use unix seconds or RFC3339"
	errLimitInvalid = "invalid 'limit'; use a whole number"
	errListEvents   = "failed to load events"
)

// @Summary      Recent control events
// @Description  Audit trail of settings changes, mode changes, calibration and auto-reverts, newest first. 'since' takes unix seconds (the last_heartbeat format) or RFC3339 and is exclusive, so a client can poll with the newest time it has seen.
// @Tags         events
// @Produce      json
// @Param        since  query  string  false  "Only events after this time (unix seconds or RFC3339)"  example(1751630400)
// @Param        type   query  string  false  "Event type; comma-separated or repeated for several"  Enums(SETTINGS_UPDATE,MODE_CHANGE,MOTOR_TARGETS,CALIBRATION_TRIGGER,CALIBRATION_DELIVERED,AUTO_REVERT)
// @Param        limit  query  int     false  "Maximum events (default 50, max 200)"
// @Success      200  {object}  map[string]interface{}  "count, events"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/events [get]
func (h *Handler) getEvents(c *gin.Context) {
	const endpoint = "events"
	var q models.EventQuery

	if v := c.Query("since"); v != "" {
		since, err := parseSince(v)
		if err != nil {
			h.badRequest(c, endpoint, errSinceInvalid)
			return
		}
		q.Since = since
	}
	for _, v := range c.QueryArray("type") {
		q.Types = append(q.Types, strings.Split(v, ",")...)
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.badRequest(c, endpoint, errLimitInvalid)
			return
		}
		q.Limit = n
	}

	events, err := h.services.EventLog.List(c.Request.Context(), q)
	if err != nil {
		h.respondServiceError(c, endpoint, errListEvents, "events_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// parseSince accepts unix seconds or an RFC3339 timestamp.
func parseSince(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
