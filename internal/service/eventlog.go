package service

import (
	"context"
	"strings"

	"solar_follower/internal/models"
	"solar_follower/internal/repository"
)

// Page size of the control-event history.
const (
	DefaultEventLimit = 50
	MaxEventLimit     = 200
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// List returns the most recent control events matching q, newest first.
// Unknown types and negative limits are rejected with a *ValidationError.
func (s *EventLogService) List(ctx context.Context, q models.EventQuery) ([]models.ControlEvent, error) {
	q, err := normalizeEventQuery(q)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.Recent(ctx, q)
}

// normalizeEventQuery uppercases and dedupes types, applies the page limits and
// moves Since to UTC.
func normalizeEventQuery(q models.EventQuery) (models.EventQuery, error) {
	switch {
	case q.Limit < 0:
		return models.EventQuery{}, invalid("limit", "must not be negative")
	case q.Limit == 0:
		q.Limit = DefaultEventLimit
	case q.Limit > MaxEventLimit:
		q.Limit = MaxEventLimit
	}

	var types []string
	seen := make(map[string]bool, len(q.Types))
	for _, raw := range q.Types {
		t := strings.ToUpper(strings.TrimSpace(raw))
		if t == "" || seen[t] {
			continue
		}
		if !models.IsEventType(t) {
			return models.EventQuery{}, invalid("type", "unknown event type "+strings.TrimSpace(raw))
		}
		seen[t] = true
		types = append(types, t)
	}
	q.Types = types

	if !q.Since.IsZero() {
		q.Since = q.Since.UTC()
	}
	return q, nil
}
