package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"solar_follower/internal/models"
	"solar_follower/internal/repository"
	"solar_follower/internal/repository/db"
	"solar_follower/internal/service"
)

func TestGetEvents_PassesQuery(t *testing.T) {
	logs := &mockEventLog{resp: []models.ControlEvent{
		{EventID: "e2", Type: models.EventAutoRevert},
		{EventID: "e1", Type: models.EventModeChange},
	}}
	r := newTestRouter(&service.Service{EventLog: logs})

	w := doJSON(t, r, http.MethodGet, "/api/events?since=1751630400&type=auto_revert,mode_change&type=calibration_delivered&limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                   `json:"count"`
		Events []models.ControlEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || out.Events[0].EventID != "e2" {
		t.Fatalf("unexpected response: %+v", out)
	}

	q := logs.lastQuery
	if !q.Since.Equal(time.Unix(1751630400, 0)) {
		t.Fatalf("since = %v", q.Since)
	}
	if len(q.Types) != 3 || q.Types[0] != "auto_revert" || q.Types[2] != "calibration_delivered" {
		t.Fatalf("types = %q", q.Types)
	}
	if q.Limit != 5 {
		t.Fatalf("limit = %d", q.Limit)
	}
}

func TestGetEvents_SinceAcceptsRFC3339(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{EventLog: logs})

	if w := doJSON(t, r, http.MethodGet, "/api/events?since=2025-07-04T14:00:00%2B02:00", ""); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	if !logs.lastQuery.Since.Equal(want) || logs.lastQuery.Since.Location() != time.UTC {
		t.Fatalf("since = %v; want %v", logs.lastQuery.Since, want)
	}
}

func TestGetEvents_BadParams(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{EventLog: logs})

	for _, path := range []string{
		"/api/events?since=yesterday",
		"/api/events?limit=ten",
	} {
		if w := doJSON(t, r, http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want 400", path, w.Code)
		}
	}
	if logs.calls != 0 {
		t.Fatalf("service must not be called for unparsable params")
	}
}

func TestGetEvents_ServiceErrors(t *testing.T) {
	logs := &mockEventLog{err: &service.ValidationError{Field: "type", Reason: "unknown event type X"}}
	r := newTestRouter(&service.Service{EventLog: logs})

	w := doJSON(t, r, http.MethodGet, "/api/events?type=x", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("validation error: status=%d want 400", w.Code)
	}

	logs.err = errors.New("db down")
	w = doJSON(t, r, http.MethodGet, "/api/events", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("repo error: status=%d want 500", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != errListEvents {
		t.Fatalf("unexpected body: %v", body)
	}
}

// Control actions taken through the API show up newest first, filtered by type.
func TestGetEvents_RecordsControlActions(t *testing.T) {
	conn, err := db.InitDB(db.MemoryPath)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	repos := repository.NewRepository(conn, 10)
	r := newTestRouter(service.NewService(repos, service.Options{}))

	if w := doJSON(t, r, http.MethodPost, "/api/mode", `{"manual_mode":true}`); w.Code != http.StatusOK {
		t.Fatalf("mode: status=%d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/motor_targets", `{"motor1_target":10}`); w.Code != http.StatusOK {
		t.Fatalf("motor targets: status=%d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/calibration", `{"calibration":true}`); w.Code != http.StatusOK {
		t.Fatalf("calibration: status=%d", w.Code)
	}

	var out struct {
		Count  int                   `json:"count"`
		Events []models.ControlEvent `json:"events"`
	}
	w := doJSON(t, r, http.MethodGet, "/api/events?type=mode_change,motor_targets", "")
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal %s: %v", w.Body.String(), err)
	}
	if out.Count != 2 || out.Events[0].Type != models.EventMotorTargets || out.Events[1].Type != models.EventModeChange {
		t.Fatalf("want MOTOR_TARGETS then MODE_CHANGE, got %+v", out.Events)
	}

	w = doJSON(t, r, http.MethodGet, "/api/events?limit=1", "")
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || out.Events[0].Type != models.EventCalibrationTrigger {
		t.Fatalf("want only the newest event, got %+v", out.Events)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/events?type=sunset", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown type: status=%d want 400", w.Code)
	}
}
