package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solar_follower/internal/models"
	"solar_follower/internal/service"
)

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return out
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestUpdateSettings_CanonicalizesAndEchoes(t *testing.T) {
	set := &mockSettings{view: models.Settings{
		Coordinates:  &models.Coordinates{Latitude: 48.1, Longitude: 11.5},
		WLANOutletIP: strPtr("outlet.local"),
	}}
	r := newTestRouter(&service.Service{Settings: set})

	w := doJSON(t, r, http.MethodPost, "/api/settings", `{"latitude":48.1,"longitude":11.5,"powertracker":"outlet.local","laufzeit":30}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	if _, ok := set.lastFields["powertracker"]; ok {
		t.Fatalf("alias must be rewritten before reaching the service: %v", set.lastFields)
	}
	if set.lastFields["wlan_outlet_ip"] != "outlet.local" {
		t.Fatalf("wlan_outlet_ip = %v", set.lastFields["wlan_outlet_ip"])
	}
	if n, ok := set.lastFields["outlet_runtime"].(json.Number); !ok || n.String() != "30" {
		t.Fatalf("numbers must reach the service as json.Number, got %T %v", set.lastFields["outlet_runtime"], set.lastFields["outlet_runtime"])
	}

	body := decodeBody(t, w)
	if body["status"] != statusOK || body["latitude"] != 48.1 || body["wlan_outlet_ip"] != "outlet.local" {
		t.Fatalf("unexpected echo: %v", body)
	}
}

func TestUpdateSettings_Errors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		svcErr error
		want   int
	}{
		{name: "invalid json", body: `{"latitude":`, want: http.StatusBadRequest},
		{name: "array body", body: `[1,2]`, want: http.StatusBadRequest},
		{name: "validation error", body: `{"outlet_ip":"256.1.1.1"}`, svcErr: &service.ValidationError{Field: "outlet_ip", Reason: "bad"}, want: http.StatusBadRequest},
		{name: "no valid fields", body: `{}`, svcErr: service.ErrNoValidFields, want: http.StatusBadRequest},
		{name: "internal error", body: `{"outlet_runtime":1}`, svcErr: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := &mockSettings{updateErr: tc.svcErr}
			r := newTestRouter(&service.Service{Settings: set})
			w := doJSON(t, r, http.MethodPost, "/api/settings", tc.body)
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
			if _, ok := decodeBody(t, w)["error"]; !ok {
				t.Fatalf("error body missing: %s", w.Body.String())
			}
		})
	}
}

func TestReadSettings_DeviceAndControllerViews(t *testing.T) {
	set := &mockSettings{view: models.Settings{
		Motor1Target:  intPtr(120),
		ManualMode:    true,
		Calibration:   true,
		LastHeartbeat: 1700000000,
	}}
	r := newTestRouter(&service.Service{Settings: set})

	w := doJSON(t, r, http.MethodGet, "/api/settings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := decodeBody(t, w)
	if body["motor1_target"] != 120.0 || body["manual_mode"] != true || body["calibration"] != true {
		t.Fatalf("unexpected snapshot: %v", body)
	}
	if v, ok := body["latitude"]; !ok || v != nil {
		t.Fatalf("unset coordinates must render as null: %v", body)
	}
	if set.snapshotCalls != 1 || set.currentCalls != 0 {
		t.Fatalf("GET /api/settings must use ReadSnapshot (snapshot=%d current=%d)", set.snapshotCalls, set.currentCalls)
	}

	doJSON(t, r, http.MethodGet, "/api/settings/current", "")
	if set.snapshotCalls != 1 || set.currentCalls != 1 {
		t.Fatalf("GET /api/settings/current must use Current (snapshot=%d current=%d)", set.snapshotCalls, set.currentCalls)
	}

	doJSON(t, r, http.MethodGet, "/api/coordscheck", "")
	if set.snapshotCalls != 2 {
		t.Fatalf("legacy alias route must read the snapshot")
	}
}

func TestReadSettings_LegacySchema(t *testing.T) {
	set := &mockSettings{view: models.Settings{
		WLANOutletIP: strPtr("outlet.local"),
		Motor2Target: intPtr(7),
		FactoryReset: true,
		SnowMode:     true,
	}}
	r := newTestRouter(&service.Service{Settings: set})

	body := decodeBody(t, doJSON(t, r, http.MethodGet, "/api/settings?schema=legacy", ""))
	if body["powertracker"] != "outlet.local" || body["motor2_Zielwert"] != 7.0 ||
		body["werkseinstellungbool"] != true || body["schneemodus"] != true {
		t.Fatalf("unexpected legacy body: %v", body)
	}
	if _, ok := body["wlan_outlet_ip"]; ok {
		t.Fatalf("legacy body must not carry canonical keys: %v", body)
	}
}

func TestCoordscheck_AnswersWithFirmwareKeys(t *testing.T) {
	set := &mockSettings{view: models.Settings{
		Coordinates:  &models.Coordinates{Latitude: 48.1, Longitude: 11.5},
		WLANOutletIP: strPtr("outlet.local"),
		Motor1Target: intPtr(120),
		Motor2Target: intPtr(45),
		ManualMode:   true,
	}}
	r := newTestRouter(&service.Service{Settings: set})

	w := doJSON(t, r, http.MethodGet, "/api/coordscheck", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	want := map[string]any{
		"latitude":      48.1,
		"longitude":     11.5,
		"powertracker":  "outlet.local",
		"motor1_target": 120.0,
		"motor2_target": 45.0,
		"manuell":       true,
	}
	for k, v := range want {
		if body[k] != v {
			t.Fatalf("%s = %v; want %v (body %v)", k, body[k], v, body)
		}
	}
	if _, ok := body["manual_mode"]; ok {
		t.Fatalf("firmware route must not answer with canonical keys: %v", body)
	}

	body = decodeBody(t, doJSON(t, r, http.MethodGet, "/api/coordscheck?schema="+schemaCanonical, ""))
	if body["manual_mode"] != true || body["wlan_outlet_ip"] != "outlet.local" {
		t.Fatalf("explicit canonical schema ignored: %v", body)
	}

	body = decodeBody(t, doJSON(t, r, http.MethodGet, "/api/settings", ""))
	if _, ok := body["manuell"]; ok {
		t.Fatalf("canonical route must default to canonical keys: %v", body)
	}
}

func TestCoordscheckPost_EchoesFirmwareKeys(t *testing.T) {
	set := &mockSettings{view: models.Settings{
		Coordinates:  &models.Coordinates{Latitude: 1, Longitude: 2},
		WLANOutletIP: strPtr("outlet.local"),
	}}
	r := newTestRouter(&service.Service{Settings: set})

	w := doJSON(t, r, http.MethodPost, "/api/coordscheck", `{"latitude":1,"longitude":2,"powertracker":"outlet.local"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "ok" || body["powertracker"] != "outlet.local" || body["latitude"] != 1.0 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestManuell_EchoesLegacyKey(t *testing.T) {
	r := newTestRouter(&service.Service{Settings: &mockSettings{}})

	body := decodeBody(t, doJSON(t, r, http.MethodPost, "/api/manuell", `{"aktiv":true}`))
	if body["manuell"] != true || body["manual"] != true {
		t.Fatalf("unexpected body: %v", body)
	}

	body = decodeBody(t, doJSON(t, r, http.MethodPost, "/api/mode", `{"manual_mode":true}`))
	if _, ok := body["manuell"]; ok {
		t.Fatalf("/api/mode must not carry the legacy key: %v", body)
	}
}

func TestSetMode(t *testing.T) {
	set := &mockSettings{}
	r := newTestRouter(&service.Service{Settings: set})

	w := doJSON(t, r, http.MethodPost, "/api/mode", `{"manual_mode":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["manual"] != true || body["snow_mode"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
	if set.lastManual == nil || !*set.lastManual || set.lastSnow != nil {
		t.Fatalf("wrong arguments: manual=%v snow=%v", set.lastManual, set.lastSnow)
	}

	w = doJSON(t, r, http.MethodPost, "/api/manuell", `{"aktiv":false,"schneemodus":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("legacy status=%d body=%s", w.Code, w.Body.String())
	}
	if set.lastManual == nil || *set.lastManual || set.lastSnow == nil || !*set.lastSnow {
		t.Fatalf("legacy aliases not mapped: manual=%v snow=%v", set.lastManual, set.lastSnow)
	}

	for _, bad := range []string{`{}`, `{"manual_mode":"true"}`, `{"snow_mode":1}`, `not json`} {
		if w := doJSON(t, r, http.MethodPost, "/api/mode", bad); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status=%d want 400", bad, w.Code)
		}
	}
}

func TestSetMotorTargets(t *testing.T) {
	set := &mockSettings{view: models.Settings{Motor2Target: intPtr(45)}}
	r := newTestRouter(&service.Service{Settings: set})

	w := doJSON(t, r, http.MethodPost, "/api/motor_targets", `{"motor1_Zielwert":120}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != statusOK || body["motor1_target"] != 120.0 || body["motor2_target"] != 45.0 {
		t.Fatalf("unexpected body: %v", body)
	}
	if set.lastMotor1 == nil || *set.lastMotor1 != 120 || set.lastMotor2 != nil {
		t.Fatalf("wrong arguments: %v %v", set.lastMotor1, set.lastMotor2)
	}

	// canonical key wins over its alias
	doJSON(t, r, http.MethodPost, "/api/motor_targets", `{"motor2_target":10,"motor2_Zielwert":99}`)
	if set.lastMotor2 == nil || *set.lastMotor2 != 10 {
		t.Fatalf("canonical key must win, got %v", set.lastMotor2)
	}

	for _, bad := range []string{`{}`, `{"motor1_target":1.5}`, `{"motor2_target":"left"}`} {
		if w := doJSON(t, r, http.MethodPost, "/api/motor_targets", bad); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status=%d want 400", bad, w.Code)
		}
	}
}

func TestTriggerCalibration(t *testing.T) {
	set := &mockSettings{}
	r := newTestRouter(&service.Service{Settings: set})

	for _, bad := range []string{`{}`, `{"calibration":false}`, `{"calibration":"true"}`, `{"calibration":1}`} {
		if w := doJSON(t, r, http.MethodPost, "/api/calibration", bad); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status=%d want 400", bad, w.Code)
		}
	}
	if set.triggerCalls != 0 {
		t.Fatalf("rejected requests must not trigger")
	}

	w := doJSON(t, r, http.MethodPost, "/api/calibration", `{"calibration":true}`)
	if w.Code != http.StatusOK || decodeBody(t, w)["status"] != statusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if set.triggerCalls != 1 {
		t.Fatalf("trigger calls=%d", set.triggerCalls)
	}
}

func TestHeartbeat(t *testing.T) {
	at := time.Unix(1717000000, 0)
	r := newTestRouter(&service.Service{Settings: &mockSettings{heartbeat: at}})

	w := doJSON(t, r, http.MethodPost, "/api/heartbeat", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != statusOK || body["last_heartbeat"] != float64(at.Unix()) {
		t.Fatalf("unexpected body: %v", body)
	}

	w = doJSON(t, r, http.MethodOptions, "/api/heartbeat", "")
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("OPTIONS must be an empty 200, got %d %q", w.Code, w.Body.String())
	}
}

// End to end through the real settings store.
func TestSettingsFlow_RealService(t *testing.T) {
	store := service.NewSettingsService(nil, service.NewLiveness(time.Minute), nil, nil)
	r := newTestRouter(&service.Service{Settings: store})

	if w := doJSON(t, r, http.MethodPost, "/api/settings", `{"latitude":1.0,"longitude":2.0}`); w.Code != http.StatusOK {
		t.Fatalf("seed: %d %s", w.Code, w.Body.String())
	}
	w := doJSON(t, r, http.MethodPost, "/api/settings", `{"latitude":5,"longitude":6,"outlet_ip":"1.2.3"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("mixed batch: status=%d want 400", w.Code)
	}

	doJSON(t, r, http.MethodPost, "/api/heartbeat", "")
	doJSON(t, r, http.MethodPost, "/api/mode", `{"manual_mode":true}`)
	doJSON(t, r, http.MethodPost, "/api/calibration", `{"calibration":true}`)
	doJSON(t, r, http.MethodPost, "/api/calibration", `{"calibration":true}`)

	first := decodeBody(t, doJSON(t, r, http.MethodGet, "/api/settings", ""))
	second := decodeBody(t, doJSON(t, r, http.MethodGet, "/api/settings", ""))

	if first["latitude"] != 1.0 || first["longitude"] != 2.0 {
		t.Fatalf("rejected batch changed coordinates: %v", first)
	}
	if first["calibration"] != true || second["calibration"] != false {
		t.Fatalf("calibration must be delivered exactly once: %v / %v", first["calibration"], second["calibration"])
	}
	if first["manual_mode"] != true {
		t.Fatalf("manual mode must hold while the controller is alive: %v", first)
	}
}
