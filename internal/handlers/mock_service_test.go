package handlers

import (
	"context"
	"sync"
	"time"

	"solar_follower/internal/models"
	"solar_follower/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockSettings struct {
	mu sync.Mutex

	view      models.Settings
	updateErr error
	modeErr   error
	motorErr  error
	heartbeat time.Time

	lastFields    map[string]any
	lastManual    *bool
	lastSnow      *bool
	lastMotor1    *int
	lastMotor2    *int
	updateCalls   int
	snapshotCalls int
	currentCalls  int
	triggerCalls  int
}

func (m *mockSettings) ApplyUpdate(_ context.Context, fields map[string]any) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	m.lastFields = fields
	return m.view, m.updateErr
}

func (m *mockSettings) SetModes(_ context.Context, manual, snow *bool) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastManual, m.lastSnow = manual, snow
	v := m.view
	if manual != nil {
		v.ManualMode = *manual
	}
	if snow != nil {
		v.SnowMode = *snow
	}
	return v, m.modeErr
}

func (m *mockSettings) SetMotorTargets(_ context.Context, motor1, motor2 *int) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastMotor1, m.lastMotor2 = motor1, motor2
	v := m.view
	if motor1 != nil {
		v.Motor1Target = motor1
	}
	if motor2 != nil {
		v.Motor2Target = motor2
	}
	return v, m.motorErr
}

func (m *mockSettings) ReadSnapshot(context.Context) models.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotCalls++
	return m.view
}

func (m *mockSettings) Current(context.Context) models.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentCalls++
	return m.view
}

func (m *mockSettings) TriggerCalibration(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggerCalls++
}

func (m *mockSettings) Heartbeat(context.Context) time.Time {
	return m.heartbeat
}

type mockTelemetry struct {
	samples   []models.TelemetrySample
	ingestErr error
	listErr   error
	ingested  []models.TelemetrySample
}

func (m *mockTelemetry) Ingest(_ context.Context, s models.TelemetrySample) error {
	if m.ingestErr != nil {
		return m.ingestErr
	}
	m.ingested = append(m.ingested, s)
	return nil
}

func (m *mockTelemetry) List(context.Context) ([]models.TelemetrySample, error) {
	return m.samples, m.listErr
}

type mockEventLog struct {
	resp      []models.ControlEvent
	err       error
	lastQuery models.EventQuery
	calls     int
}

func (m *mockEventLog) List(_ context.Context, q models.EventQuery) ([]models.ControlEvent, error) {
	m.calls++
	m.lastQuery = q
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

const testOrigin = "https://mysolarfollower.onrender.com"

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, Options{AllowedOrigin: testOrigin})
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
