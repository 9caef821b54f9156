package service

import (
	"context"
	"sync"
	"time"

	"solar_follower/internal/logger"
	"solar_follower/internal/metrics"
	"solar_follower/internal/models"
	"solar_follower/internal/repository"

	"github.com/google/uuid"
)

// settingsState holds the retained values. Only SettingsService touches it, under its mutex.
type settingsState struct {
	coordinates   *models.Coordinates
	wlanOutletIP  *string
	outletIP      *string
	outletRuntime *int
	utcOffset     *string
	motor1Target  *int
	motor2Target  *int
	factoryReset  bool
	manualMode    bool
	snowMode      bool
	lastHeartbeat time.Time
}

// SettingsService is the shared settings store between device and controller.
// Every mutation and every device snapshot runs under one mutex, so no two of them interleave.
type SettingsService struct {
	mu          sync.Mutex
	state       settingsState
	calibration OneShot
	liveness    Liveness
	now         func() time.Time
	lastEventAt time.Time

	eventRepo repository.EventRepo
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func NewSettingsService(eventRepo repository.EventRepo, liveness Liveness, m *metrics.Metrics, log *logger.Logger) *SettingsService {
	return &SettingsService{
		liveness:  liveness,
		now:       time.Now,
		eventRepo: eventRepo,
		metrics:   m,
		log:       log,
	}
}

// ApplyUpdate validates all supplied fields and commits them together, or commits nothing.
func (s *SettingsService) ApplyUpdate(ctx context.Context, fields map[string]any) (models.Settings, error) {
	patch, err := ParsePatch(fields)
	if err != nil {
		return models.Settings{}, err
	}
	return s.Apply(ctx, patch)
}

// Apply commits an already validated patch in one step and returns the controller view.
func (s *SettingsService) Apply(ctx context.Context, p models.SettingsPatch) (models.Settings, error) {
	if p.Empty() {
		return models.Settings{}, ErrNoValidFields
	}

	s.mu.Lock()
	applyPatch(&s.state, p)
	view := s.viewLocked(s.now())
	view.Calibration = s.calibration.Pending()
	at := s.eventTimeLocked()
	s.mu.Unlock()

	typ, desc := describePatch(p)
	s.record(ctx, at, typ, desc, map[string]any{"fields": p.Fields()})
	return view, nil
}

// SetModes changes manual and/or snow mode.
func (s *SettingsService) SetModes(ctx context.Context, manual, snow *bool) (models.Settings, error) {
	if manual == nil && snow == nil {
		return models.Settings{}, &ValidationError{Field: "manual_mode/snow_mode", Reason: "at least one mode is required"}
	}
	return s.Apply(ctx, models.SettingsPatch{ManualMode: manual, SnowMode: snow})
}

// SetMotorTargets sets either or both motor targets; an absent target keeps its value.
func (s *SettingsService) SetMotorTargets(ctx context.Context, motor1, motor2 *int) (models.Settings, error) {
	if motor1 == nil && motor2 == nil {
		return models.Settings{}, &ValidationError{Field: "motor1_target/motor2_target", Reason: "at least one target is required"}
	}
	return s.Apply(ctx, models.SettingsPatch{Motor1Target: motor1, Motor2Target: motor2})
}

// ReadSnapshot is the device read. In one locked step it reverts stale overrides,
// captures the state and consumes the pending calibration request.
func (s *SettingsService) ReadSnapshot(ctx context.Context) models.Settings {
	var revertAt, deliverAt time.Time
	s.mu.Lock()
	now := s.now()
	manual, snow := s.liveness.Revert(&s.state, now)
	if manual || snow {
		revertAt = s.eventTimeLocked()
	}
	snap := s.viewLocked(now)
	snap.Calibration = s.calibration.TryConsume()
	if snap.Calibration {
		deliverAt = s.eventTimeLocked()
	}
	s.mu.Unlock()

	if manual || snow {
		s.recordRevert(ctx, revertAt, manual, snow, snap.LastHeartbeat)
	}
	if snap.Calibration {
		s.metrics.CalibrationDelivered()
		s.record(ctx, deliverAt, models.EventCalibrationDelivered, "calibration request delivered to device", nil)
	}
	return snap
}

// Current returns the controller view without side effects.
// Calibration reports whether a request is still waiting for the device.
func (s *SettingsService) Current(_ context.Context) models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.viewLocked(s.now())
	view.Calibration = s.calibration.Pending()
	return view
}

// TriggerCalibration raises the calibration request. Repeated triggers before
// the next device read collapse into one delivery.
func (s *SettingsService) TriggerCalibration(ctx context.Context) {
	s.mu.Lock()
	s.calibration.Trigger()
	at := s.eventTimeLocked()
	s.mu.Unlock()

	s.record(ctx, at, models.EventCalibrationTrigger, "calibration requested", nil)
}

// Heartbeat records controller presence and returns the stored heartbeat time.
func (s *SettingsService) Heartbeat(_ context.Context) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.After(s.state.lastHeartbeat) {
		s.state.lastHeartbeat = now
	}
	s.metrics.Heartbeat()
	return s.state.lastHeartbeat
}

// EnforceLiveness applies only the liveness revert. It reports whether a mode was reverted.
func (s *SettingsService) EnforceLiveness(ctx context.Context) bool {
	var at time.Time
	s.mu.Lock()
	manual, snow := s.liveness.Revert(&s.state, s.now())
	if manual || snow {
		at = s.eventTimeLocked()
	}
	last := unixOrZero(s.state.lastHeartbeat)
	s.mu.Unlock()

	if !manual && !snow {
		return false
	}
	s.recordRevert(ctx, at, manual, snow, last)
	return true
}

func (s *SettingsService) viewLocked(now time.Time) models.Settings {
	st := s.state
	view := models.Settings{
		WLANOutletIP:     cloneString(st.wlanOutletIP),
		OutletIP:         cloneString(st.outletIP),
		OutletRuntime:    cloneInt(st.outletRuntime),
		UTCOffset:        cloneString(st.utcOffset),
		Motor1Target:     cloneInt(st.motor1Target),
		Motor2Target:     cloneInt(st.motor2Target),
		FactoryReset:     st.factoryReset,
		ManualMode:       st.manualMode,
		SnowMode:         st.snowMode,
		LastHeartbeat:    unixOrZero(st.lastHeartbeat),
		ControllerOnline: !s.liveness.Expired(now, st.lastHeartbeat),
	}
	if st.coordinates != nil {
		c := *st.coordinates
		view.Coordinates = &c
	}
	return view
}

// eventTimeLocked stamps an audit event at commit time. Stamps strictly increase,
// so the log orders events the way they were applied even when they are written later.
func (s *SettingsService) eventTimeLocked() time.Time {
	at := s.now().UTC()
	if !at.After(s.lastEventAt) {
		at = s.lastEventAt.Add(time.Nanosecond)
	}
	s.lastEventAt = at
	return at
}

func (s *SettingsService) recordRevert(ctx context.Context, at time.Time, manual, snow bool, lastHeartbeat int64) {
	s.metrics.AutoReverted()
	if s.log != nil {
		s.log.Infow("auto_revert", "manual_mode", manual, "snow_mode", snow, "last_heartbeat", lastHeartbeat)
	}
	s.record(ctx, at, models.EventAutoRevert, "controller heartbeat lost; overrides reverted to automatic", map[string]any{
		"manual_mode":    manual,
		"snow_mode":      snow,
		"last_heartbeat": lastHeartbeat,
	})
}

// record appends to the control-event log with the time stamped at commit.
// Failures never fail the caller.
func (s *SettingsService) record(ctx context.Context, at time.Time, typ, desc string, meta any) {
	if s.eventRepo == nil {
		return
	}
	err := s.eventRepo.Append(ctx, models.ControlEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  at,
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil && s.log != nil {
		s.log.Warnw("control_event_append_failed", "type", typ, "err", err)
	}
}

func applyPatch(st *settingsState, p models.SettingsPatch) {
	if p.Coordinates != nil {
		c := *p.Coordinates
		st.coordinates = &c
	}
	if p.WLANOutletIP != nil {
		st.wlanOutletIP = cloneString(p.WLANOutletIP)
	}
	if p.OutletIP != nil {
		st.outletIP = cloneString(p.OutletIP)
	}
	if p.OutletRuntime != nil {
		st.outletRuntime = cloneInt(p.OutletRuntime)
	}
	if p.UTCOffset != nil {
		st.utcOffset = cloneString(p.UTCOffset)
	}
	if p.FactoryReset != nil {
		st.factoryReset = *p.FactoryReset
	}
	if p.Motor1Target != nil {
		st.motor1Target = cloneInt(p.Motor1Target)
	}
	if p.Motor2Target != nil {
		st.motor2Target = cloneInt(p.Motor2Target)
	}
	if p.ManualMode != nil {
		st.manualMode = *p.ManualMode
	}
	if p.SnowMode != nil {
		st.snowMode = *p.SnowMode
	}
}

// describePatch picks the event type from which group of fields the patch touches.
func describePatch(p models.SettingsPatch) (string, string) {
	modesOnly := models.SettingsPatch{ManualMode: p.ManualMode, SnowMode: p.SnowMode}
	motorsOnly := models.SettingsPatch{Motor1Target: p.Motor1Target, Motor2Target: p.Motor2Target}
	switch p {
	case modesOnly:
		return models.EventModeChange, "override modes changed"
	case motorsOnly:
		return models.EventMotorTargets, "motor targets changed"
	default:
		return models.EventSettingsUpdate, "settings updated"
	}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
