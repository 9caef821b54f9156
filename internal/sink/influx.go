package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solar_follower/internal/config"
	"solar_follower/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	defaultMeasurement = "telemetry"
	pingTimeout        = 5 * time.Second
)

var ErrInfluxUnhealthy = errors.New("influxdb not healthy")

// pointWriter matches api.WriteAPIBlocking.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxSink writes the numeric part of every sample as one point.
// Writes are blocking so failures reach the circuit breaker.
type InfluxSink struct {
	client      influxdb2.Client
	writer      pointWriter
	measurement string
}

func NewInfluxSink(writer pointWriter, measurement string) *InfluxSink {
	if measurement == "" {
		measurement = defaultMeasurement
	}
	return &InfluxSink{writer: writer, measurement: measurement}
}

// ConnectInflux creates the client and checks the server answers a ping.
func ConnectInflux(ctx context.Context, cfg config.InfluxDBConfig) (*InfluxSink, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb ping %s: %w", cfg.URL, err)
	}
	if !healthy {
		client.Close()
		return nil, ErrInfluxUnhealthy
	}

	s := NewInfluxSink(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.Measurement)
	s.client = client
	return s, nil
}

func (s *InfluxSink) Name() string { return "influxdb" }

func (s *InfluxSink) Record(ctx context.Context, sample models.TelemetrySample) error {
	p := samplePoint(s.measurement, sample)
	if p == nil {
		return nil
	}
	if err := s.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("influxdb write: %w", err)
	}
	return nil
}

func (s *InfluxSink) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// samplePoint keeps the numeric fields of a sample. It returns nil when
// there is nothing numeric to write.
func samplePoint(measurement string, sample models.TelemetrySample) *write.Point {
	fields := map[string]interface{}{}
	for name, v := range map[string]any{
		"wind":     sample.Wind,
		"sunhours": sample.SunHours,
		"motor1":   sample.Motor1,
		"motor2":   sample.Motor2,
		"voltage":  sample.Voltage,
		"current":  sample.Current,
	} {
		if f, ok := numeric(v); ok {
			fields[name] = f
		}
	}
	if b, ok := sample.Manual.(bool); ok {
		fields["manual"] = b
	}
	if len(fields) == 0 {
		return nil
	}

	ts := sample.ReceivedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return write.NewPoint(measurement, map[string]string{"source": "device"}, fields, ts)
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
