package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"solar_follower/internal/config"
	"solar_follower/internal/logger"
	"solar_follower/internal/models"

	"github.com/cenkalti/backoff/v4"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultPublishTimeout = 5 * time.Second
	disconnectQuiesceMs   = 250
	telemetryTopicSuffix  = "telemetry"
)

var (
	ErrPublishTimeout = errors.New("mqtt publish timed out")
	ErrPayloadEncode  = errors.New("encode telemetry payload")
)

// publisher is the part of the paho client the sink needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes every accepted sample as JSON to <prefix>/telemetry.
type MQTTSink struct {
	client  publisher
	topic   string
	qos     byte
	timeout time.Duration
}

func NewMQTTSink(client publisher, prefix string, qos byte, timeout time.Duration) *MQTTSink {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &MQTTSink{client: client, topic: TelemetryTopic(prefix), qos: qos, timeout: timeout}
}

// ConnectMQTT dials the broker, retrying with exponential backoff.
func ConnectMQTT(cfg config.MQTTConfig, log *logger.Logger) (*MQTTSink, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "broker", cfg.Broker, "err", err)
	})

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client pahomqtt.Client
	err := backoff.Retry(func() error {
		client = pahomqtt.NewClient(opts)
		token := client.Connect()
		if !token.WaitTimeout(10 * time.Second) {
			return fmt.Errorf("connect to %s timed out", cfg.Broker)
		}
		if err := token.Error(); err != nil {
			log.Warnw("mqtt_connect_failed", "broker", cfg.Broker, "err", err)
			return err
		}
		return nil
	}, backoff.WithMaxRetries(bo, uint64(retries-1)))
	if err != nil {
		return nil, fmt.Errorf("mqtt connect after %d attempts: %w", retries, err)
	}

	log.Infow("mqtt_connected", "broker", cfg.Broker, "topic", TelemetryTopic(cfg.TopicPrefix))
	// #nosec G115 -- qos validated to 0..2 by config.Validate
	return NewMQTTSink(client, cfg.TopicPrefix, byte(cfg.QoS), cfg.PublishTimeout), nil
}

// TelemetryTopic joins the prefix and the telemetry suffix without doubled slashes.
func TelemetryTopic(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return telemetryTopicSuffix
	}
	return prefix + "/" + telemetryTopicSuffix
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Topic() string { return s.topic }

func (s *MQTTSink) Record(_ context.Context, sample models.TelemetrySample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPayloadEncode, err)
	}

	token := s.client.Publish(s.topic, s.qos, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("%w after %v", ErrPublishTimeout, s.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", s.topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() {
	s.client.Disconnect(disconnectQuiesceMs)
}
