package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	Port      string          `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	DB        DBConfig        `mapstructure:"db"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Liveness  LivenessConfig  `mapstructure:"liveness"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	InfluxDB  InfluxDBConfig  `mapstructure:"influxdb"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig names the single web origin allowed to call /api.
type CORSConfig struct {
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// DBConfig points at the control-event database. The default keeps it in memory.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

type TelemetryConfig struct {
	Capacity int `mapstructure:"capacity"`
	// ForwardQueue is how many samples may wait for the sinks before new ones are dropped.
	ForwardQueue int `mapstructure:"forward_queue"`
}

type LivenessConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type MQTTConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	QoS            int           `mapstructure:"qos"`
	ConnectRetries int           `mapstructure:"connect_retries"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

type InfluxDBConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	URL         string `mapstructure:"url"`
	Token       string `mapstructure:"token"`
	Org         string `mapstructure:"org"`
	Bucket      string `mapstructure:"bucket"`
	Measurement string `mapstructure:"measurement"`
}

// BreakerConfig tunes the circuit breaker put in front of every telemetry sink.
type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

const envPrefix = "SOLAR"

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("cors.allowed_origin", "https://mysolarfollower.onrender.com")
	v.SetDefault("db.path", ":memory:")
	v.SetDefault("telemetry.capacity", 1000)
	v.SetDefault("telemetry.forward_queue", 256)
	v.SetDefault("liveness.timeout", 60*time.Second)
	v.SetDefault("liveness.sweep_interval", 10*time.Second)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "solar-follower")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "solarfollower")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.connect_retries", 5)
	v.SetDefault("mqtt.publish_timeout", 5*time.Second)
	v.SetDefault("influxdb.enabled", false)
	v.SetDefault("influxdb.url", "http://localhost:8086")
	v.SetDefault("influxdb.token", "")
	v.SetDefault("influxdb.org", "")
	v.SetDefault("influxdb.bucket", "solarfollower")
	v.SetDefault("influxdb.measurement", "telemetry")
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_timeout", 30*time.Second)
}

// Load reads config.yml from the given directories (first match wins),
// applies SOLAR_* environment overrides and falls back to defaults.
// A missing config file is not an error.
func Load(dirs ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Hosting platforms hand out the port through plain PORT.
	if err := v.BindEnv("port", envPrefix+"_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}

	if len(dirs) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Telemetry.Capacity <= 0 {
		return fmt.Errorf("telemetry.capacity must be positive, got %d", c.Telemetry.Capacity)
	}
	if c.Telemetry.ForwardQueue <= 0 {
		return fmt.Errorf("telemetry.forward_queue must be positive, got %d", c.Telemetry.ForwardQueue)
	}
	if c.Liveness.Timeout <= 0 {
		return fmt.Errorf("liveness.timeout must be positive, got %s", c.Liveness.Timeout)
	}
	if c.Liveness.SweepInterval < 0 {
		return fmt.Errorf("liveness.sweep_interval must not be negative, got %s", c.Liveness.SweepInterval)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		return errors.New("influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}
	return nil
}
