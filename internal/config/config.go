// Package config loads the wheel-speed daemon configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/wheel-speed/internal/logic"
)

// Config represents the daemon configuration.
type Config struct {
	Sensor   SensorConfig   `yaml:"sensor"`
	Wheel    WheelConfig    `yaml:"wheel"`
	Sampling SamplingConfig `yaml:"sampling"`
	Serial   SerialConfig   `yaml:"serial"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// SensorConfig identifies the GPIO line the wheel sensor is wired to.
type SensorConfig struct {
	Chip string `yaml:"chip"`
	Pin  int    `yaml:"pin"` // line offset (BCM numbering on a Pi)
}

// WheelConfig describes the wheel.
type WheelConfig struct {
	RadiusMeters float64 `yaml:"radius_meters"`
}

// SamplingConfig controls the rate sampler.
type SamplingConfig struct {
	Interval    time.Duration `yaml:"interval"`     // report interval
	StopTimeout time.Duration `yaml:"stop_timeout"` // no edge for this long means stopped
	Poll        time.Duration `yaml:"poll"`         // main loop polling period
}

// SerialConfig enables the serial line reporter when Port is set.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// MQTTConfig configures the MQTT publisher. An empty Broker disables it.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"` // 0 disables
}

// HTTPConfig configures the status server. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Sensor: SensorConfig{
			Chip: "gpiochip0",
			Pin:  17,
		},
		Wheel: WheelConfig{
			RadiusMeters: logic.DefaultWheelRadius,
		},
		Sampling: SamplingConfig{
			Interval:    logic.DefaultInterval,
			StopTimeout: logic.DefaultStopTimeout.Duration(),
			Poll:        10 * time.Millisecond,
		},
		Serial: SerialConfig{
			BaudRate: 9600,
		},
		MQTT: MQTTConfig{
			Broker:    "tcp://localhost:1883",
			ClientID:  "wheel-speed",
			Heartbeat: 15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist,
// the defaults are returned. Fields missing from the file keep their defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ensureDefaults restores defaults for fields explicitly zeroed in the file
// where zero has no meaning.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sensor.Chip == "" {
		c.Sensor.Chip = def.Sensor.Chip
	}
	if c.Wheel.RadiusMeters == 0 {
		c.Wheel.RadiusMeters = def.Wheel.RadiusMeters
	}
	if c.Sampling.Interval == 0 {
		c.Sampling.Interval = def.Sampling.Interval
	}
	if c.Sampling.StopTimeout == 0 {
		c.Sampling.StopTimeout = def.Sampling.StopTimeout
	}
	if c.Sampling.Poll == 0 {
		c.Sampling.Poll = def.Sampling.Poll
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
}

// maxStopTimeout keeps the stop timeout well inside one period of the
// 32-bit microsecond counter, so wrapping subtraction stays unambiguous.
const maxStopTimeout = 30 * time.Minute

// Validate checks values that would make the sampler meaningless.
func (c *Config) Validate() error {
	if c.Sensor.Pin < 0 {
		return fmt.Errorf("invalid sensor pin %d", c.Sensor.Pin)
	}
	if c.Wheel.RadiusMeters <= 0 {
		return fmt.Errorf("invalid wheel radius %v", c.Wheel.RadiusMeters)
	}
	if c.Sampling.Interval <= 0 {
		return fmt.Errorf("invalid sampling interval %v", c.Sampling.Interval)
	}
	if c.Sampling.StopTimeout <= 0 || c.Sampling.StopTimeout > maxStopTimeout {
		return fmt.Errorf("invalid stop timeout %v (must be in (0, %v])", c.Sampling.StopTimeout, maxStopTimeout)
	}
	if c.Sampling.Poll <= 0 || c.Sampling.Poll > c.Sampling.Interval {
		return fmt.Errorf("invalid poll period %v (must be in (0, interval])", c.Sampling.Poll)
	}
	if c.MQTT.Heartbeat < 0 {
		return fmt.Errorf("invalid heartbeat %v", c.MQTT.Heartbeat)
	}
	return nil
}

// SamplerConfig returns the logic.SamplerConfig described by c.
func (c *Config) SamplerConfig() logic.SamplerConfig {
	return logic.SamplerConfig{
		Interval:    c.Sampling.Interval,
		StopTimeout: logic.MicrosFromDuration(c.Sampling.StopTimeout),
		WheelRadius: c.Wheel.RadiusMeters,
	}
}
