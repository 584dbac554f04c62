package config

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/imu_gesture/internal/gesture"
	"github.com/relabs-tech/imu_gesture/internal/sh2"
	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

// EnvPrefix prefixes environment overrides, e.g. IMU_GESTURE_BUS_TYPE=sim.
const EnvPrefix = "IMU_GESTURE"

// DefaultPath is where the tools look for their config file.
const DefaultPath = "./gesture_config.txt"

// Bus types.
const (
	BusI2C    = "i2c"
	BusSerial = "serial"
	BusSim    = "sim"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string `yaml:"mqtt_broker"`
	MQTTClientIDProducer string `yaml:"mqtt_client_id_producer"`
	MQTTClientIDConsole  string `yaml:"mqtt_client_id_console"`
	MQTTClientIDWeb      string `yaml:"mqtt_client_id_web"`
	MQTTClientIDDisplay  string `yaml:"mqtt_client_id_display"`

	// Topics
	TopicGesture string `yaml:"topic_gesture"`
	TopicSample  string `yaml:"topic_sample"`
	TopicStatus  string `yaml:"topic_status"`

	// Bus
	BusType        string `yaml:"bus_type"` // "i2c", "serial" or "sim"
	I2CBus         string `yaml:"i2c_bus"`
	I2CAddr        uint16 `yaml:"i2c_addr"`
	SerialPort     string `yaml:"serial_port"`
	SerialBaudRate uint   `yaml:"serial_baud_rate"`
	MaxFrameSize   int    `yaml:"max_frame_size"`
	ReadTimeout    int    `yaml:"read_timeout_ms"` // milliseconds

	// Sensor
	SampleRateHz int `yaml:"sample_rate_hz"`

	// Gesture detector
	Gesture gesture.Config `yaml:"gesture"`

	// Timing
	SamplePublishInterval int `yaml:"sample_publish_interval_ms"` // milliseconds, 0 disables
	StatusInterval        int `yaml:"status_interval_ms"`         // milliseconds, 0 disables

	// Web Server
	WebServerPort int `yaml:"web_server_port"`

	// Display
	DisplayI2CBus         string `yaml:"display_i2c_bus"`
	DisplayUpdateInterval int    `yaml:"display_update_interval_ms"` // milliseconds

	// Output
	OutputFormat string `yaml:"output_format"` // "text" or "json"
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"` // "text" or "json"
}

// Package-level singleton: InitGlobal sets it once, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults lists every recognised key with its default value.
func defaults() map[string]any {
	def := gesture.DefaultConfig()
	return map[string]any{
		"MQTT_BROKER":             "tcp://localhost:1883",
		"MQTT_CLIENT_ID_PRODUCER": "imu-gesture-producer",
		"MQTT_CLIENT_ID_CONSOLE":  "imu-gesture-console",
		"MQTT_CLIENT_ID_WEB":      "imu-gesture-web",
		"MQTT_CLIENT_ID_DISPLAY":  "imu-gesture-display",

		"TOPIC_GESTURE": "imu/gesture",
		"TOPIC_SAMPLE":  "imu/sample",
		"TOPIC_STATUS":  "imu/status",

		"BUS_TYPE":         BusI2C,
		"I2C_BUS":          "",
		"I2C_ADDR":         "0x4A",
		"SERIAL_PORT":      "/dev/ttyACM0",
		"SERIAL_BAUD_RATE": 115200,
		"MAX_FRAME_SIZE":   shtp.DefaultMaxFrameSize,
		"READ_TIMEOUT_MS":  50,

		"SAMPLE_RATE_HZ": sh2.MaxRateHz,

		"GESTURE_BASELINE_WINDOW": def.BaselineWindow,
		"GESTURE_HALF_WINDOW":     def.HalfWindow,
		"GESTURE_MIN_DYN":         def.MinDynThreshold,
		"GESTURE_MIN_PEAK":        def.MinPeakMagnitude,
		"GESTURE_MIN_INTERVAL":    def.MinGestureInterval,
		"GESTURE_MIN_AXIS_DELTA":  def.MinAxisDelta,

		"SAMPLE_PUBLISH_INTERVAL_MS": 100,
		"STATUS_INTERVAL_MS":         5000,
		"WEB_SERVER_PORT":            8080,
		"DISPLAY_I2C_BUS":            "",
		"DISPLAY_UPDATE_INTERVAL_MS": 200,

		"OUTPUT_FORMAT": "text",
		"LOG_LEVEL":     "info",
		"LOG_FORMAT":    "text",
	}
}

func setDefaults(v *viper.Viper) {
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
}

// Load reads a KEY=VALUE config file, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		known := defaults()
		for _, key := range v.AllKeys() {
			if _, ok := known[strings.ToUpper(key)]; !ok {
				return nil, fmt.Errorf("unknown config key: %q", strings.ToUpper(key))
			}
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		MQTTBroker:           v.GetString("MQTT_BROKER"),
		MQTTClientIDProducer: v.GetString("MQTT_CLIENT_ID_PRODUCER"),
		MQTTClientIDConsole:  v.GetString("MQTT_CLIENT_ID_CONSOLE"),
		MQTTClientIDWeb:      v.GetString("MQTT_CLIENT_ID_WEB"),
		MQTTClientIDDisplay:  v.GetString("MQTT_CLIENT_ID_DISPLAY"),

		TopicGesture: v.GetString("TOPIC_GESTURE"),
		TopicSample:  v.GetString("TOPIC_SAMPLE"),
		TopicStatus:  v.GetString("TOPIC_STATUS"),

		BusType:    strings.ToLower(v.GetString("BUS_TYPE")),
		I2CBus:     v.GetString("I2C_BUS"),
		SerialPort: v.GetString("SERIAL_PORT"),

		DisplayI2CBus: v.GetString("DISPLAY_I2C_BUS"),

		OutputFormat: strings.ToLower(v.GetString("OUTPUT_FORMAT")),
		LogLevel:     strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:    strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	addr, err := strconv.ParseUint(v.GetString("I2C_ADDR"), 0, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid I2C_ADDR %q: %w", v.GetString("I2C_ADDR"), err)
	}
	cfg.I2CAddr = uint16(addr)

	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_FRAME_SIZE", &cfg.MaxFrameSize},
		{"READ_TIMEOUT_MS", &cfg.ReadTimeout},
		{"SAMPLE_RATE_HZ", &cfg.SampleRateHz},
		{"SAMPLE_PUBLISH_INTERVAL_MS", &cfg.SamplePublishInterval},
		{"STATUS_INTERVAL_MS", &cfg.StatusInterval},
		{"WEB_SERVER_PORT", &cfg.WebServerPort},
		{"DISPLAY_UPDATE_INTERVAL_MS", &cfg.DisplayUpdateInterval},
	}
	for _, f := range ints {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(f.key)))
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", f.key, v.GetString(f.key), err)
		}
		*f.dst = n
	}

	baud, err := strconv.ParseUint(strings.TrimSpace(v.GetString("SERIAL_BAUD_RATE")), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", v.GetString("SERIAL_BAUD_RATE"), err)
	}
	cfg.SerialBaudRate = uint(baud)

	floats := []struct {
		key string
		dst *float64
	}{
		{"GESTURE_BASELINE_WINDOW", &cfg.Gesture.BaselineWindow},
		{"GESTURE_HALF_WINDOW", &cfg.Gesture.HalfWindow},
		{"GESTURE_MIN_DYN", &cfg.Gesture.MinDynThreshold},
		{"GESTURE_MIN_PEAK", &cfg.Gesture.MinPeakMagnitude},
		{"GESTURE_MIN_INTERVAL", &cfg.Gesture.MinGestureInterval},
		{"GESTURE_MIN_AXIS_DELTA", &cfg.Gesture.MinAxisDelta},
	}
	for _, f := range floats {
		x, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(f.key)), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", f.key, v.GetString(f.key), err)
		}
		*f.dst = x
	}

	return cfg, nil
}

// validate checks ranges and enumerations.
func (c *Config) validate() error {
	switch c.BusType {
	case BusI2C:
	case BusSerial:
		if c.SerialPort == "" {
			return errors.New("SERIAL_PORT is required for BUS_TYPE=serial")
		}
		if c.SerialBaudRate == 0 {
			return errors.New("SERIAL_BAUD_RATE is required for BUS_TYPE=serial")
		}
	case BusSim:
	default:
		return fmt.Errorf("BUS_TYPE must be i2c, serial or sim, got %q", c.BusType)
	}
	if c.I2CAddr > 0x7F {
		return fmt.Errorf("I2C_ADDR must be a 7-bit address, got 0x%X", c.I2CAddr)
	}
	if c.MaxFrameSize < shtp.HeaderSize || c.MaxFrameSize > 0x7FFF {
		return fmt.Errorf("MAX_FRAME_SIZE must be %d-32767, got %d", shtp.HeaderSize, c.MaxFrameSize)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("READ_TIMEOUT_MS must be > 0, got %d", c.ReadTimeout)
	}
	if _, err := sh2.IntervalForRate(c.SampleRateHz); err != nil {
		return fmt.Errorf("SAMPLE_RATE_HZ: %w", err)
	}
	if err := c.Gesture.Validate(); err != nil {
		return fmt.Errorf("GESTURE_*: %w", err)
	}
	if c.SamplePublishInterval < 0 || c.StatusInterval < 0 {
		return errors.New("SAMPLE_PUBLISH_INTERVAL_MS and STATUS_INTERVAL_MS must be >= 0")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.WebServerPort)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL_MS must be > 0, got %d", c.DisplayUpdateInterval)
	}
	switch c.OutputFormat {
	case "text", "json":
	default:
		return fmt.Errorf("OUTPUT_FORMAT must be text or json, got %q", c.OutputFormat)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ReadTimeoutDuration is ReadTimeout as a time.Duration.
func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Millisecond
}

// WriteYAML dumps the effective configuration.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
