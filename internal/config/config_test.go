package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gesture_config.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BusType != BusI2C || cfg.I2CAddr != 0x4A || cfg.MaxFrameSize != 512 {
		t.Errorf("bus defaults = %s 0x%X %d", cfg.BusType, cfg.I2CAddr, cfg.MaxFrameSize)
	}
	if cfg.SampleRateHz != 100 || cfg.ReadTimeout != 50 {
		t.Errorf("timing defaults = %d Hz, %d ms", cfg.SampleRateHz, cfg.ReadTimeout)
	}
	if cfg.Gesture.HalfWindow != 0.3 || cfg.Gesture.MinAxisDelta != 0.5 {
		t.Errorf("gesture defaults = %+v", cfg.Gesture)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `# test config
BUS_TYPE=sim
I2C_ADDR=0x4B
SAMPLE_RATE_HZ=50
GESTURE_MIN_PEAK=2.5
OUTPUT_FORMAT=JSON
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BusType != BusSim {
		t.Errorf("BusType = %q, want sim", cfg.BusType)
	}
	if cfg.I2CAddr != 0x4B {
		t.Errorf("I2CAddr = 0x%X, want 0x4B", cfg.I2CAddr)
	}
	if cfg.SampleRateHz != 50 {
		t.Errorf("SampleRateHz = %d, want 50", cfg.SampleRateHz)
	}
	if cfg.Gesture.MinPeakMagnitude != 2.5 {
		t.Errorf("MinPeakMagnitude = %v, want 2.5", cfg.Gesture.MinPeakMagnitude)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("OutputFormat = %q, want json", cfg.OutputFormat)
	}
	if cfg.TopicGesture != "imu/gesture" {
		t.Errorf("unset key lost its default: TopicGesture = %q", cfg.TopicGesture)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "BUS_TYPE=sim\nREAD_TIMEOUT_MS=20\n")
	t.Setenv("IMU_GESTURE_READ_TIMEOUT_MS", "75")
	t.Setenv("IMU_GESTURE_GESTURE_HALF_WINDOW", "0.25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReadTimeout != 75 {
		t.Errorf("ReadTimeout = %d, want 75 from environment", cfg.ReadTimeout)
	}
	if cfg.Gesture.HalfWindow != 0.25 {
		t.Errorf("HalfWindow = %v, want 0.25 from environment", cfg.Gesture.HalfWindow)
	}
	if cfg.ReadTimeoutDuration().Milliseconds() != 75 {
		t.Errorf("ReadTimeoutDuration() = %v", cfg.ReadTimeoutDuration())
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown key", "BUS_TYPE=sim\nNOT_A_KEY=1\n", "unknown config key"},
		{"bus type", "BUS_TYPE=usb\n", "BUS_TYPE"},
		{"rate too high", "SAMPLE_RATE_HZ=200\n", "SAMPLE_RATE_HZ"},
		{"rate not a number", "SAMPLE_RATE_HZ=fast\n", "SAMPLE_RATE_HZ"},
		{"zero half window", "GESTURE_HALF_WINDOW=0\n", "GESTURE_"},
		{"baseline outlives buffer", "GESTURE_BASELINE_WINDOW=1.0\n", "baseline window"},
		{"frame too small", "MAX_FRAME_SIZE=3\n", "MAX_FRAME_SIZE"},
		{"address too wide", "I2C_ADDR=0x80\n", "I2C_ADDR"},
		{"serial without port", "BUS_TYPE=serial\nSERIAL_PORT=\n", "SERIAL_PORT"},
		{"output format", "OUTPUT_FORMAT=xml\n", "OUTPUT_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

func TestWriteYAML(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := cfg.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}

	var back Config
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if back.Gesture != cfg.Gesture || back.BusType != cfg.BusType || back.WebServerPort != cfg.WebServerPort {
		t.Errorf("YAML dump does not describe the loaded config:\n%s", buf.String())
	}
}
