// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker              string `yaml:"mqtt_broker"`
	MQTTClientIDDiagnostics string `yaml:"mqtt_client_id_diagnostics"`
	MQTTClientIDProducer    string `yaml:"mqtt_client_id_producer"`
	MQTTClientIDConsole     string `yaml:"mqtt_client_id_console"`

	// Topics
	TopicSamples     string `yaml:"topic_samples"`     // raw events in, tagged JSON
	TopicOrientation string `yaml:"topic_orientation"` // absolute orientation in
	TopicCommands    string `yaml:"topic_commands"`    // command names in
	TopicSnapshot    string `yaml:"topic_snapshot"`    // periodic stats out
	TopicEvents      string `yaml:"topic_events"`      // state transitions out

	// Timing analysis
	ExpectedIntervalMS float64 `yaml:"expected_interval_ms"`
	DropFactor         float64 `yaml:"drop_factor"`
	IntervalHistory    int     `yaml:"interval_history"`

	// Noise capture
	NoiseWindowMS   int `yaml:"noise_window_ms"`
	NoiseMinSamples int `yaml:"noise_min_samples"`

	// Latency detection
	LatencyThreshold float64 `yaml:"latency_threshold"` // m/s²
	LatencyTimeoutMS int     `yaml:"latency_timeout_ms"`
	LatencyBaseline  float64 `yaml:"latency_baseline"` // m/s², used before any sample

	// Orientation
	OrientationHistory int `yaml:"orientation_history"`

	// Position integration
	CalibrationWindowMS int     `yaml:"calibration_window_ms"`
	DefaultGravityZ     float64 `yaml:"default_gravity_z"`
	Deadzone            float64 `yaml:"deadzone"` // m/s²
	MaxDtSeconds        float64 `yaml:"max_dt_seconds"`
	PositionHistory     int     `yaml:"position_history"`

	// Runtime
	QueueSize          int `yaml:"queue_size"`
	SnapshotIntervalMS int `yaml:"snapshot_interval_ms"`
	SampleIntervalMS   int `yaml:"sample_interval_ms"` // producers

	// IMU Hardware (MPU9250 over SPI)
	IMUSPIDevice  string `yaml:"imu_spi_device"`
	IMUCSPin      string `yaml:"imu_cs_pin"`
	IMUAccelRange byte   `yaml:"imu_accel_range"` // 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUGyroRange  byte   `yaml:"imu_gyro_range"`  // 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s

	// Serial $PIMU source
	SerialPort     string `yaml:"serial_port"`
	SerialBaudRate int    `yaml:"serial_baud_rate"`

	// Mock source: "generic_sensor", "device_motion" or "alternate"
	MockShape string `yaml:"mock_shape"`

	// Web Server (0 disables)
	WebServerPort int `yaml:"web_server_port"`

	// Display
	DisplayEnabled        bool   `yaml:"display_enabled"` // SSD1306 at 0x3C
	DisplayI2CBus         string `yaml:"display_i2c_bus"`
	DisplayUpdateInterval int    `yaml:"display_update_interval"` // milliseconds

	// Persistence
	RecorderPath  string `yaml:"recorder_path"`   // SQLite file, empty disables
	ExportCSVPath string `yaml:"export_csv_path"` // written on shutdown, empty disables
}

// Default returns the configuration used when a key is not set.
func Default() *Config {
	return &Config{
		MQTTBroker:              "tcp://localhost:1883",
		MQTTClientIDDiagnostics: "motion-diagnostics",
		MQTTClientIDProducer:    "motion-producer",
		MQTTClientIDConsole:     "motion-console",

		TopicSamples:     "motion/samples",
		TopicOrientation: "motion/orientation",
		TopicCommands:    "motion/commands",
		TopicSnapshot:    "motion/snapshot",
		TopicEvents:      "motion/events",

		ExpectedIntervalMS: 16.67,
		DropFactor:         1.5,
		IntervalHistory:    100,

		NoiseWindowMS:   3000,
		NoiseMinSamples: 10,

		LatencyThreshold: 2.0,
		LatencyTimeoutMS: 500,
		LatencyBaseline:  9.8,

		OrientationHistory: 600,

		CalibrationWindowMS: 500,
		DefaultGravityZ:     9.81,
		Deadzone:            0.1,
		MaxDtSeconds:        0.1,
		PositionHistory:     200,

		QueueSize:          256,
		SnapshotIntervalMS: 200,
		SampleIntervalMS:   10,

		IMUSPIDevice: "/dev/spidev0.0",
		IMUCSPin:     "8",

		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 115200,

		MockShape: "alternate",

		WebServerPort: 8080,

		DisplayI2CBus:         "",
		DisplayUpdateInterval: 250,
	}
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// Files ending in .yaml or .yml are parsed as YAML; anything else uses
// the KEY=VALUE format. Keys not present keep their Default() value.
func Load(configPath string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return loadYAML(configPath)
	default:
		return loadKeyValue(configPath)
	}
}

func loadYAML(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadKeyValue(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFloat(key, value string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func parseInt(key, value string, dst *int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func parseRange(key, value, help string, dst *byte) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 || v > 3 {
		return fmt.Errorf("%s must be 0-3 (%s), got %d", key, help, v)
	}
	*dst = byte(v)
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DIAGNOSTICS":
		c.MQTTClientIDDiagnostics = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_COMMANDS":
		c.TopicCommands = value
	case "TOPIC_SNAPSHOT":
		c.TopicSnapshot = value
	case "TOPIC_EVENTS":
		c.TopicEvents = value

	// Timing analysis
	case "EXPECTED_INTERVAL_MS":
		return parseFloat(key, value, &c.ExpectedIntervalMS)
	case "DROP_FACTOR":
		return parseFloat(key, value, &c.DropFactor)
	case "INTERVAL_HISTORY":
		return parseInt(key, value, &c.IntervalHistory)

	// Noise
	case "NOISE_WINDOW_MS":
		return parseInt(key, value, &c.NoiseWindowMS)
	case "NOISE_MIN_SAMPLES":
		return parseInt(key, value, &c.NoiseMinSamples)

	// Latency
	case "LATENCY_THRESHOLD":
		return parseFloat(key, value, &c.LatencyThreshold)
	case "LATENCY_TIMEOUT_MS":
		return parseInt(key, value, &c.LatencyTimeoutMS)
	case "LATENCY_BASELINE":
		return parseFloat(key, value, &c.LatencyBaseline)

	// Orientation
	case "ORIENTATION_HISTORY":
		return parseInt(key, value, &c.OrientationHistory)

	// Position
	case "CALIBRATION_WINDOW_MS":
		return parseInt(key, value, &c.CalibrationWindowMS)
	case "DEFAULT_GRAVITY_Z":
		return parseFloat(key, value, &c.DefaultGravityZ)
	case "DEADZONE":
		return parseFloat(key, value, &c.Deadzone)
	case "MAX_DT_SECONDS":
		return parseFloat(key, value, &c.MaxDtSeconds)
	case "POSITION_HISTORY":
		return parseInt(key, value, &c.PositionHistory)

	// Runtime
	case "QUEUE_SIZE":
		return parseInt(key, value, &c.QueueSize)
	case "SNAPSHOT_INTERVAL_MS":
		return parseInt(key, value, &c.SnapshotIntervalMS)
	case "SAMPLE_INTERVAL_MS":
		return parseInt(key, value, &c.SampleIntervalMS)

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		return parseRange(key, value, "0=±2g, 1=±4g, 2=±8g, 3=±16g", &c.IMUAccelRange)
	case "IMU_GYRO_RANGE":
		return parseRange(key, value, "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s", &c.IMUGyroRange)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		return parseInt(key, value, &c.SerialBaudRate)

	case "MOCK_SHAPE":
		c.MockShape = value

	// Web Server
	case "WEB_SERVER_PORT":
		return parseInt(key, value, &c.WebServerPort)

	// Display
	case "DISPLAY_ENABLED":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = on
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		return parseInt(key, value, &c.DisplayUpdateInterval)

	// Persistence
	case "RECORDER_PATH":
		c.RecorderPath = value
	case "EXPORT_CSV_PATH":
		c.ExportCSVPath = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicSamples == "" {
		return fmt.Errorf("TOPIC_SAMPLES is required")
	}
	if c.ExpectedIntervalMS <= 0 {
		return fmt.Errorf("EXPECTED_INTERVAL_MS must be positive, got %v", c.ExpectedIntervalMS)
	}
	if c.DropFactor <= 1 {
		return fmt.Errorf("DROP_FACTOR must be greater than 1, got %v", c.DropFactor)
	}
	for name, v := range map[string]int{
		"INTERVAL_HISTORY":        c.IntervalHistory,
		"ORIENTATION_HISTORY":     c.OrientationHistory,
		"POSITION_HISTORY":        c.PositionHistory,
		"NOISE_WINDOW_MS":         c.NoiseWindowMS,
		"NOISE_MIN_SAMPLES":       c.NoiseMinSamples,
		"LATENCY_TIMEOUT_MS":      c.LatencyTimeoutMS,
		"CALIBRATION_WINDOW_MS":   c.CalibrationWindowMS,
		"SNAPSHOT_INTERVAL_MS":    c.SnapshotIntervalMS,
		"SAMPLE_INTERVAL_MS":      c.SampleIntervalMS,
		"DISPLAY_UPDATE_INTERVAL": c.DisplayUpdateInterval,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.LatencyThreshold <= 0 {
		return fmt.Errorf("LATENCY_THRESHOLD must be positive, got %v", c.LatencyThreshold)
	}
	if c.Deadzone < 0 {
		return fmt.Errorf("DEADZONE must not be negative, got %v", c.Deadzone)
	}
	if c.MaxDtSeconds <= 0 {
		return fmt.Errorf("MAX_DT_SECONDS must be positive, got %v", c.MaxDtSeconds)
	}
	if c.IMUAccelRange > 3 || c.IMUGyroRange > 3 {
		return fmt.Errorf("IMU ranges must be 0-3")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
