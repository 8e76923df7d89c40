package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConnectorType identifies which transport backend should be used.
type ConnectorType string

const (
	ConnectorSerial ConnectorType = "serial"
	ConnectorTCP    ConnectorType = "tcp"

	// DefaultSerialBaud is the factory baud rate of most u-blox modules.
	DefaultSerialBaud = 38400

	DefaultMeasRateMS  = 1000
	DefaultNavRate     = 1
	DefaultAckTimeout  = 1000
	DefaultTrackRateHz = 1
)

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// ConnectionConfig contains connector-specific connection parameters.
type ConnectionConfig struct {
	Connector  ConnectorType `json:"connector"`
	Host       string        `json:"host"`
	SerialPort string        `json:"serial_port"`
	SerialBaud int           `json:"serial_baud"`
}

// ReceiverConfig holds the settings applied to the receiver on startup.
// DynamicModel and FixMode use the textual names the receiver manuals use
// ("Portable", "Stationary", "2D", "Auto", ...).
type ReceiverConfig struct {
	MeasRateMS   int    `json:"meas_rate_ms"`
	NavRate      int    `json:"nav_rate"`
	DynamicModel string `json:"dynamic_model"`
	FixMode      string `json:"fix_mode"`
	AckTimeoutMS int    `json:"ack_timeout_ms"`
	EnableSBAS   bool   `json:"enable_sbas"`
}

// StorageConfig controls the local track log database.
type StorageConfig struct {
	RecordTrack bool `json:"record_track"`
	RetainDays  int  `json:"retain_days"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Connection ConnectionConfig `json:"connection"`
	Receiver   ReceiverConfig   `json:"receiver"`
	Logging    LoggingConfig    `json:"logging"`
	Storage    StorageConfig    `json:"storage"`
}

func Default() AppConfig {
	return AppConfig{
		Connection: ConnectionConfig{
			Connector:  ConnectorSerial,
			Host:       "",
			SerialPort: "",
			SerialBaud: DefaultSerialBaud,
		},
		Receiver: ReceiverConfig{
			MeasRateMS:   DefaultMeasRateMS,
			NavRate:      DefaultNavRate,
			DynamicModel: "Portable",
			FixMode:      "Auto",
			AckTimeoutMS: DefaultAckTimeout,
			EnableSBAS:   false,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		Storage: StorageConfig{
			RecordTrack: false,
			RetainDays:  30,
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by the caller and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Connection.Connector == "" {
		c.Connection.Connector = ConnectorSerial
	}
	if c.Connection.SerialBaud <= 0 {
		c.Connection.SerialBaud = DefaultSerialBaud
	}
	if c.Receiver.MeasRateMS <= 0 {
		c.Receiver.MeasRateMS = DefaultMeasRateMS
	}
	if c.Receiver.NavRate <= 0 {
		c.Receiver.NavRate = DefaultNavRate
	}
	if c.Receiver.AckTimeoutMS <= 0 {
		c.Receiver.AckTimeoutMS = DefaultAckTimeout
	}
	if c.Receiver.DynamicModel == "" {
		c.Receiver.DynamicModel = "Portable"
	}
	if c.Receiver.FixMode == "" {
		c.Receiver.FixMode = "Auto"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Storage.RetainDays < 0 {
		c.Storage.RetainDays = 0
	}
}

func (c AppConfig) Validate() error {
	switch c.Connection.Connector {
	case ConnectorTCP:
		if strings.TrimSpace(c.Connection.Host) == "" {
			return errors.New("tcp host is required")
		}
	case ConnectorSerial:
		if strings.TrimSpace(c.Connection.SerialPort) == "" {
			return errors.New("serial port is required")
		}
		if c.Connection.SerialBaud <= 0 {
			return errors.New("serial baud must be positive")
		}
	default:
		return fmt.Errorf("unknown connector: %s", c.Connection.Connector)
	}

	if c.Receiver.MeasRateMS <= 0 {
		return errors.New("measurement rate must be positive")
	}
	if c.Receiver.NavRate <= 0 {
		return errors.New("navigation rate must be positive")
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
