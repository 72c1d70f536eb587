package robot

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/gwillem/armsim/pkg/program"
)

const DefaultConfigFile = "armsim.json"

// Config holds the simulator configuration
type Config struct {
	DelayMS                  int       `json:"delay_ms,omitempty"`
	HoldControlsUntilSettled bool      `json:"hold_controls_until_settled,omitempty"`
	Rig                      RigConfig `json:"rig"`
}

// RigConfig holds configuration for the servo rig
type RigConfig struct {
	Port        string      `json:"port"`
	Calibration Calibration `json:"calibration,omitempty"`
}

// IsCalibrated returns true if the rig has calibration data
func (r *RigConfig) IsCalibrated() bool {
	return len(r.Calibration) > 0
}

// Delay returns the step delay, falling back to program.DefaultDelay.
func (c *Config) Delay() time.Duration {
	if c.DelayMS <= 0 {
		return program.DefaultDelay
	}
	return time.Duration(c.DelayMS) * time.Millisecond
}

// LoadConfigFrom loads configuration from a specific file
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &cfg, nil
}

// LoadConfigOrDefault loads the config file if it exists and returns an
// empty config otherwise. An empty path means DefaultConfigFile.
func LoadConfigOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadConfigFrom(path)
}

// SaveTo saves configuration to a specific file, DefaultConfigFile if path
// is empty.
func (c *Config) SaveTo(path string) error {
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
