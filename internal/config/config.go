// Package config persists user settings for the strapline CLI in the
// platform configuration directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "strapline"
	configFile = "config.yaml"
)

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigErr  error

	fileMutex sync.Mutex
)

// Config holds user settings. Physiology fields feed the analytics
// pipeline; zero values fall back to the defaults below.
type Config struct {
	// DeviceAddress is the BLE MAC (or platform device id) of the strap.
	// Empty means scan by name prefix.
	DeviceAddress string `yaml:"device_address,omitempty"`

	// CaptureDir is where capture files land. Empty means the current
	// working directory.
	CaptureDir string `yaml:"capture_dir,omitempty"`

	MaxHeartRate     int     `yaml:"max_heart_rate,omitempty"`
	RestingHeartRate int     `yaml:"resting_heart_rate,omitempty"`
	SleepNeedHours   float64 `yaml:"sleep_need_hours,omitempty"`
}

// Default physiology values for an unconfigured user.
const (
	DefaultMaxHeartRate     = 190
	DefaultRestingHeartRate = 60
	DefaultSleepNeedHours   = 8.0
)

// NewDefault returns a config populated with the default values.
func NewDefault() *Config {
	return &Config{
		MaxHeartRate:     DefaultMaxHeartRate,
		RestingHeartRate: DefaultRestingHeartRate,
		SleepNeedHours:   DefaultSleepNeedHours,
	}
}

// Normalize fills any zero physiology fields with defaults.
func (c *Config) Normalize() {
	if c.MaxHeartRate <= 0 {
		c.MaxHeartRate = DefaultMaxHeartRate
	}
	if c.RestingHeartRate <= 0 {
		c.RestingHeartRate = DefaultRestingHeartRate
	}
	if c.SleepNeedHours <= 0 {
		c.SleepNeedHours = DefaultSleepNeedHours
	}
}

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/strapline or $HOME/.config/strapline
//   - macOS: $HOME/.config/strapline
//   - Windows: %LOCALAPPDATA%\strapline
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load loads the configuration from disk. A missing file yields the
// defaults. Thread-safe; repeated calls return the same instance.
func Load() (*Config, error) {
	globalConfigOnce.Do(func() {
		globalConfig, globalConfigErr = loadFromDisk()
	})
	return globalConfig, globalConfigErr
}

func loadFromDisk() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return NewDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	c.Normalize()
	return &c, nil
}

// Save writes the configuration to disk, creating the directory if needed.
func Save(c *Config) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(configDir, configFile)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
