// Package settings manages persistent user settings for the ifconf CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings holds persistent user preferences
type Settings struct {
	// ConfigFile is the device configuration used when -c is not given
	ConfigFile string `json:"config_file,omitempty"`

	// DefaultDevice is the device to use when -d is not specified
	DefaultDevice string `json:"default_device,omitempty"`

	// Datastore is the default edit/read datastore ("running" when empty)
	Datastore string `json:"datastore,omitempty"`

	// AuditLog overrides the audit log location
	AuditLog string `json:"audit_log,omitempty"`
}

// Keys lists the settings that can be set by name, in display order.
var Keys = []string{"config_file", "default_device", "datastore", "audit_log"}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ifconf_settings.json"
	}
	return filepath.Join(home, ".ifconf", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields empty
// settings.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Get returns a setting by key.
func (s *Settings) Get(key string) (string, error) {
	switch key {
	case "config_file":
		return s.ConfigFile, nil
	case "default_device":
		return s.DefaultDevice, nil
	case "datastore":
		return s.Datastore, nil
	case "audit_log":
		return s.AuditLog, nil
	}
	return "", fmt.Errorf("unknown setting %q (valid: config_file, default_device, datastore, audit_log)", key)
}

// Set assigns a setting by key. An empty value clears it.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "config_file":
		s.ConfigFile = value
	case "default_device":
		s.DefaultDevice = value
	case "datastore":
		switch value {
		case "", "running", "candidate", "startup":
		default:
			return fmt.Errorf("invalid datastore %q", value)
		}
		s.Datastore = value
	case "audit_log":
		s.AuditLog = value
	default:
		return fmt.Errorf("unknown setting %q (valid: config_file, default_device, datastore, audit_log)", key)
	}
	return nil
}

// GetDatastore returns the datastore (with fallback)
func (s *Settings) GetDatastore() string {
	if s.Datastore != "" {
		return s.Datastore
	}
	return "running"
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
