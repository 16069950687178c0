// Package config loads the ifconf YAML configuration: device endpoints,
// fragment and scenario directories, and the audit log location.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/ifconf/pkg/auth"
	"github.com/newtron-network/ifconf/pkg/device"
	"github.com/newtron-network/ifconf/pkg/util"
)

// PasswordEnv is consulted when a device has neither password nor
// password_env set.
const PasswordEnv = "IFCONF_PASSWORD"

// Config is the top-level configuration file.
type Config struct {
	DefaultDevice string                   `yaml:"default_device,omitempty"`
	Datastore     string                   `yaml:"datastore,omitempty"`
	Filter        string                   `yaml:"filter,omitempty"` // fragment name or inline subtree filter
	FragmentsDir  string                   `yaml:"fragments_dir,omitempty"`
	ScenariosDir  string                   `yaml:"scenarios_dir,omitempty"`
	AuditLog      string                   `yaml:"audit_log,omitempty"`
	Devices       map[string]*DeviceConfig `yaml:"devices"`
	Access        *auth.Policy             `yaml:"access,omitempty"`

	// path is the file the config was loaded from; relative directories
	// resolve against it.
	path string
}

// DeviceConfig describes how to reach one device.
type DeviceConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port,omitempty"`
	Username              string `yaml:"username"`
	Password              string `yaml:"password,omitempty"`
	PasswordEnv           string `yaml:"password_env,omitempty"`
	Dialect               string `yaml:"dialect,omitempty"`
	KnownHosts            string `yaml:"known_hosts,omitempty"`
	InsecureIgnoreHostKey bool   `yaml:"insecure_ignore_host_key,omitempty"`
	Timeout               string `yaml:"timeout,omitempty"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.path = abs
	return cfg, nil
}

// Parse decodes and validates a configuration document. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every device entry and the top-level references.
func (c *Config) Validate() error {
	var vb util.ValidationBuilder

	vb.Add(len(c.Devices) > 0, "at least one device is required")
	if c.DefaultDevice != "" {
		_, ok := c.Devices[c.DefaultDevice]
		vb.Add(ok, fmt.Sprintf("default_device %q is not defined", c.DefaultDevice))
	}
	switch c.Datastore {
	case "", "running", "candidate", "startup":
	default:
		vb.AddErrorf("unknown datastore %q", c.Datastore)
	}

	for _, name := range c.DeviceNames() {
		d := c.Devices[name]
		if d == nil {
			vb.AddErrorf("device %s: empty definition", name)
			continue
		}
		vb.Add(d.Host != "", fmt.Sprintf("device %s: host is required", name))
		vb.Add(d.Username != "", fmt.Sprintf("device %s: username is required", name))
		vb.Add(d.Port >= 0 && d.Port <= 65535, fmt.Sprintf("device %s: port %d out of range", name, d.Port))
		if d.Dialect != "" {
			_, ok := device.Dialects[d.Dialect]
			vb.Add(ok, fmt.Sprintf("device %s: unknown dialect %q (valid: %s)", name, d.Dialect, strings.Join(device.DialectNames(), ", ")))
		}
		if d.Timeout != "" {
			if _, err := time.ParseDuration(d.Timeout); err != nil {
				vb.AddErrorf("device %s: invalid timeout %q", name, d.Timeout)
			}
		}
	}
	if c.Access != nil {
		for name := range c.Access.Devices {
			_, ok := c.Devices[name]
			vb.Add(ok, fmt.Sprintf("access: device %q is not defined", name))
		}
	}
	return vb.Build()
}

// DeviceNames returns the configured device names, sorted.
func (c *Config) DeviceNames() []string {
	names := make([]string, 0, len(c.Devices))
	for n := range c.Devices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResolveDevice picks the device to use: name if given, else the
// default_device, else the only device when exactly one is configured.
func (c *Config) ResolveDevice(name string) (string, error) {
	switch {
	case name != "":
	case c.DefaultDevice != "":
		name = c.DefaultDevice
	case len(c.Devices) == 1:
		name = c.DeviceNames()[0]
	default:
		return "", fmt.Errorf("no device specified and no default_device (devices: %s)", strings.Join(c.DeviceNames(), ", "))
	}
	if _, ok := c.Devices[name]; !ok {
		return "", util.NewNotFoundError("device", name)
	}
	return name, nil
}

// Endpoint builds the session endpoint for a device. The password comes from
// the config, then password_env, then IFCONF_PASSWORD; it may be left empty
// for the caller to prompt.
func (c *Config) Endpoint(name string) (device.Endpoint, error) {
	name, err := c.ResolveDevice(name)
	if err != nil {
		return device.Endpoint{}, err
	}
	d := c.Devices[name]

	ep := device.Endpoint{
		Name:                  name,
		Host:                  d.Host,
		Port:                  d.Port,
		Username:              d.Username,
		Password:              d.Password,
		Dialect:               d.Dialect,
		KnownHostsFile:        c.resolvePath(d.KnownHosts),
		InsecureIgnoreHostKey: d.InsecureIgnoreHostKey,
	}
	if ep.Password == "" && d.PasswordEnv != "" {
		ep.Password = os.Getenv(d.PasswordEnv)
	}
	if ep.Password == "" {
		ep.Password = os.Getenv(PasswordEnv)
	}
	if d.Timeout != "" {
		// Validated at load time.
		ep.Timeout, _ = time.ParseDuration(d.Timeout)
	}
	return ep, nil
}

// GetDatastore returns the configured datastore (with fallback)
func (c *Config) GetDatastore() string {
	if c.Datastore != "" {
		return c.Datastore
	}
	return "running"
}

// FragmentsPath returns the fragment directory, or "" when unset.
func (c *Config) FragmentsPath() string { return c.resolvePath(c.FragmentsDir) }

// ScenariosPath returns the scenario directory, or "" when unset.
func (c *Config) ScenariosPath() string { return c.resolvePath(c.ScenariosDir) }

// AuditPath returns the audit log location, or "" when auditing is off.
func (c *Config) AuditPath() string { return c.resolvePath(c.AuditLog) }

// resolvePath expands a leading ~ and anchors relative paths at the
// directory holding the config file.
func (c *Config) resolvePath(p string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if filepath.IsAbs(p) || c.path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.path), p)
}
