package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newtron-network/ifconf/pkg/util"
)

const sampleConfig = `
default_device: csr1
fragments_dir: fragments
scenarios_dir: /opt/ifconf/scenarios
audit_log: logs/audit.log
devices:
  csr1:
    host: 10.10.20.48
    port: 830
    username: developer
    password_env: CSR1_PASSWORD
    dialect: csr
    known_hosts: known_hosts
    timeout: 10s
  lab:
    host: 192.0.2.1
    username: admin
    password: lab
    insecure_ignore_host_key: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ifconf.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	dir := filepath.Dir(path)

	if got := cfg.DeviceNames(); strings.Join(got, ",") != "csr1,lab" {
		t.Errorf("DeviceNames() = %v", got)
	}
	if cfg.FragmentsPath() != filepath.Join(dir, "fragments") {
		t.Errorf("FragmentsPath() = %q", cfg.FragmentsPath())
	}
	if cfg.ScenariosPath() != "/opt/ifconf/scenarios" {
		t.Errorf("ScenariosPath() = %q", cfg.ScenariosPath())
	}
	if cfg.AuditPath() != filepath.Join(dir, "logs", "audit.log") {
		t.Errorf("AuditPath() = %q", cfg.AuditPath())
	}
	if cfg.GetDatastore() != "running" {
		t.Errorf("GetDatastore() = %q", cfg.GetDatastore())
	}
}

func TestEndpoint(t *testing.T) {
	t.Setenv("CSR1_PASSWORD", "from-env")
	t.Setenv(PasswordEnv, "global")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	ep, err := cfg.Endpoint("")
	if err != nil {
		t.Fatalf("Endpoint error: %v", err)
	}
	if ep.Name != "csr1" || ep.Host != "10.10.20.48" || ep.Dialect != "csr" {
		t.Errorf("unexpected endpoint %+v", ep)
	}
	if ep.Password != "from-env" {
		t.Errorf("Password = %q, want from password_env", ep.Password)
	}
	if ep.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", ep.Timeout)
	}
	if filepath.Base(ep.KnownHostsFile) != "known_hosts" || !filepath.IsAbs(ep.KnownHostsFile) {
		t.Errorf("KnownHostsFile = %q", ep.KnownHostsFile)
	}

	lab, err := cfg.Endpoint("lab")
	if err != nil {
		t.Fatal(err)
	}
	if lab.Password != "lab" || !lab.InsecureIgnoreHostKey {
		t.Errorf("unexpected endpoint %+v", lab)
	}
}

func TestEndpointPasswordFallback(t *testing.T) {
	t.Setenv(PasswordEnv, "global")
	cfg, err := Parse([]byte("devices:\n  r1:\n    host: r1\n    username: admin\n"))
	if err != nil {
		t.Fatal(err)
	}
	ep, err := cfg.Endpoint("")
	if err != nil {
		t.Fatalf("single device should resolve without a name: %v", err)
	}
	if ep.Password != "global" {
		t.Errorf("Password = %q, want IFCONF_PASSWORD fallback", ep.Password)
	}
}

func TestResolveDevice(t *testing.T) {
	cfg, err := Parse([]byte("devices:\n  r1: {host: r1, username: a}\n  r2: {host: r2, username: a}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.ResolveDevice(""); err == nil {
		t.Error("two devices and no default should be ambiguous")
	}
	if _, err := cfg.ResolveDevice("r3"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if name, err := cfg.ResolveDevice("r2"); err != nil || name != "r2" {
		t.Errorf("ResolveDevice(r2) = %q, %v", name, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", "at least one device"},
		{"unknown key", "devices:\n  r1: {host: r1, username: a, colour: red}\n", "colour"},
		{"missing host", "devices:\n  r1: {username: a}\n", "host is required"},
		{"missing username", "devices:\n  r1: {host: r1}\n", "username is required"},
		{"bad dialect", "devices:\n  r1: {host: r1, username: a, dialect: cisco}\n", "unknown dialect"},
		{"bad port", "devices:\n  r1: {host: r1, username: a, port: 99999}\n", "out of range"},
		{"bad timeout", "devices:\n  r1: {host: r1, username: a, timeout: soon}\n", "invalid timeout"},
		{"undefined default", "default_device: r9\ndevices:\n  r1: {host: r1, username: a}\n", "not defined"},
		{"bad datastore", "datastore: scratch\ndevices:\n  r1: {host: r1, username: a}\n", "unknown datastore"},
		{"empty device", "devices:\n  r1:\n", "empty definition"},
		{"access unknown device", "devices:\n  r1: {host: r1, username: a}\naccess:\n  devices:\n    r2: {config.edit: [alice]}\n", `access: device "r2" is not defined`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAccessPolicy(t *testing.T) {
	cfg, err := Parse([]byte(`
devices:
  r1: {host: r1, username: a}
access:
  super_users: [root]
  user_groups:
    neteng: [alice]
  permissions:
    config.edit: [neteng]
  devices:
    r1:
      config.commit: [alice]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Access == nil || cfg.Access.Open() {
		t.Fatal("access policy not loaded")
	}
	if got := cfg.Access.Permissions["config.edit"]; len(got) != 1 || got[0] != "neteng" {
		t.Errorf("permissions = %v", cfg.Access.Permissions)
	}
	if got := cfg.Access.Devices["r1"]["config.commit"]; len(got) != 1 {
		t.Errorf("device permissions = %v", cfg.Access.Devices)
	}
}
