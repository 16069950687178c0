package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetDatastore(); got != "running" {
		t.Errorf("GetDatastore() default = %q, want %q", got, "running")
	}
	if s.DefaultDevice != "" {
		t.Errorf("DefaultDevice should be empty, got %q", s.DefaultDevice)
	}
}

func TestSettings_SetGet(t *testing.T) {
	s := &Settings{}

	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"config_file", "/etc/ifconf/devices.yaml", false},
		{"default_device", "csr1", false},
		{"datastore", "candidate", false},
		{"datastore", "scratch", true},
		{"audit_log", "/var/log/ifconf/audit.log", false},
		{"spec_dir", "/x", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := s.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, err := s.Get(tt.key)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.value {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.value)
			}
		})
	}

	if s.GetDatastore() != "candidate" {
		t.Errorf("GetDatastore() = %q", s.GetDatastore())
	}
	if _, err := s.Get("nope"); err == nil {
		t.Error("Get on unknown key should fail")
	}
	for _, k := range Keys {
		if _, err := s.Get(k); err != nil {
			t.Errorf("Keys lists %q but Get rejects it", k)
		}
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{
		ConfigFile:    "/path",
		DefaultDevice: "csr1",
		Datastore:     "candidate",
		AuditLog:      "/log",
	}

	s.Clear()

	if *s != (Settings{}) {
		t.Error("Clear() should reset all fields to empty")
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.json")

	s := &Settings{DefaultDevice: "csr1", Datastore: "candidate"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *loaded != *s {
		t.Errorf("loaded %+v, want %+v", loaded, s)
	}
}

func TestSettings_LoadMissingFile(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if s.DefaultDevice != "" {
		t.Errorf("expected empty settings, got %+v", s)
	}
}

func TestSettings_LoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{invalid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on invalid JSON")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	path := DefaultSettingsPath()
	if filepath.Base(path) != "settings.json" {
		t.Errorf("DefaultSettingsPath() = %q", path)
	}
	if filepath.Base(filepath.Dir(path)) != ".ifconf" && path != "ifconf_settings.json" {
		t.Errorf("DefaultSettingsPath() = %q", path)
	}
}
