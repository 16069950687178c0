package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newtron-network/ifconf/pkg/report"
)

func newTestLogger(t *testing.T, rotation RotationConfig) (*FileLogger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "audit.log")
	logger, err := NewFileLogger(logPath, rotation)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, logPath
}

func TestEvent_New(t *testing.T) {
	event := NewEvent("developer", "csr1", "edit-config")

	if event.User != "developer" {
		t.Errorf("User = %q", event.User)
	}
	if event.Device != "csr1" {
		t.Errorf("Device = %q", event.Device)
	}
	if event.Operation != "edit-config" {
		t.Errorf("Operation = %q", event.Operation)
	}
	if event.ID == "" || event.ID == NewEvent("a", "b", "c").ID {
		t.Error("IDs should be non-empty and unique")
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if !event.ExecuteMode {
		t.Error("events default to execute mode")
	}
}

func TestEvent_Chaining(t *testing.T) {
	bindings := map[string]string{"interface": "GigabitEthernet2", "ip": "1.1.1.1"}
	cs := report.Diff(nil, []report.InterfaceRecord{{Name: "Loopback0", Enabled: true}})

	event := NewEvent("developer", "csr1", "edit-config").
		WithFragment("interface-ip", bindings).
		WithDatastore("running").
		WithScenario("demo").
		WithSession(42).
		WithChanges(cs).
		WithSuccess().
		WithDuration(time.Second).
		WithExecuteMode(false)

	bindings["ip"] = "mutated"
	if event.Bindings["ip"] != "1.1.1.1" {
		t.Error("bindings should be copied")
	}
	if event.Interface != "GigabitEthernet2" {
		t.Errorf("Interface = %q", event.Interface)
	}
	if event.Fragment != "interface-ip" || event.Datastore != "running" || event.Scenario != "demo" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.SessionID != 42 {
		t.Errorf("SessionID = %d", event.SessionID)
	}
	if len(event.Changes) != 1 {
		t.Errorf("Expected 1 change, got %d", len(event.Changes))
	}
	if !event.Success || event.ExecuteMode || event.Duration != time.Second {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestEvent_WithError(t *testing.T) {
	event := NewEvent("developer", "csr1", "edit-config").WithError(errors.New("connection reset"))
	if event.Success {
		t.Error("Success should be false")
	}
	if event.Error != "connection reset" {
		t.Errorf("Error = %q", event.Error)
	}

	event2 := NewEvent("developer", "csr1", "edit-config").WithError(nil)
	if event2.Success || event2.Error != "" {
		t.Errorf("nil error: %+v", event2)
	}
}

func TestEvent_WithResult(t *testing.T) {
	rejected := NewEvent("developer", "csr1", "edit-config").WithResult(false, "data-missing")
	if rejected.Success || rejected.Error != "data-missing" {
		t.Errorf("rejected: %+v", rejected)
	}
	accepted := NewEvent("developer", "csr1", "edit-config").WithResult(true, "ignored")
	if !accepted.Success || accepted.Error != "" {
		t.Errorf("accepted: %+v", accepted)
	}
}

func TestFileLogger_Basic(t *testing.T) {
	logger, logPath := newTestLogger(t, RotationConfig{})
	if logger.Path() != logPath {
		t.Errorf("Path() = %q", logger.Path())
	}

	event := NewEvent("developer", "csr1", "edit-config").
		WithFragment("loopback", map[string]string{"interface": "Loopback0"}).
		WithSuccess()
	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Fragment != "loopback" || events[0].Interface != "Loopback0" {
		t.Errorf("round-tripped event = %+v", events[0])
	}
}

func TestFileLogger_QueryFilters(t *testing.T) {
	logger, _ := newTestLogger(t, RotationConfig{})

	events := []*Event{
		NewEvent("alice", "csr1", "edit-config").WithFragment("interface-ip", map[string]string{"interface": "GigabitEthernet2"}).WithSuccess(),
		NewEvent("bob", "csr1", "commit").WithSuccess(),
		NewEvent("alice", "csr2", "edit-config").WithFragment("delete-interface-ip", map[string]string{"interface": "GigabitEthernet2"}).WithError(errors.New("failed")),
		NewEvent("carol", "csr3", "edit-config").WithFragment("loopback", map[string]string{"interface": "Loopback0"}).WithSuccess(),
	}
	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by user", Filter{User: "alice"}, 2},
		{"by device", Filter{Device: "csr1"}, 2},
		{"by operation", Filter{Operation: "edit-config"}, 3},
		{"by fragment", Filter{Fragment: "loopback"}, 1},
		{"by interface", Filter{Interface: "GigabitEthernet2"}, 2},
		{"success only", Filter{SuccessOnly: true}, 3},
		{"failure only", Filter{FailureOnly: true}, 1},
		{"limit", Filter{Limit: 2}, 2},
		{"offset", Filter{Offset: 3}, 1},
		{"offset beyond end", Filter{Offset: 10}, 0},
		{"future start", Filter{StartTime: time.Now().Add(time.Hour)}, 0},
		{"past end", Filter{EndTime: time.Now().Add(-time.Hour)}, 0},
		{"window", Filter{StartTime: time.Now().Add(-time.Hour), EndTime: time.Now().Add(time.Hour)}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := logger.Query(tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(results) != tt.want {
				t.Errorf("got %d events, want %d", len(results), tt.want)
			}
		})
	}
}

func TestFileLogger_QueryMalformedJSON(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")
	content := `{"user":"alice","device":"csr1","operation":"edit-config","success":true}
invalid json line
{"user":"bob","device":"csr2","operation":"commit","success":true}
`
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	results, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 valid events, got %d", len(results))
	}
}

func TestFileLogger_QueryAfterRemove(t *testing.T) {
	logger, logPath := newTestLogger(t, RotationConfig{})
	os.Remove(logPath)

	results, err := logger.Query(Filter{})
	if err != nil {
		t.Errorf("Query on missing file should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 events, got %d", len(results))
	}
}

func TestFileLogger_CreatesDirectories(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "nested", "dir", "audit.log"), RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger should create directories: %v", err)
	}
	logger.Close()
}

func TestFileLogger_OpenErrors(t *testing.T) {
	if _, err := NewFileLogger("/dev/null/impossible/audit.log", RotationConfig{}); err == nil {
		t.Error("NewFileLogger should fail when directory creation fails")
	}

	dirPath := filepath.Join(t.TempDir(), "audit.log")
	if err := os.Mkdir(dirPath, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileLogger(dirPath, RotationConfig{}); err == nil {
		t.Error("NewFileLogger should fail when log path is a directory")
	}
}

func TestFileLogger_LogAfterClose(t *testing.T) {
	logger, _ := newTestLogger(t, RotationConfig{})
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close should be a no-op: %v", err)
	}
	if err := logger.Log(NewEvent("a", "b", "c")); err == nil {
		t.Error("Log after Close should fail")
	}
}

func TestFileLogger_Rotation(t *testing.T) {
	logger, logPath := newTestLogger(t, RotationConfig{MaxSize: 50, MaxBackups: 2})

	for i := 0; i < 10; i++ {
		if err := logger.Log(NewEvent("alice", "csr1", "edit-config")); err != nil {
			t.Fatalf("Log failed on iteration %d: %v", i, err)
		}
	}

	matches, err := filepath.Glob(logPath + ".*")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Error("Expected rotation to create backup files")
	}
	if len(matches) > 2 {
		t.Errorf("Expected at most 2 backup files, got %d", len(matches))
	}

	results, _ := logger.Query(Filter{})
	if len(results) != 1 {
		t.Errorf("current file should hold only the newest event, got %d", len(results))
	}
}

func TestFileLogger_RotationFailureRecovers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logPath := filepath.Join(dir, "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{MaxSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { logger.Close() })

	if err := logger.Log(NewEvent("alice", "csr1", "edit-config")); err != nil {
		t.Fatalf("first Log failed: %v", err)
	}

	// With the directory gone neither the move nor the reopen can succeed.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	err = logger.Log(NewEvent("alice", "csr1", "edit-config"))
	if err == nil {
		t.Fatal("Log should fail while the log directory is missing")
	}
	if errors.Is(err, os.ErrClosed) {
		t.Errorf("rotation left a closed file behind: %v", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := logger.Log(NewEvent("bob", "csr1", "commit")); err != nil {
		t.Fatalf("Log should recover once the directory is back: %v", err)
	}
	events, err := logger.Query(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].User != "bob" {
		t.Errorf("expected only the event logged after recovery, got %d", len(events))
	}
}

func TestDefaultLogger(t *testing.T) {
	SetDefaultLogger(nil)
	if err := Log(NewEvent("test", "test", "test")); err != nil {
		t.Errorf("Log with nil default should not error: %v", err)
	}
	results, err := Query(Filter{})
	if err != nil || len(results) != 0 {
		t.Errorf("Query with nil default = %v, %v", results, err)
	}

	logger, _ := newTestLogger(t, RotationConfig{})
	SetDefaultLogger(logger)
	defer SetDefaultLogger(nil)

	if err := Log(NewEvent("alice", "csr1", "edit-config").WithSuccess()); err != nil {
		t.Errorf("Log failed: %v", err)
	}
	results, err = Query(Filter{})
	if err != nil {
		t.Errorf("Query failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}
