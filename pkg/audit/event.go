// Package audit records every edit-config attempt as a JSON-lines event.
package audit

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/newtron-network/ifconf/pkg/report"
)

// Event is one configuration change attempt against a device.
type Event struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	User        string            `json:"user"`
	Device      string            `json:"device"`
	Operation   string            `json:"operation"` // edit-config or commit
	Datastore   string            `json:"datastore,omitempty"`
	Fragment    string            `json:"fragment,omitempty"`
	Interface   string            `json:"interface,omitempty"`
	Bindings    map[string]string `json:"bindings,omitempty"`
	Scenario    string            `json:"scenario,omitempty"`
	Changes     []report.Change   `json:"changes,omitempty"`
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	ExecuteMode bool              `json:"execute_mode"` // false for previews
	Duration    time.Duration     `json:"duration"`
	SessionID   int               `json:"session_id,omitempty"`
}

// NewEvent creates a new audit event
func NewEvent(user, device, operation string) *Event {
	return &Event{
		ID:          generateID(),
		Timestamp:   time.Now(),
		User:        user,
		Device:      device,
		Operation:   operation,
		ExecuteMode: true,
	}
}

// WithFragment records the rendered fragment and its bindings. The
// interface binding, when present, is also copied to Interface.
func (e *Event) WithFragment(name string, bindings map[string]string) *Event {
	e.Fragment = name
	if len(bindings) > 0 {
		e.Bindings = make(map[string]string, len(bindings))
		for k, v := range bindings {
			e.Bindings[k] = v
		}
		e.Interface = bindings["interface"]
	}
	return e
}

// WithDatastore sets the target datastore
func (e *Event) WithDatastore(ds string) *Event {
	e.Datastore = ds
	return e
}

// WithScenario sets the scenario that issued the change
func (e *Event) WithScenario(name string) *Event {
	e.Scenario = name
	return e
}

// WithSession sets the NETCONF session-id
func (e *Event) WithSession(id int) *Event {
	e.SessionID = id
	return e
}

// WithChanges sets the before/after differences
func (e *Event) WithChanges(cs *report.ChangeSet) *Event {
	if cs != nil {
		e.Changes = cs.Changes
	}
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	e.Error = ""
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithResult marks the event from a device verdict.
func (e *Event) WithResult(ok bool, detail string) *Event {
	e.Success = ok
	if !ok {
		e.Error = detail
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// WithExecuteMode marks whether the change was sent or only previewed
func (e *Event) WithExecuteMode(execute bool) *Event {
	e.ExecuteMode = execute
	return e
}

var idSeq atomic.Uint64

func generateID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), idSeq.Add(1))
}

// Filter defines criteria for querying audit events
type Filter struct {
	Device      string
	User        string
	Operation   string
	Fragment    string
	Interface   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// Matches reports whether event satisfies every set criterion.
func (f Filter) Matches(event *Event) bool {
	switch {
	case f.Device != "" && event.Device != f.Device:
		return false
	case f.User != "" && event.User != f.User:
		return false
	case f.Operation != "" && event.Operation != f.Operation:
		return false
	case f.Fragment != "" && event.Fragment != f.Fragment:
		return false
	case f.Interface != "" && event.Interface != f.Interface:
		return false
	case !f.StartTime.IsZero() && event.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && event.Timestamp.After(f.EndTime):
		return false
	case f.SuccessOnly && !event.Success:
		return false
	case f.FailureOnly && event.Success:
		return false
	}
	return true
}

// page applies Offset then Limit.
func (f Filter) page(events []*Event) []*Event {
	if f.Offset > 0 {
		if f.Offset >= len(events) {
			return []*Event{}
		}
		events = events[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(events) {
		events = events[:f.Limit]
	}
	return events
}
