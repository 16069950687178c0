// Package scenario runs YAML-described sequences of NETCONF reads and edits
// against a device, printing the interface configuration before and after
// each change.
package scenario

// Scenario is a parsed scenario from a YAML file.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Device      string `yaml:"device,omitempty"`
	Datastore   string `yaml:"datastore,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single action within a scenario.
// Fields are action-specific; the parser rejects steps that lack the
// fields their action needs.
type Step struct {
	Name   string     `yaml:"name"`
	Action StepAction `yaml:"action"`

	// read, validate, edit
	Datastore string `yaml:"datastore,omitempty"`

	// read; a fragment name or inline subtree filter
	Filter string `yaml:"filter,omitempty"`

	// edit
	Fragment string            `yaml:"fragment,omitempty"`
	Vars     map[string]string `yaml:"vars,omitempty"`
	ExpectOK *bool             `yaml:"expect_ok,omitempty"`
}

// expectOK reports whether the device is expected to accept the edit.
func (s *Step) expectOK() bool {
	return s.ExpectOK == nil || *s.ExpectOK
}

// StepAction identifies the type of step to execute.
type StepAction string

const (
	ActionRead     StepAction = "read"
	ActionValidate StepAction = "validate"
	ActionEdit     StepAction = "edit"
	ActionCommit   StepAction = "commit"
)

// validActions is the set of recognised step actions, derived from the
// executors map at init time.
var validActions map[StepAction]bool

func init() {
	validActions = make(map[StepAction]bool, len(executors))
	for action := range executors {
		validActions[action] = true
	}
}
