package scenario

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios/*.yaml
var builtinFS embed.FS

// BuiltinName is the scenario set shipped with ifconf.
const BuiltinName = "demo"

// ParseFile reads a YAML file and returns its validated scenarios. A file
// may hold several scenarios as separate YAML documents.
func ParseFile(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	scenarios, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return scenarios, nil
}

// ParseDir reads every .yaml file in dir, in name order.
func ParseDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var scenarios []*Scenario
	for _, name := range names {
		s, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s...)
	}
	if err := checkDuplicates(scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// Builtin returns the demo scenarios: configure an address on
// GigabitEthernet2, remove it, create Loopback0, delete it.
func Builtin() ([]*Scenario, error) {
	data, err := builtinFS.ReadFile("scenarios/" + BuiltinName + ".yaml")
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates one or more YAML scenario documents.
func Parse(data []byte) ([]*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var scenarios []*Scenario
	for {
		var s Scenario
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := Validate(&s); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, &s)
	}
	if len(scenarios) == 0 {
		return nil, errors.New("no scenarios defined")
	}
	if err := checkDuplicates(scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

func checkDuplicates(scenarios []*Scenario) error {
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario name: %s", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Validate checks a scenario and each of its steps.
func Validate(s *Scenario) error {
	if s.Name == "" {
		return errors.New("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %s has no steps", s.Name)
	}
	if err := checkDatastore(fmt.Sprintf("scenario %s", s.Name), s.Datastore); err != nil {
		return err
	}
	for i := range s.Steps {
		if err := validateStep(s, i+1, &s.Steps[i]); err != nil {
			return err
		}
	}
	return nil
}

func checkDatastore(prefix, ds string) error {
	if ds == "" {
		return nil
	}
	for _, known := range []string{"running", "candidate", "startup"} {
		if ds == known {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown datastore %q", prefix, ds)
}

// stepValidation declares what fields each action requires. custom is
// given the effective datastore: the step's, else the scenario's.
type stepValidation struct {
	fields []string // required step-level fields
	custom func(prefix string, step *Step, ds string) error
}

// stepValidations is the declarative validation table for step actions.
// Actions not listed here have no field requirements.
var stepValidations = map[StepAction]stepValidation{
	ActionEdit: {fields: []string{"fragment"}, custom: func(prefix string, step *Step, _ string) error {
		if step.Filter != "" {
			return fmt.Errorf("%s: filter is not used by edit", prefix)
		}
		return nil
	}},
	ActionCommit: {custom: func(prefix string, step *Step, _ string) error {
		if step.Fragment != "" || len(step.Vars) > 0 {
			return fmt.Errorf("%s: commit takes no fragment", prefix)
		}
		if step.Datastore != "" {
			return fmt.Errorf("%s: commit always targets running", prefix)
		}
		return nil
	}},
	ActionRead: {custom: func(prefix string, step *Step, _ string) error {
		if step.Fragment != "" {
			return fmt.Errorf("%s: read takes a filter, not a fragment", prefix)
		}
		return nil
	}},
	ActionValidate: {custom: func(prefix string, _ *Step, ds string) error {
		if ds == "startup" {
			return fmt.Errorf("%s: startup cannot be validated", prefix)
		}
		return nil
	}},
}

// stepFieldGetter maps step-level field names to their accessors.
var stepFieldGetter = map[string]func(*Step) string{
	"fragment":  func(s *Step) string { return s.Fragment },
	"datastore": func(s *Step) string { return s.Datastore },
	"filter":    func(s *Step) string { return s.Filter },
}

func validateStep(s *Scenario, index int, step *Step) error {
	prefix := fmt.Sprintf("scenario %s step %d (%s)", s.Name, index, step.Name)

	if step.Name == "" {
		return fmt.Errorf("%s: name is required", prefix)
	}
	if !validActions[step.Action] {
		return fmt.Errorf("%s: unknown action %q", prefix, step.Action)
	}
	if err := checkDatastore(prefix, step.Datastore); err != nil {
		return err
	}

	v, ok := stepValidations[step.Action]
	if !ok {
		return nil
	}
	for _, field := range v.fields {
		getter, exists := stepFieldGetter[field]
		if !exists {
			return fmt.Errorf("%s: unknown validation field %q (bug)", prefix, field)
		}
		if getter(step) == "" {
			return fmt.Errorf("%s: %s is required", prefix, field)
		}
	}
	if v.custom != nil {
		ds := step.Datastore
		if ds == "" {
			ds = s.Datastore
		}
		return v.custom(prefix, step, ds)
	}
	return nil
}

// Select returns the scenarios with the given names, in the order given.
// No names selects all.
func Select(scenarios []*Scenario, names ...string) ([]*Scenario, error) {
	if len(names) == 0 {
		return scenarios, nil
	}
	byName := make(map[string]*Scenario, len(scenarios))
	for _, s := range scenarios {
		byName[s.Name] = s
	}
	out := make([]*Scenario, 0, len(names))
	for _, n := range names {
		s, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("scenario %q not found", n)
		}
		out = append(out, s)
	}
	return out, nil
}
