package scenario

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/newtron-network/ifconf/pkg/audit"
	"github.com/newtron-network/ifconf/pkg/configlet"
	"github.com/newtron-network/ifconf/pkg/device"
	"github.com/newtron-network/ifconf/pkg/report"
	"github.com/newtron-network/ifconf/pkg/util"
	"github.com/newtron-network/ifconf/pkg/xmltree"
)

// Runner executes scenarios against a device. Every step is its own
// operation group: a session is opened for it and closed when it ends.
type Runner struct {
	Endpoint  device.Endpoint
	Options   device.Options
	Library   *configlet.Library
	Datastore string // default datastore; "running" when empty
	Filter    string // read filter: fragment name or inline XML
	User      string
	Out       io.Writer

	// Audit receives one event per edit or commit. The package default
	// logger is used when nil.
	Audit audit.Logger

	// Resolve maps a scenario's device name to an endpoint. Scenarios that
	// name a device other than Endpoint need it.
	Resolve func(name string) (device.Endpoint, error)

	scenario *Scenario
	endpoint device.Endpoint
	last     map[string][]report.InterfaceRecord // latest read per datastore
}

// NewRunner creates a runner printing to stdout.
func NewRunner(ep device.Endpoint, lib *configlet.Library) *Runner {
	return &Runner{
		Endpoint: ep,
		Library:  lib,
		Out:      os.Stdout,
	}
}

// Run executes scenarios in order. A fatal error (connection, host key,
// RPC, missing binding, partial data) stops the run: the error is returned
// with the results so far, and the scenarios that did not run are reported
// as skipped.
func (r *Runner) Run(ctx context.Context, scenarios []*Scenario) ([]*ScenarioResult, error) {
	if r.Out == nil {
		r.Out = os.Stdout
	}

	var results []*ScenarioResult
	for i, sc := range scenarios {
		result, err := r.RunScenario(ctx, sc)
		results = append(results, result)
		if err != nil {
			for _, rest := range scenarios[i+1:] {
				results = append(results, &ScenarioResult{
					Name:       rest.Name,
					Status:     StepStatusSkipped,
					SkipReason: fmt.Sprintf("run stopped after %s errored", sc.Name),
				})
			}
			return results, err
		}
	}
	return results, nil
}

// RunScenario executes the steps of one scenario, stopping at the first
// step that does not pass.
func (r *Runner) RunScenario(ctx context.Context, sc *Scenario) (*ScenarioResult, error) {
	if r.Out == nil {
		r.Out = os.Stdout
	}
	start := time.Now()
	result := &ScenarioResult{Name: sc.Name}

	ep, err := r.endpointFor(sc)
	if err != nil {
		result.Status = StepStatusError
		result.SkipReason = err.Error()
		return result, err
	}
	if ep.Label() != r.endpoint.Label() {
		r.last = nil
	}
	r.endpoint = ep
	r.scenario = sc
	result.Device = ep.Label()

	fmt.Fprintf(r.Out, "\n=== %s ===\n", sc.Name)
	if sc.Description != "" {
		fmt.Fprintln(r.Out, sc.Description)
	}
	log := util.WithDevice(ep.Label()).WithField("scenario", sc.Name)
	log.Infof("Running %d step(s)", len(sc.Steps))

	var fatal error
	for i := range sc.Steps {
		step := &sc.Steps[i]
		fmt.Fprintf(r.Out, "\n[%d/%d] %s (%s)\n", i+1, len(sc.Steps), step.Name, step.Action)

		output := r.executeStep(ctx, step)
		result.Steps = append(result.Steps, *output.Result)
		fmt.Fprintf(r.Out, "%s: %s\n", step.Name, output.Result.Status)

		if output.Err != nil {
			log.Errorf("Step %s: %v", step.Name, output.Err)
			fatal = &StepError{Step: step.Name, Action: step.Action, Err: output.Err}
			break
		}
		if output.Result.Status != StepStatusPassed {
			log.Warnf("Step %s: %s", step.Name, output.Result.Message)
			break
		}
	}

	result.Duration = time.Since(start)
	result.Status = computeOverallStatus(result.Steps)
	return result, fatal
}

func (r *Runner) endpointFor(sc *Scenario) (device.Endpoint, error) {
	if sc.Device == "" || sc.Device == r.Endpoint.Name {
		return r.Endpoint, nil
	}
	if r.Resolve == nil {
		return device.Endpoint{}, &InfraError{Op: "connect", Device: sc.Device, Err: util.NewNotFoundError("device", sc.Device)}
	}
	ep, err := r.Resolve(sc.Device)
	if err != nil {
		return device.Endpoint{}, &InfraError{Op: "connect", Device: sc.Device, Err: err}
	}
	return ep, nil
}

// executeStep dispatches a step to its executor.
func (r *Runner) executeStep(ctx context.Context, step *Step) *StepOutput {
	executor, ok := executors[step.Action]
	if !ok {
		return errorOutput(fmt.Errorf("unknown action: %s", step.Action))
	}

	start := time.Now()
	output := executor.Execute(ctx, r, step)
	output.Result.Duration = time.Since(start)
	output.Result.Name = step.Name
	output.Result.Action = step.Action
	return output
}

// datastore picks the step's datastore, then the scenario's, then the
// runner default.
func (r *Runner) datastore(step *Step) string {
	for _, ds := range []string{step.Datastore, r.scenarioDatastore(), r.Datastore} {
		if ds != "" {
			return ds
		}
	}
	return "running"
}

func (r *Runner) scenarioDatastore() string {
	if r.scenario == nil {
		return ""
	}
	return r.scenario.Datastore
}

func (r *Runner) filter(step *Step) (string, error) {
	ref := step.Filter
	if ref == "" {
		ref = r.Filter
	}
	return r.Library.Filter(ref)
}

// banner prints a section title framed by dashes.
func (r *Runner) banner(title string) {
	dashes := strings.Repeat("-", 15)
	fmt.Fprintf(r.Out, "%s|%s|%s\n", dashes, title, dashes)
}

// show prints a get-config reply as XML, as JSON, and as the interface
// table, and returns the parsed records.
func (r *Runner) show(heading, phase string, cr *device.ConfigReply) ([]report.InterfaceRecord, error) {
	pretty, err := xmltree.Pretty([]byte(cr.Raw), "  ")
	if err != nil {
		return nil, err
	}
	r.banner(heading + " (XML)")
	fmt.Fprintln(r.Out, string(pretty))

	js, err := cr.Tree.JSON("  ")
	if err != nil {
		return nil, err
	}
	r.banner(heading + " (JSON)")
	fmt.Fprintln(r.Out, string(js))

	records, err := report.Parse(cr.Tree)
	if err != nil {
		return nil, err
	}
	r.banner("INTERFACE DETAIL (" + phase + ")")
	fmt.Fprint(r.Out, report.Format(records))
	return records, nil
}

// remember records the latest read of ds for the next diff against it.
func (r *Runner) remember(ds string, records []report.InterfaceRecord) {
	if r.last == nil {
		r.last = make(map[string][]report.InterfaceRecord)
	}
	r.last[ds] = records
}

// forget drops the remembered read of ds after it changed behind our back.
func (r *Runner) forget(ds string) {
	delete(r.last, ds)
}

func (r *Runner) audit(event *audit.Event) {
	var err error
	if r.Audit != nil {
		err = r.Audit.Log(event)
	} else {
		err = audit.Log(event)
	}
	if err != nil {
		util.WithDevice(event.Device).Warnf("Writing audit event: %v", err)
	}
}
